package quota

// Record holds one user's quota on one filesystem, in whole MB. The zero
// value (all limits 0) is the canonical "no quota" record, not an error.
type Record struct {
	Username    string `json:"username"`
	UsedMB      int64  `json:"usedMB"`
	SoftLimitMB int64  `json:"softLimitMB"`
	HardLimitMB int64  `json:"hardLimitMB"`
	Grace       string `json:"grace"`
	Filesystem  string `json:"filesystem"`
}

// Status is derived from a Record by Evaluate and never stored.
type Status struct {
	Username   string  `json:"username"`
	HasQuota   bool    `json:"hasQuota"`
	OverSoft   bool    `json:"overSoft"`
	OverHard   bool    `json:"overHard"`
	Percentage float64 `json:"percentage"`
	Warning    string  `json:"warning,omitempty"`
}

// FilesystemUsage mirrors one row of a disk-free report. Sizes stay in the
// tool's human-readable form; they are display values, not inputs to policy.
type FilesystemUsage struct {
	Filesystem string `json:"filesystem"`
	Size       string `json:"size"`
	Used       string `json:"used"`
	Available  string `json:"available"`
	Percentage string `json:"percentage"`
	Mountpoint string `json:"mountpoint"`
}
