package monitor

import (
	"time"

	"github.com/mordilloSan/go-logger/logger"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

// SystemMetrics is one snapshot of host health, shaped for the dashboard.
type SystemMetrics struct {
	Hostname   string    `json:"hostname"`
	UptimeSec  uint64    `json:"uptimeSec"`
	CPUPercent float64   `json:"cpuPercent"`
	Load1      float64   `json:"load1"`
	Load5      float64   `json:"load5"`
	Load15     float64   `json:"load15"`
	Memory     MemUsage  `json:"memory"`
	Disk       DiskUsage `json:"disk"`
	Timestamp  time.Time `json:"timestamp"`
}

type MemUsage struct {
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	UsedPercent float64 `json:"usedPercent"`
}

type DiskUsage struct {
	Path        string  `json:"path"`
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	Free        uint64  `json:"free"`
	UsedPercent float64 `json:"usedPercent"`
}

// CollectSystem gathers a best-effort snapshot. Memory is the one source
// treated as essential; anything else that fails is logged and left zero so
// a missing mount or absent load average never blanks the whole dashboard.
func CollectSystem(filesystem string) (SystemMetrics, error) {
	m := SystemMetrics{Timestamp: time.Now().UTC()}

	vm, err := mem.VirtualMemory()
	if err != nil {
		return m, err
	}
	m.Memory = MemUsage{Total: vm.Total, Used: vm.Used, UsedPercent: vm.UsedPercent}

	if info, err := host.Info(); err == nil {
		m.Hostname = info.Hostname
		m.UptimeSec = info.Uptime
	} else {
		logger.Warnf("host info unavailable: %v", err)
	}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		m.CPUPercent = percents[0]
	} else if err != nil {
		logger.Warnf("cpu usage unavailable: %v", err)
	}

	if avg, err := load.Avg(); err == nil {
		m.Load1, m.Load5, m.Load15 = avg.Load1, avg.Load5, avg.Load15
	} else {
		logger.Warnf("load average unavailable: %v", err)
	}

	if du, err := disk.Usage(filesystem); err == nil {
		m.Disk = DiskUsage{Path: filesystem, Total: du.Total, Used: du.Used, Free: du.Free, UsedPercent: du.UsedPercent}
	} else {
		logger.Warnf("disk usage for %s unavailable: %v", filesystem, err)
	}

	return m, nil
}
