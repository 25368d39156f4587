package directory

// UserRecord is built fresh from `user show` output on every query; the
// directory service is the source of truth and nothing is cached.
type UserRecord struct {
	Username   string            `json:"username"`
	Attributes map[string]string `json:"attributes"`
	Groups     []string          `json:"groups"`
	Enabled    bool              `json:"enabled"`
}

// GroupRecord describes a directory group and its direct members.
type GroupRecord struct {
	Groupname   string   `json:"groupname"`
	MemberCount int      `json:"memberCount"`
	Members     []string `json:"members"`
}

// CreateUserParams carries the fields for creating a new directory user.
type CreateUserParams struct {
	Username           string `json:"username"`
	Password           string `json:"password"`
	GivenName          string `json:"givenName,omitempty"`
	Surname            string `json:"surname,omitempty"`
	Mail               string `json:"mail,omitempty"`
	MustChangePassword bool   `json:"mustChangePassword"`
}
