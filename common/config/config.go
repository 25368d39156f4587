package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/ini.v1"
)

// Environment modes
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Build info - set at build time via ldflags:
// go build -ldflags "-X github.com/ragos-nas/webadmin/common/config.Version=v1.0.0"
var (
	Version   = "untracked"
	CommitSHA = ""
	BuildTime = ""
)

// Config is the runtime configuration. Defaults match a stock RAGOS file
// server; every field can be overridden from the ini file or environment.
type Config struct {
	// Directory service
	Domain string
	Realm  string
	Server string

	// Quota filesystem
	Filesystem string

	// External tool paths
	SambaTool   string
	SetquotaCmd string
	QuotaCmd    string
	RepquotaCmd string
	KinitCmd    string
	KdestroyCmd string

	// Store
	DatabasePath string

	// Login throttling
	MaxLoginAttempts int
	LockoutWindow    time.Duration

	// Quota defaults (MB), used to seed the built-in policy preset
	DefaultSoftLimitMB int
	DefaultHardLimitMB int
}

func Defaults() Config {
	return Config{
		Domain:             "RAGOS.INTRA",
		Realm:              "RAGOS.INTRA",
		Server:             "10.0.3.1",
		Filesystem:         "/mnt/ragostorage",
		SambaTool:          "/usr/bin/samba-tool",
		SetquotaCmd:        "/usr/bin/setquota",
		QuotaCmd:           "/usr/bin/quota",
		RepquotaCmd:        "/usr/bin/repquota",
		KinitCmd:           "/usr/bin/kinit",
		KdestroyCmd:        "/usr/bin/kdestroy",
		DatabasePath:       "/var/lib/ragos-admin/ragos_web.db",
		MaxLoginAttempts:   5,
		LockoutWindow:      5 * time.Minute,
		DefaultSoftLimitMB: 5120,
		DefaultHardLimitMB: 10240,
	}
}

// Load reads the ini file at path (skipped when path is empty or the file is
// missing) and then applies environment overrides on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			f, err := ini.Load(path)
			if err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
			applyINI(&cfg, f)
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if cfg.MaxLoginAttempts <= 0 {
		return cfg, fmt.Errorf("max_login_attempts must be positive, got %d", cfg.MaxLoginAttempts)
	}
	if cfg.LockoutWindow <= 0 {
		return cfg, fmt.Errorf("lockout_window must be positive, got %v", cfg.LockoutWindow)
	}
	return cfg, nil
}

func applyINI(cfg *Config, f *ini.File) {
	ad := f.Section("ad")
	setStr(&cfg.Domain, ad.Key("domain"))
	setStr(&cfg.Realm, ad.Key("realm"))
	setStr(&cfg.Server, ad.Key("server"))

	st := f.Section("storage")
	setStr(&cfg.Filesystem, st.Key("filesystem"))
	setStr(&cfg.DatabasePath, st.Key("database_path"))

	tools := f.Section("tools")
	setStr(&cfg.SambaTool, tools.Key("samba_tool"))
	setStr(&cfg.SetquotaCmd, tools.Key("setquota"))
	setStr(&cfg.QuotaCmd, tools.Key("quota"))
	setStr(&cfg.RepquotaCmd, tools.Key("repquota"))
	setStr(&cfg.KinitCmd, tools.Key("kinit"))
	setStr(&cfg.KdestroyCmd, tools.Key("kdestroy"))

	sec := f.Section("security")
	if v, err := sec.Key("max_login_attempts").Int(); err == nil && v > 0 {
		cfg.MaxLoginAttempts = v
	}
	if v, err := sec.Key("lockout_window_seconds").Int(); err == nil && v > 0 {
		cfg.LockoutWindow = time.Duration(v) * time.Second
	}

	q := f.Section("quota")
	if v, err := q.Key("default_soft_limit_mb").Int(); err == nil && v > 0 {
		cfg.DefaultSoftLimitMB = v
	}
	if v, err := q.Key("default_hard_limit_mb").Int(); err == nil && v > 0 {
		cfg.DefaultHardLimitMB = v
	}
}

func applyEnv(cfg *Config) {
	setEnv(&cfg.Domain, "AD_DOMAIN")
	setEnv(&cfg.Realm, "AD_REALM")
	setEnv(&cfg.Server, "AD_SERVER")
	setEnv(&cfg.Filesystem, "QUOTA_FILESYSTEM")
	setEnv(&cfg.DatabasePath, "RAGOS_DB_PATH")
	if v := os.Getenv("MAX_LOGIN_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxLoginAttempts = n
		}
	}
}

func setStr(dst *string, k *ini.Key) {
	if v := k.String(); v != "" {
		*dst = v
	}
}

func setEnv(dst *string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}
