package quota

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/mordilloSan/go-logger/logger"

	"github.com/ragos-nas/webadmin/common/command"
)

const (
	readTimeout  = 10 * time.Second
	writeTimeout = 30 * time.Second

	// df is resolved from PATH; the quota tools get configured absolute paths
	// because they commonly live outside the service's PATH.
	dfCmd = "df"
)

// Engine wraps the quota command line tools for one filesystem.
type Engine struct {
	runner     command.Runner
	filesystem string
	setquota   string
	quota      string
	repquota   string
}

func NewEngine(runner command.Runner, filesystem, setquotaPath, quotaPath, repquotaPath string) *Engine {
	return &Engine{
		runner:     runner,
		filesystem: filesystem,
		setquota:   setquotaPath,
		quota:      quotaPath,
		repquota:   repquotaPath,
	}
}

// Filesystem returns the mount point this engine manages.
func (e *Engine) Filesystem() string { return e.filesystem }

func (e *Engine) setQuota(username string, softKB, hardKB int64) error {
	args := []string{
		"-u", username,
		strconv.FormatInt(softKB, 10), strconv.FormatInt(hardKB, 10),
		"0", "0", // inode limits unused
		e.filesystem,
	}
	res, err := e.runner.Run(e.setquota, args, command.Options{Timeout: writeTimeout})
	if err != nil {
		return fmt.Errorf("set quota for %s: %w", username, err)
	}
	if res.Failed() {
		return &command.ToolError{Op: "set quota for " + username, Stderr: res.Stderr}
	}
	return nil
}

// SetUserQuota sets a user's block limits. The caller validates
// 0 < softMB <= hardMB before getting here; the tool accepts anything.
func (e *Engine) SetUserQuota(username string, softMB, hardMB int64) error {
	if err := e.setQuota(username, mbToKB(softMB), mbToKB(hardMB)); err != nil {
		return err
	}
	logger.Infof("Set quota for %s: %dMB/%dMB", username, softMB, hardMB)
	return nil
}

// RemoveUserQuota clears a user's limits by setting them to zero.
func (e *Engine) RemoveUserQuota(username string) error {
	if err := e.setQuota(username, 0, 0); err != nil {
		return err
	}
	logger.Infof("Removed quota for %s", username)
	return nil
}

// GetUserQuota reports a user's quota. A user without a quota entry yields
// the zero-value record, never an error; quota(1) also exits non-zero for
// over-quota users while still printing the row, so the exit code is ignored
// and only the output matters.
func (e *Engine) GetUserQuota(username string) (Record, error) {
	res, err := e.runner.Run(e.quota, []string{"-u", username, "-w", "-p"}, command.Options{Timeout: readTimeout})
	if err != nil {
		return Record{}, fmt.Errorf("get quota for %s: %w", username, err)
	}

	rec := ParseQuotaShow(res.Stdout, e.filesystem)
	rec.Username = username
	rec.Filesystem = e.filesystem
	return rec, nil
}

// AllQuotas reports every configured user quota on the filesystem.
func (e *Engine) AllQuotas() ([]Record, error) {
	res, err := e.runner.Run(e.repquota, []string{"-u", e.filesystem}, command.Options{Timeout: readTimeout})
	if err != nil {
		return nil, fmt.Errorf("quota report: %w", err)
	}

	records := ParseQuotaReport(res.Stdout)
	for i := range records {
		records[i].Filesystem = e.filesystem
	}
	return records, nil
}

// TopUsers returns the n heaviest consumers, by used space descending.
func (e *Engine) TopUsers(n int) ([]Record, error) {
	records, err := e.AllQuotas()
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool { return records[i].UsedMB > records[j].UsedMB })
	if n >= 0 && len(records) > n {
		records = records[:n]
	}
	return records, nil
}

// FilesystemUsage reports overall usage of the quota filesystem.
func (e *Engine) FilesystemUsage() (FilesystemUsage, error) {
	res, err := e.runner.Run(dfCmd, []string{"-h", e.filesystem}, command.Options{Timeout: readTimeout})
	if err != nil {
		return FilesystemUsage{}, fmt.Errorf("filesystem usage: %w", err)
	}
	if res.Failed() {
		return FilesystemUsage{}, &command.ToolError{Op: "filesystem usage", Stderr: res.Stderr}
	}
	return ParseFilesystemUsage(res.Stdout, e.filesystem)
}
