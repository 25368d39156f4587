package api

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/mordilloSan/go-logger/logger"

	"github.com/ragos-nas/webadmin/common/command"
	"github.com/ragos-nas/webadmin/common/session"
	"github.com/ragos-nas/webadmin/directory"
	"github.com/ragos-nas/webadmin/monitor"
	"github.com/ragos-nas/webadmin/quota"
	"github.com/ragos-nas/webadmin/store"
	"github.com/ragos-nas/webadmin/webserver/web"
)

// DirectoryService is the slice of the directory adapter the API uses.
type DirectoryService interface {
	ListUsers() ([]string, error)
	GetUser(username string) (directory.UserRecord, error)
	CreateUser(p directory.CreateUserParams) error
	DeleteUser(username string) error
	EnableUser(username string) error
	DisableUser(username string) error
	SetPassword(username, newPassword string, mustChange bool) error
	ListGroups() ([]string, error)
	GroupMembers(groupname string) (directory.GroupRecord, error)
	CreateGroup(groupname, description string) error
	DeleteGroup(groupname string) error
	AddGroupMembers(groupname string, usernames []string) error
	RemoveGroupMembers(groupname string, usernames []string) error
	DomainInfo() (map[string]string, error)
	PasswordSettings() (map[string]string, error)
	TestConnection() error
}

// QuotaEngine is the slice of the quota engine the API uses.
type QuotaEngine interface {
	Filesystem() string
	SetUserQuota(username string, softMB, hardMB int64) error
	RemoveUserQuota(username string) error
	GetUserQuota(username string) (quota.Record, error)
	AllQuotas() ([]quota.Record, error)
	TopUsers(n int) ([]quota.Record, error)
	FilesystemUsage() (quota.FilesystemUsage, error)
}

// ServiceWatcher reports watched systemd unit state.
type ServiceWatcher interface {
	ServiceStatuses(ctx context.Context) ([]monitor.ServiceStatus, error)
}

// Handlers bundles the API dependencies (no global state).
type Handlers struct {
	Dir     DirectoryService
	Quota   QuotaEngine
	Store   *store.Store
	SM      *session.Manager
	Runner  command.Runner
	Systemd ServiceWatcher // nil when the system bus is unavailable
}

// writeDomainError maps adapter errors onto HTTP statuses: guarded
// operations to 403, caller mistakes to 400, tool refusals to 502 with the
// tool's own diagnostic, infrastructure failures to 500.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, directory.ErrProtectedUser),
		errors.Is(err, directory.ErrProtectedGroup):
		web.WriteError(w, http.StatusForbidden, err.Error())
		return
	case errors.Is(err, directory.ErrNoMembers):
		web.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var toolErr *command.ToolError
	if errors.As(err, &toolErr) {
		web.WriteError(w, http.StatusBadGateway, toolErr.Error())
		return
	}
	var parseErr *quota.ParseError
	if errors.As(err, &parseErr) {
		logger.Errorf("[api] %v", err)
		web.WriteError(w, http.StatusBadGateway, "unexpected tool output")
		return
	}

	logger.Errorf("[api] %v", err)
	web.WriteError(w, http.StatusInternalServerError, "internal server error")
}

func (h *Handlers) audit(r *http.Request, action, target, details string) {
	h.auditStatus(r, action, target, details, store.AuditSuccess)
}

// auditFailed records a mutation that was refused or errored out; the trail
// carries failed outcomes too.
func (h *Handlers) auditFailed(r *http.Request, action, target string, err error) {
	h.auditStatus(r, action, target, err.Error(), store.AuditFailed)
}

func (h *Handlers) auditStatus(r *http.Request, action, target, details, status string) {
	if h.Store == nil {
		return
	}
	username := ""
	if s := session.FromContext(r.Context()); s != nil {
		username = s.User.Username
	}
	entry := store.AuditEntry{
		Username:  username,
		Action:    action,
		Target:    target,
		Details:   details,
		IPAddress: clientIP(r),
		Status:    status,
	}
	if err := h.Store.AppendAudit(r.Context(), entry); err != nil {
		logger.Warnf("audit append failed (%s on %s): %v", action, target, err)
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
