package api

import (
	"net/http"

	"github.com/ragos-nas/webadmin/common/session"
)

// RegisterAPIRoutes wires the API under /api. Reads need a session; anything
// that changes the domain, storage or policy state needs an admin session.
func RegisterAPIRoutes(mux *http.ServeMux, sm *session.Manager, h *Handlers) {
	get := func(pattern string, fn http.HandlerFunc) {
		mux.Handle("GET "+pattern, sm.RequireSession(fn))
	}
	admin := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, sm.RequireAdmin(fn))
	}

	// users
	get("/api/users", h.ListUsers)
	get("/api/users/{name}", h.GetUser)
	admin("POST /api/users", h.CreateUser)
	admin("DELETE /api/users/{name}", h.DeleteUser)
	admin("POST /api/users/{name}/enable", h.EnableUser)
	admin("POST /api/users/{name}/disable", h.DisableUser)
	admin("PUT /api/users/{name}/password", h.SetPassword)

	// groups
	get("/api/groups", h.ListGroups)
	get("/api/groups/{name}", h.GetGroup)
	admin("POST /api/groups", h.CreateGroup)
	admin("DELETE /api/groups/{name}", h.DeleteGroup)
	admin("POST /api/groups/{name}/members", h.AddGroupMembers)
	admin("DELETE /api/groups/{name}/members", h.RemoveGroupMembers)

	// quotas
	get("/api/quotas", h.ListQuotas)
	get("/api/quotas/top", h.TopQuotaUsers)
	get("/api/quotas/{name}", h.GetUserQuota)
	admin("PUT /api/quotas/{name}", h.SetUserQuota)
	admin("DELETE /api/quotas/{name}", h.RemoveUserQuota)
	admin("POST /api/quotas/{name}/policy", h.ApplyQuotaPolicy)

	// quota policy presets
	get("/api/policies", h.ListPolicies)
	admin("POST /api/policies", h.CreatePolicy)
	admin("DELETE /api/policies/{id}", h.DeletePolicy)

	// monitoring
	get("/api/system", h.SystemMetrics)
	get("/api/services", h.ServiceStatuses)
	get("/api/smb/sessions", h.SMBSessions)
	get("/api/storage", h.StorageUsage)
	admin("GET /api/sessions", h.WebSessions)
	admin("GET /api/audit", h.AuditLog)

	// domain
	get("/api/domain", h.DomainInfo)
	get("/api/domain/password-settings", h.PasswordSettings)
	get("/api/domain/test", h.TestConnection)
}
