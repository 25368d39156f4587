package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ragos-nas/webadmin/monitor"
	"github.com/ragos-nas/webadmin/webserver/web"
)

func (h *Handlers) SystemMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := monitor.CollectSystem(h.Quota.Filesystem())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, m)
}

func (h *Handlers) ServiceStatuses(w http.ResponseWriter, r *http.Request) {
	if h.Systemd == nil {
		web.WriteError(w, http.StatusServiceUnavailable, "system bus unavailable")
		return
	}
	statuses, err := h.Systemd.ServiceStatuses(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, statuses)
}

func (h *Handlers) SMBSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := monitor.SMBSessions(h.Runner)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, sessions)
}

// webSessionView is what the UI sees of a login session. The token stays
// server-side.
type webSessionView struct {
	Username   string    `json:"username"`
	IsAdmin    bool      `json:"isAdmin"`
	CreatedAt  time.Time `json:"createdAt"`
	LastAccess time.Time `json:"lastAccess"`
}

func (h *Handlers) WebSessions(w http.ResponseWriter, r *http.Request) {
	active, err := h.SM.ActiveSessions()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	views := make([]webSessionView, 0, len(active))
	for _, s := range active {
		views = append(views, webSessionView{
			Username:   s.User.Username,
			IsAdmin:    s.IsAdmin,
			CreatedAt:  s.Timing.CreatedAt,
			LastAccess: s.Timing.LastAccess,
		})
	}
	web.WriteJSON(w, http.StatusOK, views)
}

func (h *Handlers) AuditLog(w http.ResponseWriter, r *http.Request) {
	limit, offset := 50, 0
	if q := r.URL.Query().Get("limit"); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil || v < 1 || v > 500 {
			web.WriteError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = v
	}
	if q := r.URL.Query().Get("offset"); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil || v < 0 {
			web.WriteError(w, http.StatusBadRequest, "offset must not be negative")
			return
		}
		offset = v
	}

	entries, total, err := h.Store.ListAudit(r.Context(), limit, offset)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}
