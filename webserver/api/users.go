package api

import (
	"fmt"
	"net/http"

	"github.com/mordilloSan/go-logger/logger"

	"github.com/ragos-nas/webadmin/authn"
	"github.com/ragos-nas/webadmin/directory"
	"github.com/ragos-nas/webadmin/quota"
	"github.com/ragos-nas/webadmin/webserver/web"
)

// UserSummary is one row of the user list: directory name plus whatever
// quota the storage layer has for it.
type UserSummary struct {
	Username string        `json:"username"`
	Quota    *quota.Record `json:"quota,omitempty"`
}

// UserDetail is the full picture for one user.
type UserDetail struct {
	directory.UserRecord
	Quota       quota.Record `json:"quota"`
	QuotaStatus quota.Status `json:"quotaStatus"`
}

// ListUsers returns every user with quota enrichment. One quota report
// serves the whole list; a report failure degrades to names only.
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	names, err := h.Dir.ListUsers()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	byUser := map[string]quota.Record{}
	if records, err := h.Quota.AllQuotas(); err == nil {
		for _, rec := range records {
			byUser[rec.Username] = rec
		}
	} else {
		logger.Warnf("quota report unavailable for user list: %v", err)
	}

	users := make([]UserSummary, 0, len(names))
	for _, name := range names {
		u := UserSummary{Username: name}
		if rec, ok := byUser[name]; ok {
			recCopy := rec
			u.Quota = &recCopy
		}
		users = append(users, u)
	}
	web.WriteJSON(w, http.StatusOK, users)
}

func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("name")

	user, err := h.Dir.GetUser(username)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	rec, err := h.Quota.GetUserQuota(username)
	if err != nil {
		logger.Warnf("quota lookup failed for %s: %v", username, err)
		rec = quota.Record{Username: username}
	}

	web.WriteJSON(w, http.StatusOK, UserDetail{
		UserRecord:  user,
		Quota:       rec,
		QuotaStatus: quota.Evaluate(rec),
	})
}

func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	// New users must rotate the admin-set initial password; the caller has
	// to opt out explicitly.
	p := directory.CreateUserParams{MustChangePassword: true}
	if err := web.ReadJSON(r, &p); err != nil {
		web.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if p.Username == "" {
		web.WriteError(w, http.StatusBadRequest, "username is required")
		return
	}
	if ok, reason := authn.ValidatePassword(p.Password); !ok {
		web.WriteError(w, http.StatusBadRequest, reason)
		return
	}

	if err := h.Dir.CreateUser(p); err != nil {
		h.auditFailed(r, "create_user", p.Username, err)
		writeDomainError(w, err)
		return
	}
	h.audit(r, "create_user", p.Username, "")
	web.WriteJSON(w, http.StatusCreated, map[string]string{"username": p.Username})
}

func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("name")

	if err := h.Dir.DeleteUser(username); err != nil {
		h.auditFailed(r, "delete_user", username, err)
		writeDomainError(w, err)
		return
	}
	// Leftover limits would silently apply to a future user with the same
	// uid; clear them, but deletion already succeeded so only log failures.
	if err := h.Quota.RemoveUserQuota(username); err != nil {
		logger.Warnf("could not clear quota for deleted user %s: %v", username, err)
	}
	h.audit(r, "delete_user", username, "")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) EnableUser(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("name")
	if err := h.Dir.EnableUser(username); err != nil {
		h.auditFailed(r, "enable_user", username, err)
		writeDomainError(w, err)
		return
	}
	h.audit(r, "enable_user", username, "")
	web.WriteJSON(w, http.StatusOK, map[string]string{"username": username, "state": "enabled"})
}

func (h *Handlers) DisableUser(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("name")
	if err := h.Dir.DisableUser(username); err != nil {
		h.auditFailed(r, "disable_user", username, err)
		writeDomainError(w, err)
		return
	}
	h.audit(r, "disable_user", username, "")
	web.WriteJSON(w, http.StatusOK, map[string]string{"username": username, "state": "disabled"})
}

type setPasswordRequest struct {
	Password   string `json:"password"`
	MustChange bool   `json:"mustChangePassword"`
}

func (h *Handlers) SetPassword(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("name")

	var req setPasswordRequest
	if err := web.ReadJSON(r, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if ok, reason := authn.ValidatePassword(req.Password); !ok {
		web.WriteError(w, http.StatusBadRequest, reason)
		return
	}

	if err := h.Dir.SetPassword(username, req.Password, req.MustChange); err != nil {
		h.auditFailed(r, "set_password", username, err)
		writeDomainError(w, err)
		return
	}
	h.audit(r, "set_password", username, fmt.Sprintf("must_change=%v", req.MustChange))
	web.WriteJSON(w, http.StatusOK, map[string]string{"username": username})
}
