package auth

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/mordilloSan/go-logger/logger"

	"github.com/ragos-nas/webadmin/authn"
	"github.com/ragos-nas/webadmin/common/command"
	"github.com/ragos-nas/webadmin/common/session"
	"github.com/ragos-nas/webadmin/store"
	"github.com/ragos-nas/webadmin/webserver/web"
)

// Authenticator is the slice of the authentication engine the handlers use.
type Authenticator interface {
	Authenticate(username, password, ip string) error
	VerifyAdmin(username string) bool
}

// Auditor records administrative actions. Audit failures never abort the
// action being audited.
type Auditor interface {
	AppendAudit(ctx context.Context, e store.AuditEntry) error
}

// Handlers bundles dependencies (no global state).
type Handlers struct {
	SM    *session.Manager
	Auth  Authenticator
	Audit Auditor
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := web.ReadJSON(r, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, "invalid request")
		return
	}

	ip := clientIP(r)
	if err := h.Auth.Authenticate(req.Username, req.Password, ip); err != nil {
		switch {
		case errors.Is(err, authn.ErrTooManyAttempts):
			web.WriteError(w, http.StatusTooManyRequests, err.Error())
		case errors.Is(err, authn.ErrAccountDisabled):
			web.WriteError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, authn.ErrInvalidCredentials):
			web.WriteError(w, http.StatusUnauthorized, "authentication failed")
		default:
			var execErr *command.ExecError
			if errors.As(err, &execErr) {
				logger.Errorf("[auth.login] authentication backend unavailable: %v", err)
				web.WriteError(w, http.StatusInternalServerError, "authentication service unavailable")
				return
			}
			logger.Errorf("[auth.login] unexpected error for user %s: %v", req.Username, err)
			web.WriteError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	isAdmin := h.Auth.VerifyAdmin(req.Username)

	sess, err := h.SM.CreateSession(session.User{Username: req.Username}, isAdmin)
	if err != nil {
		logger.Errorf("[auth.login] failed to create session: %v", err)
		web.WriteError(w, http.StatusInternalServerError, "session creation failed")
		return
	}
	h.SM.WriteCookie(w, sess.SessionID)

	h.audit(r, req.Username, "login", ip)

	web.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    sess.User,
		"isAdmin": isAdmin,
	})
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	ck, err := r.Cookie(h.SM.CookieName())
	if err != nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	sess := session.FromContext(r.Context())
	h.SM.DeleteCookie(w)
	if err := h.SM.DeleteSession(ck.Value, session.ReasonLogout); err != nil {
		logger.ErrorKV("session delete failed", "error", err)
	}
	if sess != nil {
		h.audit(r, sess.User.Username, "logout", clientIP(r))
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		web.WriteError(w, http.StatusUnauthorized, "no active session")
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{
		"user":    sess.User,
		"isAdmin": sess.IsAdmin,
	})
}

func (h *Handlers) audit(r *http.Request, username, action, ip string) {
	if h.Audit == nil {
		return
	}
	entry := store.AuditEntry{
		Username:  username,
		Action:    action,
		IPAddress: ip,
		Status:    store.AuditSuccess,
	}
	if err := h.Audit.AppendAudit(r.Context(), entry); err != nil {
		logger.Warnf("audit append failed (%s by %s): %v", action, username, err)
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
