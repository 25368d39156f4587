package auth

import (
	"net/http"

	"github.com/ragos-nas/webadmin/common/config"
	"github.com/ragos-nas/webadmin/common/session"
	"github.com/ragos-nas/webadmin/webserver/web"
)

// RegisterAuthRoutes wires public and private auth endpoints under /auth.
func RegisterAuthRoutes(mux *http.ServeMux, sm *session.Manager, authsvc Authenticator, audit Auditor) {
	h := &Handlers{SM: sm, Auth: authsvc, Audit: audit}

	// public
	mux.HandleFunc("POST /auth/login", h.Login)
	mux.HandleFunc("GET /api/version", h.Version)

	// private (wrapped with session middleware)
	mux.Handle("POST /auth/logout", sm.RequireSession(http.HandlerFunc(h.Logout)))
	mux.Handle("GET /auth/me", sm.RequireSession(http.HandlerFunc(h.Me)))
}

// Version reports the build identity. Public: the login page shows it.
func (h *Handlers) Version(w http.ResponseWriter, r *http.Request) {
	web.WriteJSON(w, http.StatusOK, map[string]string{
		"version":   config.Version,
		"commit":    config.CommitSHA,
		"buildTime": config.BuildTime,
	})
}
