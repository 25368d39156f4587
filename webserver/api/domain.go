package api

import (
	"net/http"

	"github.com/ragos-nas/webadmin/webserver/web"
)

func (h *Handlers) DomainInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.Dir.DomainInfo()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, info)
}

func (h *Handlers) PasswordSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Dir.PasswordSettings()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, settings)
}

func (h *Handlers) TestConnection(w http.ResponseWriter, r *http.Request) {
	if err := h.Dir.TestConnection(); err != nil {
		writeDomainError(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
