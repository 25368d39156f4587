package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/mordilloSan/go-logger/logger"

	"github.com/ragos-nas/webadmin/store"
	"github.com/ragos-nas/webadmin/webserver/web"
)

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrPolicyNotFound) {
		web.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	logger.Errorf("[api] %v", err)
	web.WriteError(w, http.StatusInternalServerError, "internal server error")
}

func (h *Handlers) ListPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := h.Store.ListPolicies(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, policies)
}

func (h *Handlers) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	var p store.QuotaPolicy
	if err := web.ReadJSON(r, &p); err != nil {
		web.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if p.Name == "" {
		web.WriteError(w, http.StatusBadRequest, "name is required")
		return
	}
	if msg := validateLimits(p.SoftLimitMB, p.HardLimitMB); msg != "" {
		web.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	id, err := h.Store.CreatePolicy(r.Context(), p)
	if err != nil {
		h.auditFailed(r, "create_policy", p.Name, err)
		writeStoreError(w, err)
		return
	}
	p.ID = id
	h.audit(r, "create_policy", p.Name, "")
	web.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handlers) DeletePolicy(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		web.WriteError(w, http.StatusBadRequest, "invalid policy id")
		return
	}

	if err := h.Store.DeletePolicy(r.Context(), id); err != nil {
		h.auditFailed(r, "delete_policy", strconv.FormatInt(id, 10), err)
		writeStoreError(w, err)
		return
	}
	h.audit(r, "delete_policy", strconv.FormatInt(id, 10), "")
	w.WriteHeader(http.StatusNoContent)
}
