package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/ragos-nas/webadmin/quota"
	"github.com/ragos-nas/webadmin/webserver/web"
)

// QuotaView pairs a record with its evaluated status.
type QuotaView struct {
	Record quota.Record `json:"record"`
	Status quota.Status `json:"status"`
}

func (h *Handlers) ListQuotas(w http.ResponseWriter, r *http.Request) {
	records, err := h.Quota.AllQuotas()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	views := make([]QuotaView, 0, len(records))
	for _, rec := range records {
		views = append(views, QuotaView{Record: rec, Status: quota.Evaluate(rec)})
	}
	web.WriteJSON(w, http.StatusOK, views)
}

func (h *Handlers) TopQuotaUsers(w http.ResponseWriter, r *http.Request) {
	n := 10
	if q := r.URL.Query().Get("n"); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil || v < 1 {
			web.WriteError(w, http.StatusBadRequest, "n must be a positive integer")
			return
		}
		n = v
	}

	records, err := h.Quota.TopUsers(n)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, records)
}

func (h *Handlers) GetUserQuota(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("name")

	rec, err := h.Quota.GetUserQuota(username)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, QuotaView{Record: rec, Status: quota.Evaluate(rec)})
}

type setQuotaRequest struct {
	SoftLimitMB int64 `json:"softLimitMB"`
	HardLimitMB int64 `json:"hardLimitMB"`
}

func validateLimits(softMB, hardMB int64) string {
	if softMB <= 0 || hardMB <= 0 {
		return "limits must be positive"
	}
	if softMB > hardMB {
		return "soft limit cannot exceed hard limit"
	}
	return ""
}

func (h *Handlers) SetUserQuota(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("name")

	var req setQuotaRequest
	if err := web.ReadJSON(r, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateLimits(req.SoftLimitMB, req.HardLimitMB); msg != "" {
		web.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.Quota.SetUserQuota(username, req.SoftLimitMB, req.HardLimitMB); err != nil {
		h.auditFailed(r, "set_quota", username, err)
		writeDomainError(w, err)
		return
	}
	h.audit(r, "set_quota", username, fmt.Sprintf("%dMB/%dMB", req.SoftLimitMB, req.HardLimitMB))
	web.WriteJSON(w, http.StatusOK, map[string]any{
		"username":    username,
		"softLimitMB": req.SoftLimitMB,
		"hardLimitMB": req.HardLimitMB,
	})
}

func (h *Handlers) RemoveUserQuota(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("name")

	if err := h.Quota.RemoveUserQuota(username); err != nil {
		h.auditFailed(r, "remove_quota", username, err)
		writeDomainError(w, err)
		return
	}
	h.audit(r, "remove_quota", username, "")
	w.WriteHeader(http.StatusNoContent)
}

type applyPolicyRequest struct {
	PolicyID int64 `json:"policyId"`
}

// ApplyQuotaPolicy sets a user's limits from a named preset.
func (h *Handlers) ApplyQuotaPolicy(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("name")

	var req applyPolicyRequest
	if err := web.ReadJSON(r, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.Store.GetPolicy(r.Context(), req.PolicyID)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	if err := h.Quota.SetUserQuota(username, p.SoftLimitMB, p.HardLimitMB); err != nil {
		h.auditFailed(r, "apply_quota_policy", username, err)
		writeDomainError(w, err)
		return
	}
	h.audit(r, "apply_quota_policy", username, p.Name)
	web.WriteJSON(w, http.StatusOK, map[string]any{"username": username, "policy": p})
}

func (h *Handlers) StorageUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := h.Quota.FilesystemUsage()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, usage)
}
