package api

import (
	"net/http"
	"strings"

	"github.com/ragos-nas/webadmin/webserver/web"
)

func (h *Handlers) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.Dir.ListGroups()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, groups)
}

func (h *Handlers) GetGroup(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Dir.GroupMembers(r.PathValue("name"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, rec)
}

type createGroupRequest struct {
	Groupname   string `json:"groupname"`
	Description string `json:"description"`
}

func (h *Handlers) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := web.ReadJSON(r, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Groupname == "" {
		web.WriteError(w, http.StatusBadRequest, "groupname is required")
		return
	}

	if err := h.Dir.CreateGroup(req.Groupname, req.Description); err != nil {
		h.auditFailed(r, "create_group", req.Groupname, err)
		writeDomainError(w, err)
		return
	}
	h.audit(r, "create_group", req.Groupname, "")
	web.WriteJSON(w, http.StatusCreated, map[string]string{"groupname": req.Groupname})
}

func (h *Handlers) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	groupname := r.PathValue("name")
	if err := h.Dir.DeleteGroup(groupname); err != nil {
		h.auditFailed(r, "delete_group", groupname, err)
		writeDomainError(w, err)
		return
	}
	h.audit(r, "delete_group", groupname, "")
	w.WriteHeader(http.StatusNoContent)
}

type membersRequest struct {
	Usernames []string `json:"usernames"`
}

func (h *Handlers) AddGroupMembers(w http.ResponseWriter, r *http.Request) {
	groupname := r.PathValue("name")

	var req membersRequest
	if err := web.ReadJSON(r, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Dir.AddGroupMembers(groupname, req.Usernames); err != nil {
		h.auditFailed(r, "add_group_members", groupname, err)
		writeDomainError(w, err)
		return
	}
	h.audit(r, "add_group_members", groupname, strings.Join(req.Usernames, ","))
	web.WriteJSON(w, http.StatusOK, map[string]any{"groupname": groupname, "added": req.Usernames})
}

func (h *Handlers) RemoveGroupMembers(w http.ResponseWriter, r *http.Request) {
	groupname := r.PathValue("name")

	var req membersRequest
	if err := web.ReadJSON(r, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Dir.RemoveGroupMembers(groupname, req.Usernames); err != nil {
		h.auditFailed(r, "remove_group_members", groupname, err)
		writeDomainError(w, err)
		return
	}
	h.audit(r, "remove_group_members", groupname, strings.Join(req.Usernames, ","))
	web.WriteJSON(w, http.StatusOK, map[string]any{"groupname": groupname, "removed": req.Usernames})
}
