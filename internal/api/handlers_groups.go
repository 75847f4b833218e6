package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/paperdesk/paperdesk/internal/api/respond"
	"github.com/paperdesk/paperdesk/internal/auth"
	"github.com/paperdesk/paperdesk/internal/services"
)

// GroupHandler is the HTTP transport for shared collections.
type GroupHandler struct {
	svc        *services.GroupService
	authorizer auth.Authorizer
}

func NewGroupHandler(svc *services.GroupService, authorizer auth.Authorizer) *GroupHandler {
	return &GroupHandler{svc: svc, authorizer: authorizer}
}

func (h *GroupHandler) requireViewer(r *http.Request) (string, error) {
	apiKey, err := auth.ExtractAPIKey(r)
	if err != nil {
		return "", err
	}
	info, err := h.authorizer.Authorize(r.Context(), apiKey)
	if err != nil {
		return "", err
	}
	return info.UserID, nil
}

// ListGroups GET /api/groups
func (h *GroupHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	userID, err := h.requireViewer(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	groups, err := h.svc.GroupsOf(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"groups": groups})
}

// CreateGroup POST /api/groups
func (h *GroupHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	userID, err := h.requireViewer(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	g, err := h.svc.Create(r.Context(), req.Name, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, g)
}

// JoinGroup POST /api/groups/{groupId}/join
func (h *GroupHandler) JoinGroup(w http.ResponseWriter, r *http.Request) {
	userID, err := h.requireViewer(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := h.svc.Join(r.Context(), mux.Vars(r)["groupId"], userID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LeaveGroup POST /api/groups/{groupId}/leave
func (h *GroupHandler) LeaveGroup(w http.ResponseWriter, r *http.Request) {
	userID, err := h.requireViewer(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := h.svc.Leave(r.Context(), mux.Vars(r)["groupId"], userID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddPaper POST /api/groups/{groupId}/papers/{paperId}
func (h *GroupHandler) AddPaper(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireViewer(r); err != nil {
		writeServiceError(w, err)
		return
	}
	vars := mux.Vars(r)
	if err := h.svc.AddPaper(r.Context(), vars["groupId"], vars["paperId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemovePaper DELETE /api/groups/{groupId}/papers/{paperId}
func (h *GroupHandler) RemovePaper(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireViewer(r); err != nil {
		writeServiceError(w, err)
		return
	}
	vars := mux.Vars(r)
	if err := h.svc.RemovePaper(r.Context(), vars["groupId"], vars["paperId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
