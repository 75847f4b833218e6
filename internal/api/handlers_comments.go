package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/paperdesk/paperdesk/internal/api/respond"
	"github.com/paperdesk/paperdesk/internal/auth"
	"github.com/paperdesk/paperdesk/internal/model"
	"github.com/paperdesk/paperdesk/internal/services"
)

// CommentHandler is the HTTP transport for comment threads.
type CommentHandler struct {
	svc        *services.CommentService
	authorizer auth.Authorizer
}

func NewCommentHandler(svc *services.CommentService, authorizer auth.Authorizer) *CommentHandler {
	return &CommentHandler{svc: svc, authorizer: authorizer}
}

func (h *CommentHandler) viewer(r *http.Request) (*string, error) {
	info, err := auth.ResolveOptional(r, h.authorizer)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, nil
	}
	return &info.UserID, nil
}

type commentRequest struct {
	Text            string           `json:"text"`
	HighlightedText *string          `json:"highlighted_text,omitempty"`
	Position        json.RawMessage  `json:"position,omitempty"`
	IsGeneral       bool             `json:"is_general"`
	Visibility      model.Visibility `json:"visibility"`
}

// ListComments GET /api/papers/{paperId}/comments
func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	viewerID, err := h.viewer(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	groupID := r.URL.Query().Get("group")
	lst, err := h.svc.ListForPaper(r.Context(), mux.Vars(r)["paperId"], viewerID, groupID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"comments": lst})
}

// CreateComment POST /api/papers/{paperId}/comments
func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	viewerID, err := h.viewer(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	c := &model.Comment{
		PaperID:         mux.Vars(r)["paperId"],
		Text:            req.Text,
		HighlightedText: req.HighlightedText,
		Position:        req.Position,
		IsGeneral:       req.IsGeneral,
		Visibility:      req.Visibility,
	}
	out, err := h.svc.Create(r.Context(), c, viewerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// UpdateComment PATCH /api/comments/{commentId}
func (h *CommentHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text       string           `json:"text"`
		Visibility model.Visibility `json:"visibility"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	viewerID, err := h.viewer(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out, err := h.svc.Update(r.Context(), mux.Vars(r)["commentId"], req.Text, req.Visibility, viewerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// DeleteComment DELETE /api/comments/{commentId}
func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	viewerID, err := h.viewer(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := h.svc.Delete(r.Context(), mux.Vars(r)["commentId"], viewerID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddReply POST /api/comments/{commentId}/replies
func (h *CommentHandler) AddReply(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	viewerID, err := h.viewer(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out, err := h.svc.AddReply(r.Context(), mux.Vars(r)["commentId"], req.Text, viewerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}
