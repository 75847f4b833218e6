package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/paperdesk/paperdesk/internal/api/respond"
	"github.com/paperdesk/paperdesk/internal/auth"
	"github.com/paperdesk/paperdesk/internal/model"
	"github.com/paperdesk/paperdesk/internal/services"
)

// PaperHandler is the HTTP transport for the listing pipeline.
type PaperHandler struct {
	svc        *services.PaperService
	authorizer auth.Authorizer
}

func NewPaperHandler(svc *services.PaperService, authorizer auth.Authorizer) *PaperHandler {
	return &PaperHandler{svc: svc, authorizer: authorizer}
}

// viewer resolves the optional caller identity; anonymous is allowed.
func (h *PaperHandler) viewer(r *http.Request) (*string, error) {
	info, err := auth.ResolveOptional(r, h.authorizer)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, nil
	}
	return &info.UserID, nil
}

// requireViewer resolves the caller identity; anonymous is rejected.
func (h *PaperHandler) requireViewer(r *http.Request) (string, error) {
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

func parseListRequest(r *http.Request) (model.ListPapersRequest, error) {
	q := r.URL.Query()
	req := model.ListPapersRequest{
		Query:      q.Get("q"),
		Author:     q.Get("author"),
		Sort:       q.Get("sort"),
		Age:        q.Get("age"),
		Categories: q.Get("categories"),
		GroupID:    q.Get("group"),
	}
	if raw := q.Get("page_num"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return req, errors.Wrapf(model.ErrValidation, "page_num must be an integer, got %q", raw)
		}
		req.PageNum = n
	}
	if raw := q.Get("library"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return req, errors.Wrapf(model.ErrValidation, "library must be a boolean, got %q", raw)
		}
		req.Library = b
	}
	return req, nil
}

// ListPapers GET /api/papers
func (h *PaperHandler) ListPapers(w http.ResponseWriter, r *http.Request) {
	req, err := parseListRequest(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	viewerID, err := h.viewer(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	res, err := h.svc.List(r.Context(), req, viewerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, shapeList(res))
}

// ListLibrary GET /api/library
func (h *PaperHandler) ListLibrary(w http.ResponseWriter, r *http.Request) {
	req, err := parseListRequest(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	req.Library = true
	viewerID, err := h.viewer(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	res, err := h.svc.List(r.Context(), req, viewerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, shapeList(res))
}

// GetPaper GET /api/papers/{paperId}
func (h *PaperHandler) GetPaper(w http.ResponseWriter, r *http.Request) {
	viewerID, err := h.viewer(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	ep, err := h.svc.Get(r.Context(), mux.Vars(r)["paperId"], viewerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, shapePaper(*ep))
}

// PaperGroups GET /api/papers/{paperId}/groups
func (h *PaperHandler) PaperGroups(w http.ResponseWriter, r *http.Request) {
	userID, err := h.requireViewer(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	ep, err := h.svc.Get(r.Context(), mux.Vars(r)["paperId"], &userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"groups": ep.Enrichment.Groups})
}

// SaveToLibrary POST /api/library/{paperId}/save
func (h *PaperHandler) SaveToLibrary(w http.ResponseWriter, r *http.Request) {
	userID, err := h.requireViewer(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := h.svc.SaveToLibrary(r.Context(), userID, mux.Vars(r)["paperId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveFromLibrary POST /api/library/{paperId}/remove
func (h *PaperHandler) RemoveFromLibrary(w http.ResponseWriter, r *http.Request) {
	userID, err := h.requireViewer(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := h.svc.RemoveFromLibrary(r.Context(), userID, mux.Vars(r)["paperId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
