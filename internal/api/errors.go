package api

import (
	"errors"
	"net/http"

	"github.com/paperdesk/paperdesk/internal/api/respond"
	"github.com/paperdesk/paperdesk/internal/auth"
	"github.com/paperdesk/paperdesk/internal/model"
)

// writeServiceError translates the service error taxonomy to HTTP.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		respond.WriteBadRequest(w, err.Error())
	case errors.Is(err, model.ErrUnauthorized), errors.Is(err, auth.ErrMissingAPIKey), errors.Is(err, auth.ErrInvalidAPIKey):
		respond.WriteUnauthorized(w, err.Error())
	case errors.Is(err, model.ErrForbidden):
		respond.WriteError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, model.ErrNotFound):
		respond.WriteNotFound(w, err.Error())
	case errors.Is(err, model.ErrConflict):
		respond.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrUnavailable):
		respond.WriteError(w, http.StatusServiceUnavailable, err.Error())
	default:
		respond.WriteInternalError(w, err.Error())
	}
}
