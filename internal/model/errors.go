package model

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	// ErrUnavailable marks transient backend failures. Callers may
	// retry with backoff; the service itself never retries.
	ErrUnavailable = errors.New("backend unavailable")
)
