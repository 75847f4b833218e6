package auth

import "errors"

var (
	// ErrMissingAPIKey is returned when the Authorization header is absent.
	ErrMissingAPIKey = errors.New("missing Authorization header")

	// ErrInvalidAPIKey is returned when the presented key does not
	// resolve to a user.
	ErrInvalidAPIKey = errors.New("invalid API key")
)
