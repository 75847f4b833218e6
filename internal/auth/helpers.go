package auth

import (
	"net/http"
	"strings"
)

// ExtractAPIKey extracts the API key from the Authorization header.
// Expects "Bearer <api_key>" format.
func ExtractAPIKey(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingAPIKey
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", ErrInvalidAPIKey
	}

	return parts[1], nil
}

// ResolveOptional resolves the caller's identity when credentials are
// present and returns nil for anonymous callers. Only a malformed or
// rejected key is an error; absence is not.
func ResolveOptional(r *http.Request, authorizer Authorizer) (*UserInfo, error) {
	if r.Header.Get("Authorization") == "" {
		return nil, nil
	}
	apiKey, err := ExtractAPIKey(r)
	if err != nil {
		return nil, err
	}
	return authorizer.Authorize(r.Context(), apiKey)
}
