package auth

import (
	"context"
)

// UserInfo identifies an authenticated caller.
type UserInfo struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
}

// Authorizer validates API keys and resolves them to a user identity.
// Listing routes accept anonymous callers; they skip authorization
// entirely when no credentials are presented.
type Authorizer interface {
	Authorize(ctx context.Context, apiKey string) (*UserInfo, error)
}
