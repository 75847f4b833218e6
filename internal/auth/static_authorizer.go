package auth

import (
	"context"
	"strings"
)

const (
	// LocalDevAPIKey resolves to a fixed development user.
	LocalDevAPIKey = "sk_local_paperdesk_dev_key"

	// devKeyPrefix lets tests and local tooling mint identities on the
	// fly: "sk_dev_<user-id>" authorizes as <user-id>.
	devKeyPrefix = "sk_dev_"

	// DevUserID is the identity behind LocalDevAPIKey.
	DevUserID = "paperdesk-dev"
)

// StaticAuthorizer is a development-mode Authorizer with no external
// auth provider. It recognizes LocalDevAPIKey and the sk_dev_ prefix.
type StaticAuthorizer struct{}

func NewStaticAuthorizer() *StaticAuthorizer { return &StaticAuthorizer{} }

func (s *StaticAuthorizer) Authorize(ctx context.Context, apiKey string) (*UserInfo, error) {
	if apiKey == LocalDevAPIKey {
		return &UserInfo{UserID: DevUserID, Email: "dev@paperdesk.local"}, nil
	}
	if userID := strings.TrimPrefix(apiKey, devKeyPrefix); userID != apiKey && userID != "" {
		return &UserInfo{UserID: userID}, nil
	}
	return nil, ErrInvalidAPIKey
}
