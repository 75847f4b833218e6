package services

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/paperdesk/paperdesk/internal/model"
	"github.com/paperdesk/paperdesk/internal/store"
)

// UserService handles user accounts.
type UserService struct {
	store store.Store
}

func NewUserService(s store.Store) *UserService { return &UserService{store: s} }

func (s *UserService) Create(ctx context.Context, u *model.User) (*model.User, error) {
	if u.Email == "" || !strings.Contains(u.Email, "@") {
		return nil, errors.Wrapf(model.ErrValidation, "invalid email %q", u.Email)
	}
	return s.store.Users().Create(ctx, u)
}

func (s *UserService) Get(ctx context.Context, userID string) (*model.User, error) {
	return s.store.Users().GetByID(ctx, userID)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.store.Users().GetByEmail(ctx, email)
}
