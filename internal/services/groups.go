package services

import (
	"context"

	"github.com/pkg/errors"

	"github.com/paperdesk/paperdesk/internal/model"
	"github.com/paperdesk/paperdesk/internal/store"
)

// GroupService manages shared paper collections.
type GroupService struct {
	store store.Store
}

func NewGroupService(s store.Store) *GroupService { return &GroupService{store: s} }

func (s *GroupService) Create(ctx context.Context, name, creatorID string) (*model.Group, error) {
	if name == "" {
		return nil, errors.Wrap(model.ErrValidation, "group name is required")
	}
	return s.store.Groups().Create(ctx, &model.Group{Name: name, CreatedBy: creatorID})
}

func (s *GroupService) Get(ctx context.Context, groupID string) (*model.Group, error) {
	return s.store.Groups().Get(ctx, groupID)
}

func (s *GroupService) GroupsOf(ctx context.Context, userID string) ([]*model.Group, error) {
	return s.store.Groups().GroupsOf(ctx, userID)
}

func (s *GroupService) Join(ctx context.Context, groupID, userID string) error {
	return s.store.Groups().Join(ctx, groupID, userID)
}

func (s *GroupService) Leave(ctx context.Context, groupID, userID string) error {
	return s.store.Groups().Leave(ctx, groupID, userID)
}

// AddPaper puts a paper into a group; both must exist.
func (s *GroupService) AddPaper(ctx context.Context, groupID, paperID string) error {
	if _, err := s.store.Papers().GetByID(ctx, paperID); err != nil {
		return err
	}
	return s.store.Groups().AddPaper(ctx, groupID, paperID)
}

func (s *GroupService) RemovePaper(ctx context.Context, groupID, paperID string) error {
	return s.store.Groups().RemovePaper(ctx, groupID, paperID)
}

func (s *GroupService) PapersOf(ctx context.Context, groupID string) ([]string, error) {
	return s.store.Groups().PapersOf(ctx, groupID)
}
