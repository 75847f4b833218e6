package services

import (
	"context"

	"github.com/pkg/errors"

	"github.com/paperdesk/paperdesk/internal/model"
	"github.com/paperdesk/paperdesk/internal/store"
)

// CommentService enforces comment invariants over the store: anchored
// comments carry a highlight, visibility is a closed enum, group
// visibility must reference an existing group, and edits are owner-only.
type CommentService struct {
	store store.Store
}

func NewCommentService(s store.Store) *CommentService { return &CommentService{store: s} }

// Create validates and persists a new comment for an optionally
// anonymous viewer.
func (s *CommentService) Create(ctx context.Context, c *model.Comment, viewerID *string) (*model.Comment, error) {
	if c.Text == "" {
		return nil, errors.Wrap(model.ErrValidation, "comment text is required")
	}
	if c.PaperID == "" {
		return nil, errors.Wrap(model.ErrValidation, "paper id is required")
	}
	if _, err := s.store.Papers().GetByID(ctx, c.PaperID); err != nil {
		return nil, err
	}
	if c.IsGeneral {
		if c.HighlightedText != nil || len(c.Position) > 0 {
			return nil, errors.Wrap(model.ErrValidation, "a general comment must not carry a highlight or position")
		}
	} else {
		if c.HighlightedText == nil || *c.HighlightedText == "" || len(c.Position) == 0 {
			return nil, errors.Wrap(model.ErrValidation, "an anchored comment requires highlighted text and position")
		}
	}
	if err := s.validateVisibility(ctx, c.Visibility); err != nil {
		return nil, err
	}

	switch c.Visibility.Type {
	case model.VisibilityAnonymous:
		// Anonymous comments never record an author.
		c.UserID = nil
	case model.VisibilityPrivate, model.VisibilityGroup:
		if viewerID == nil {
			return nil, errors.Wrapf(model.ErrUnauthorized, "%s comments require a signed-in user", c.Visibility.Type)
		}
		c.UserID = viewerID
	default:
		c.UserID = viewerID
	}

	return s.store.Comments().Create(ctx, c)
}

func (s *CommentService) validateVisibility(ctx context.Context, vis model.Visibility) error {
	switch vis.Type {
	case model.VisibilityPublic, model.VisibilityPrivate, model.VisibilityAnonymous:
		if vis.GroupID != "" {
			return errors.Wrapf(model.ErrValidation, "visibility %s must not carry a group id", vis.Type)
		}
		return nil
	case model.VisibilityGroup:
		if vis.GroupID == "" {
			return errors.Wrap(model.ErrValidation, "group visibility requires a group id")
		}
		if _, err := s.store.Groups().Get(ctx, vis.GroupID); err != nil {
			return err
		}
		return nil
	default:
		return errors.Wrapf(model.ErrValidation, "unknown visibility %q", vis.Type)
	}
}

// Update edits a comment's text and visibility. Owner-only; ownerless
// (anonymous) comments cannot be edited.
func (s *CommentService) Update(ctx context.Context, commentID, text string, vis model.Visibility, viewerID *string) (*model.Comment, error) {
	if text == "" {
		return nil, errors.Wrap(model.ErrValidation, "comment text is required")
	}
	if err := s.validateVisibility(ctx, vis); err != nil {
		return nil, err
	}
	existing, err := s.store.Comments().Get(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(existing, viewerID); err != nil {
		return nil, err
	}
	return s.store.Comments().Update(ctx, commentID, text, vis)
}

// Delete removes a comment and its replies. Owner-only.
func (s *CommentService) Delete(ctx context.Context, commentID string, viewerID *string) error {
	existing, err := s.store.Comments().Get(ctx, commentID)
	if err != nil {
		return err
	}
	if err := requireOwner(existing, viewerID); err != nil {
		return err
	}
	return s.store.Comments().Delete(ctx, commentID)
}

// ListForPaper returns the comments visible to the viewer; a group id
// narrows the listing to that group's thread.
func (s *CommentService) ListForPaper(ctx context.Context, paperID string, viewerID *string, groupID string) ([]*model.Comment, error) {
	if groupID != "" {
		if _, err := s.store.Groups().Get(ctx, groupID); err != nil {
			return nil, err
		}
	}
	return s.store.Comments().ListForPaper(ctx, paperID, viewerID, groupID)
}

// AddReply appends a reply to an existing comment. Replies always carry
// an author.
func (s *CommentService) AddReply(ctx context.Context, commentID, text string, viewerID *string) (*model.Reply, error) {
	if viewerID == nil {
		return nil, errors.Wrap(model.ErrUnauthorized, "replies require a signed-in user")
	}
	if text == "" {
		return nil, errors.Wrap(model.ErrValidation, "reply text is required")
	}
	return s.store.Comments().AddReply(ctx, &model.Reply{CommentID: commentID, UserID: *viewerID, Text: text})
}

func requireOwner(c *model.Comment, viewerID *string) error {
	if viewerID == nil {
		return errors.Wrap(model.ErrUnauthorized, "editing a comment requires a signed-in user")
	}
	if c.UserID == nil || *c.UserID != *viewerID {
		return errors.Wrap(model.ErrForbidden, "only the comment author may modify it")
	}
	return nil
}
