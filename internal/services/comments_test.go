package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/paperdesk/paperdesk/internal/model"
)

func seedCommentFixtures(t *testing.T) (*CommentService, *model.User, *model.Group, string) {
	t.Helper()
	st := newTestStore(t)
	svc := newTestPaperService(t, st)
	seedPapers(t, svc)
	ctx := context.Background()

	u, err := st.Users().Create(ctx, &model.User{Email: "commenter@example.test"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	g, err := st.Groups().Create(ctx, &model.Group{Name: "club", CreatedBy: u.UserID})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	return NewCommentService(st), u, g, "a1"
}

func TestCommentCreate_Invariants(t *testing.T) {
	svc, u, g, paperID := seedCommentFixtures(t)
	ctx := context.Background()
	pos := json.RawMessage(`{"page":2,"x":0.4,"y":0.7}`)
	hl := "the transformer"

	// A general comment must not carry an anchor.
	_, err := svc.Create(ctx, &model.Comment{
		PaperID: paperID, Text: "general", IsGeneral: true,
		HighlightedText: &hl,
		Visibility:      model.Visibility{Type: model.VisibilityPublic},
	}, &u.UserID)
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("general with highlight: want ErrValidation, got %v", err)
	}

	// An anchored comment requires highlight and position.
	_, err = svc.Create(ctx, &model.Comment{
		PaperID: paperID, Text: "anchored", IsGeneral: false,
		Visibility: model.Visibility{Type: model.VisibilityPublic},
	}, &u.UserID)
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("anchored without highlight: want ErrValidation, got %v", err)
	}
	c, err := svc.Create(ctx, &model.Comment{
		PaperID: paperID, Text: "anchored", IsGeneral: false,
		HighlightedText: &hl, Position: pos,
		Visibility: model.Visibility{Type: model.VisibilityPublic},
	}, &u.UserID)
	if err != nil || c.CommentID == "" {
		t.Fatalf("anchored create: c=%+v err=%v", c, err)
	}

	// Missing text or paper.
	if _, err := svc.Create(ctx, &model.Comment{PaperID: paperID, IsGeneral: true, Visibility: model.Visibility{Type: model.VisibilityPublic}}, &u.UserID); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("no text: want ErrValidation, got %v", err)
	}
	if _, err := svc.Create(ctx, &model.Comment{PaperID: "missing", Text: "x", IsGeneral: true, Visibility: model.Visibility{Type: model.VisibilityPublic}}, &u.UserID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("missing paper: want ErrNotFound, got %v", err)
	}

	// Visibility enum is closed, and group visibility must reference a
	// real group.
	if _, err := svc.Create(ctx, &model.Comment{PaperID: paperID, Text: "x", IsGeneral: true, Visibility: model.Visibility{Type: "friends"}}, &u.UserID); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("bad visibility: want ErrValidation, got %v", err)
	}
	if _, err := svc.Create(ctx, &model.Comment{PaperID: paperID, Text: "x", IsGeneral: true, Visibility: model.Visibility{Type: model.VisibilityGroup, GroupID: "missing"}}, &u.UserID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("missing group: want ErrNotFound, got %v", err)
	}
	if _, err := svc.Create(ctx, &model.Comment{PaperID: paperID, Text: "x", IsGeneral: true, Visibility: model.Visibility{Type: model.VisibilityPublic, GroupID: g.GroupID}}, &u.UserID); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("public with group id: want ErrValidation, got %v", err)
	}

	// Private and group comments require identity.
	if _, err := svc.Create(ctx, &model.Comment{PaperID: paperID, Text: "x", IsGeneral: true, Visibility: model.Visibility{Type: model.VisibilityPrivate}}, nil); !errors.Is(err, model.ErrUnauthorized) {
		t.Fatalf("anonymous private: want ErrUnauthorized, got %v", err)
	}
	if _, err := svc.Create(ctx, &model.Comment{PaperID: paperID, Text: "x", IsGeneral: true, Visibility: model.Visibility{Type: model.VisibilityGroup, GroupID: g.GroupID}}, nil); !errors.Is(err, model.ErrUnauthorized) {
		t.Fatalf("anonymous group: want ErrUnauthorized, got %v", err)
	}

	// Anonymous visibility drops the author even for signed-in callers.
	anon, err := svc.Create(ctx, &model.Comment{PaperID: paperID, Text: "anon", IsGeneral: true, Visibility: model.Visibility{Type: model.VisibilityAnonymous}}, &u.UserID)
	if err != nil {
		t.Fatalf("anonymous create: %v", err)
	}
	if anon.UserID != nil {
		t.Fatalf("anonymous comment kept an author: %v", *anon.UserID)
	}
}

func TestCommentUpdateDelete_OwnerOnly(t *testing.T) {
	svc, u, _, paperID := seedCommentFixtures(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, &model.Comment{PaperID: paperID, Text: "mine", IsGeneral: true, Visibility: model.Visibility{Type: model.VisibilityPublic}}, &u.UserID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	other := "someone-else"
	if _, err := svc.Update(ctx, c.CommentID, "edited", model.Visibility{Type: model.VisibilityPublic}, &other); !errors.Is(err, model.ErrForbidden) {
		t.Fatalf("non-owner update: want ErrForbidden, got %v", err)
	}
	if _, err := svc.Update(ctx, c.CommentID, "edited", model.Visibility{Type: model.VisibilityPublic}, nil); !errors.Is(err, model.ErrUnauthorized) {
		t.Fatalf("anonymous update: want ErrUnauthorized, got %v", err)
	}
	upd, err := svc.Update(ctx, c.CommentID, "edited", model.Visibility{Type: model.VisibilityPrivate}, &u.UserID)
	if err != nil || upd.Text != "edited" || upd.Visibility.Type != model.VisibilityPrivate {
		t.Fatalf("owner update: got=%+v err=%v", upd, err)
	}

	if err := svc.Delete(ctx, c.CommentID, &other); !errors.Is(err, model.ErrForbidden) {
		t.Fatalf("non-owner delete: want ErrForbidden, got %v", err)
	}
	if err := svc.Delete(ctx, c.CommentID, &u.UserID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}

	// Ownerless anonymous comments cannot be edited by anyone.
	anon, err := svc.Create(ctx, &model.Comment{PaperID: paperID, Text: "anon", IsGeneral: true, Visibility: model.Visibility{Type: model.VisibilityAnonymous}}, nil)
	if err != nil {
		t.Fatalf("anon create: %v", err)
	}
	if err := svc.Delete(ctx, anon.CommentID, &u.UserID); !errors.Is(err, model.ErrForbidden) {
		t.Fatalf("delete ownerless: want ErrForbidden, got %v", err)
	}
}

func TestCommentReplies(t *testing.T) {
	svc, u, _, paperID := seedCommentFixtures(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, &model.Comment{PaperID: paperID, Text: "thread root", IsGeneral: true, Visibility: model.Visibility{Type: model.VisibilityPublic}}, &u.UserID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.AddReply(ctx, c.CommentID, "anon reply", nil); !errors.Is(err, model.ErrUnauthorized) {
		t.Fatalf("anonymous reply: want ErrUnauthorized, got %v", err)
	}
	if _, err := svc.AddReply(ctx, c.CommentID, "", &u.UserID); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("empty reply: want ErrValidation, got %v", err)
	}
	r, err := svc.AddReply(ctx, c.CommentID, "agreed", &u.UserID)
	if err != nil || r.ReplyID == "" {
		t.Fatalf("reply: r=%+v err=%v", r, err)
	}

	lst, err := svc.ListForPaper(ctx, paperID, &u.UserID, "")
	if err != nil || len(lst) != 1 || len(lst[0].Replies) != 1 {
		t.Fatalf("list with replies: n=%d err=%v", len(lst), err)
	}
}
