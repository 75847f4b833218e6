package store

import (
	"context"
	"time"

	"github.com/paperdesk/paperdesk/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (postgres, sqlite).
type Store interface {
	Papers() Papers
	Users() Users
	Groups() Groups
	Comments() Comments
}

// PaperSort selects the ordering key for paper listings. All orders are
// descending on the key with a stable paper-id ascending tie-break.
type PaperSort string

const (
	SortDate      PaperSort = "date"
	SortTweets    PaperSort = "tweets"
	SortBookmarks PaperSort = "bookmarks"
	// SortRelevance is only meaningful in text-search mode; Find
	// implementations reject it.
	SortRelevance PaperSort = "score"
)

// PaperFilter is a conjunctive filter over papers.
//
// IDs semantics: nil means unrestricted; a non-nil empty slice matches
// no papers (an empty library must not degenerate into "all papers").
type PaperFilter struct {
	Author         string
	Tags           []string
	PublishedAfter *time.Time
	IDs            []string
}

// PaperQuery is one paginated, ordered page request.
type PaperQuery struct {
	Filter PaperFilter
	Sort   PaperSort
	Skip   int
	Limit  int
}

type Papers interface {
	// Find returns one ordered page of papers matching the filter.
	Find(ctx context.Context, q PaperQuery) ([]*model.Paper, error)
	// Count returns the total number of papers matching the filter,
	// ignoring pagination.
	Count(ctx context.Context, f PaperFilter) (int, error)
	// TextSearch runs the store's full-text index over title, abstract
	// and author text, returning ids with relevance scores, best first.
	TextSearch(ctx context.Context, query string, limit int) ([]model.PaperHit, error)
	GetByID(ctx context.Context, paperID string) (*model.Paper, error)
	// GetByIDs loads full records preserving the order of ids; missing
	// ids are skipped.
	GetByIDs(ctx context.Context, paperIDs []string) ([]*model.Paper, error)
	Upsert(ctx context.Context, p *model.Paper) error
	SetCode(ctx context.Context, paperID string, code *model.CodeLink) error
}

type Users interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	GetByID(ctx context.Context, userID string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// Library returns the set of paper ids saved by the user.
	Library(ctx context.Context, userID string) ([]string, error)
	// SaveToLibrary is idempotent; a first-time save increments the
	// paper's star count in the same transaction.
	SaveToLibrary(ctx context.Context, userID, paperID string) error
	RemoveFromLibrary(ctx context.Context, userID, paperID string) error
}

type Groups interface {
	Create(ctx context.Context, g *model.Group) (*model.Group, error)
	Get(ctx context.Context, groupID string) (*model.Group, error)
	GroupsOf(ctx context.Context, userID string) ([]*model.Group, error)
	PapersOf(ctx context.Context, groupID string) ([]string, error)
	AddPaper(ctx context.Context, groupID, paperID string) error
	RemovePaper(ctx context.Context, groupID, paperID string) error
	Join(ctx context.Context, groupID, userID string) error
	Leave(ctx context.Context, groupID, userID string) error
	// ForUserAndPapers returns, per paper id, the groups the user
	// belongs to that contain that paper.
	ForUserAndPapers(ctx context.Context, userID string, paperIDs []string) (map[string][]model.GroupRef, error)
}

type Comments interface {
	Create(ctx context.Context, c *model.Comment) (*model.Comment, error)
	Get(ctx context.Context, commentID string) (*model.Comment, error)
	Update(ctx context.Context, commentID, text string, vis model.Visibility) (*model.Comment, error)
	Delete(ctx context.Context, commentID string) error
	// ListForPaper applies visibility rules: public and anonymous
	// comments for everyone, plus the viewer's own; when groupID is
	// given, only that group's comments are returned.
	ListForPaper(ctx context.Context, paperID string, viewerID *string, groupID string) ([]*model.Comment, error)
	// CountByPaper aggregates comment counts per paper restricted to
	// the given visibility types. Papers without comments are absent
	// from the result map.
	CountByPaper(ctx context.Context, paperIDs []string, visibilities []string) (map[string]int, error)
	AddReply(ctx context.Context, r *model.Reply) (*model.Reply, error)
}
