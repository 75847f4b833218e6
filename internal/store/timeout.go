package store

import (
	"context"
	"time"

	"github.com/paperdesk/paperdesk/internal/model"
)

// WithTimeout wraps a Store so every call carries a per-call deadline.
// Callers keep their own cancellation; the budget only tightens it.
func WithTimeout(s Store, budget time.Duration) Store {
	if budget <= 0 {
		return s
	}
	return &timeoutStore{inner: s, budget: budget}
}

type timeoutStore struct {
	inner  Store
	budget time.Duration
}

func (s *timeoutStore) Papers() Papers     { return &timeoutPapers{inner: s.inner.Papers(), budget: s.budget} }
func (s *timeoutStore) Users() Users       { return &timeoutUsers{inner: s.inner.Users(), budget: s.budget} }
func (s *timeoutStore) Groups() Groups     { return &timeoutGroups{inner: s.inner.Groups(), budget: s.budget} }
func (s *timeoutStore) Comments() Comments { return &timeoutComments{inner: s.inner.Comments(), budget: s.budget} }

func withBudget(ctx context.Context, budget time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, budget)
}

type timeoutPapers struct {
	inner  Papers
	budget time.Duration
}

func (p *timeoutPapers) Find(ctx context.Context, q PaperQuery) ([]*model.Paper, error) {
	ctx, cancel := withBudget(ctx, p.budget)
	defer cancel()
	return p.inner.Find(ctx, q)
}

func (p *timeoutPapers) Count(ctx context.Context, f PaperFilter) (int, error) {
	ctx, cancel := withBudget(ctx, p.budget)
	defer cancel()
	return p.inner.Count(ctx, f)
}

func (p *timeoutPapers) TextSearch(ctx context.Context, query string, limit int) ([]model.PaperHit, error) {
	ctx, cancel := withBudget(ctx, p.budget)
	defer cancel()
	return p.inner.TextSearch(ctx, query, limit)
}

func (p *timeoutPapers) GetByID(ctx context.Context, paperID string) (*model.Paper, error) {
	ctx, cancel := withBudget(ctx, p.budget)
	defer cancel()
	return p.inner.GetByID(ctx, paperID)
}

func (p *timeoutPapers) GetByIDs(ctx context.Context, paperIDs []string) ([]*model.Paper, error) {
	ctx, cancel := withBudget(ctx, p.budget)
	defer cancel()
	return p.inner.GetByIDs(ctx, paperIDs)
}

func (p *timeoutPapers) Upsert(ctx context.Context, m *model.Paper) error {
	ctx, cancel := withBudget(ctx, p.budget)
	defer cancel()
	return p.inner.Upsert(ctx, m)
}

func (p *timeoutPapers) SetCode(ctx context.Context, paperID string, code *model.CodeLink) error {
	ctx, cancel := withBudget(ctx, p.budget)
	defer cancel()
	return p.inner.SetCode(ctx, paperID, code)
}

type timeoutUsers struct {
	inner  Users
	budget time.Duration
}

func (u *timeoutUsers) Create(ctx context.Context, m *model.User) (*model.User, error) {
	ctx, cancel := withBudget(ctx, u.budget)
	defer cancel()
	return u.inner.Create(ctx, m)
}

func (u *timeoutUsers) GetByID(ctx context.Context, userID string) (*model.User, error) {
	ctx, cancel := withBudget(ctx, u.budget)
	defer cancel()
	return u.inner.GetByID(ctx, userID)
}

func (u *timeoutUsers) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx, cancel := withBudget(ctx, u.budget)
	defer cancel()
	return u.inner.GetByEmail(ctx, email)
}

func (u *timeoutUsers) Library(ctx context.Context, userID string) ([]string, error) {
	ctx, cancel := withBudget(ctx, u.budget)
	defer cancel()
	return u.inner.Library(ctx, userID)
}

func (u *timeoutUsers) SaveToLibrary(ctx context.Context, userID, paperID string) error {
	ctx, cancel := withBudget(ctx, u.budget)
	defer cancel()
	return u.inner.SaveToLibrary(ctx, userID, paperID)
}

func (u *timeoutUsers) RemoveFromLibrary(ctx context.Context, userID, paperID string) error {
	ctx, cancel := withBudget(ctx, u.budget)
	defer cancel()
	return u.inner.RemoveFromLibrary(ctx, userID, paperID)
}

type timeoutGroups struct {
	inner  Groups
	budget time.Duration
}

func (g *timeoutGroups) Create(ctx context.Context, m *model.Group) (*model.Group, error) {
	ctx, cancel := withBudget(ctx, g.budget)
	defer cancel()
	return g.inner.Create(ctx, m)
}

func (g *timeoutGroups) Get(ctx context.Context, groupID string) (*model.Group, error) {
	ctx, cancel := withBudget(ctx, g.budget)
	defer cancel()
	return g.inner.Get(ctx, groupID)
}

func (g *timeoutGroups) GroupsOf(ctx context.Context, userID string) ([]*model.Group, error) {
	ctx, cancel := withBudget(ctx, g.budget)
	defer cancel()
	return g.inner.GroupsOf(ctx, userID)
}

func (g *timeoutGroups) PapersOf(ctx context.Context, groupID string) ([]string, error) {
	ctx, cancel := withBudget(ctx, g.budget)
	defer cancel()
	return g.inner.PapersOf(ctx, groupID)
}

func (g *timeoutGroups) AddPaper(ctx context.Context, groupID, paperID string) error {
	ctx, cancel := withBudget(ctx, g.budget)
	defer cancel()
	return g.inner.AddPaper(ctx, groupID, paperID)
}

func (g *timeoutGroups) RemovePaper(ctx context.Context, groupID, paperID string) error {
	ctx, cancel := withBudget(ctx, g.budget)
	defer cancel()
	return g.inner.RemovePaper(ctx, groupID, paperID)
}

func (g *timeoutGroups) Join(ctx context.Context, groupID, userID string) error {
	ctx, cancel := withBudget(ctx, g.budget)
	defer cancel()
	return g.inner.Join(ctx, groupID, userID)
}

func (g *timeoutGroups) Leave(ctx context.Context, groupID, userID string) error {
	ctx, cancel := withBudget(ctx, g.budget)
	defer cancel()
	return g.inner.Leave(ctx, groupID, userID)
}

func (g *timeoutGroups) ForUserAndPapers(ctx context.Context, userID string, paperIDs []string) (map[string][]model.GroupRef, error) {
	ctx, cancel := withBudget(ctx, g.budget)
	defer cancel()
	return g.inner.ForUserAndPapers(ctx, userID, paperIDs)
}

type timeoutComments struct {
	inner  Comments
	budget time.Duration
}

func (c *timeoutComments) Create(ctx context.Context, m *model.Comment) (*model.Comment, error) {
	ctx, cancel := withBudget(ctx, c.budget)
	defer cancel()
	return c.inner.Create(ctx, m)
}

func (c *timeoutComments) Get(ctx context.Context, commentID string) (*model.Comment, error) {
	ctx, cancel := withBudget(ctx, c.budget)
	defer cancel()
	return c.inner.Get(ctx, commentID)
}

func (c *timeoutComments) Update(ctx context.Context, commentID, text string, vis model.Visibility) (*model.Comment, error) {
	ctx, cancel := withBudget(ctx, c.budget)
	defer cancel()
	return c.inner.Update(ctx, commentID, text, vis)
}

func (c *timeoutComments) Delete(ctx context.Context, commentID string) error {
	ctx, cancel := withBudget(ctx, c.budget)
	defer cancel()
	return c.inner.Delete(ctx, commentID)
}

func (c *timeoutComments) ListForPaper(ctx context.Context, paperID string, viewerID *string, groupID string) ([]*model.Comment, error) {
	ctx, cancel := withBudget(ctx, c.budget)
	defer cancel()
	return c.inner.ListForPaper(ctx, paperID, viewerID, groupID)
}

func (c *timeoutComments) CountByPaper(ctx context.Context, paperIDs []string, visibilities []string) (map[string]int, error) {
	ctx, cancel := withBudget(ctx, c.budget)
	defer cancel()
	return c.inner.CountByPaper(ctx, paperIDs, visibilities)
}

func (c *timeoutComments) AddReply(ctx context.Context, r *model.Reply) (*model.Reply, error) {
	ctx, cancel := withBudget(ctx, c.budget)
	defer cancel()
	return c.inner.AddReply(ctx, r)
}
