package services

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/paperdesk/paperdesk/internal/model"
	"github.com/paperdesk/paperdesk/internal/query"
	"github.com/paperdesk/paperdesk/internal/searchindex"
	"github.com/paperdesk/paperdesk/internal/store"
)

// ListResult is one page of enriched papers. Count is -1 on every page
// but the first, where the total matching the filter is computed.
type ListResult struct {
	Papers []EnrichedPaper
	Count  int
}

// PaperService orchestrates the listing pipeline: scope resolution,
// query compilation, store execution and enrichment.
type PaperService struct {
	store         store.Store
	idx           searchindex.Index
	maxCandidates int
	now           func() time.Time
}

func NewPaperService(s store.Store, idx searchindex.Index, maxCandidates int) *PaperService {
	return &PaperService{store: s, idx: idx, maxCandidates: maxCandidates, now: time.Now}
}

// List executes one listing request for an optionally anonymous viewer.
func (s *PaperService) List(ctx context.Context, req model.ListPapersRequest, viewerID *string) (*ListResult, error) {
	scope, err := s.resolveScope(ctx, req, viewerID)
	if err != nil {
		return nil, err
	}
	plan, err := query.Compile(req, scope, s.now())
	if err != nil {
		return nil, err
	}

	var (
		page  []*model.Paper
		count int
	)
	if plan.TextQuery != "" {
		page, count, err = s.textSearch(ctx, plan)
	} else {
		page, count, err = s.findPage(ctx, plan)
	}
	if err != nil {
		return nil, err
	}

	enriched, err := enrichPapers(ctx, s.store, page, viewerID)
	if err != nil {
		return nil, err
	}
	return &ListResult{Papers: enriched, Count: count}, nil
}

func (s *PaperService) resolveScope(ctx context.Context, req model.ListPapersRequest, viewerID *string) (query.Scope, error) {
	var scope query.Scope
	if req.GroupID != "" {
		ids, err := s.store.Groups().PapersOf(ctx, req.GroupID)
		if err != nil {
			return scope, err
		}
		scope.HasGroup = true
		scope.GroupIDs = ids
	}
	if req.Library {
		if viewerID == nil {
			return scope, errors.Wrap(model.ErrUnauthorized, "library listing requires a signed-in user")
		}
		ids, err := s.store.Users().Library(ctx, *viewerID)
		if err != nil {
			return scope, err
		}
		scope.LibraryOnly = true
		scope.LibraryIDs = ids
	}
	return scope, nil
}

func (s *PaperService) findPage(ctx context.Context, plan *query.Plan) ([]*model.Paper, int, error) {
	page, err := s.store.Papers().Find(ctx, store.PaperQuery{
		Filter: plan.Filter,
		Sort:   plan.Sort,
		Skip:   plan.Skip,
		Limit:  plan.Limit,
	})
	if err != nil {
		return nil, 0, err
	}
	count := -1
	if plan.WithCount {
		count, err = s.store.Papers().Count(ctx, plan.Filter)
		if err != nil {
			return nil, 0, err
		}
	}
	return page, count, nil
}

// textSearch ranks candidates by relevance, applies the compiled filter
// as a secondary constraint and paginates in memory. The candidate set
// is capped, so counts in search mode are approximate for very common
// queries.
func (s *PaperService) textSearch(ctx context.Context, plan *query.Plan) ([]*model.Paper, int, error) {
	hits, err := s.idx.SearchPapers(ctx, plan.TextQuery, s.maxCandidates)
	if err != nil {
		return nil, 0, err
	}

	// Respect an id scope (group or library) before touching the store.
	candidates := make([]string, 0, len(hits))
	if plan.Filter.IDs != nil {
		scoped := make(map[string]bool, len(plan.Filter.IDs))
		for _, id := range plan.Filter.IDs {
			scoped[id] = true
		}
		for _, h := range hits {
			if scoped[h.PaperID] {
				candidates = append(candidates, h.PaperID)
			}
		}
	} else {
		for _, h := range hits {
			candidates = append(candidates, h.PaperID)
		}
	}

	count := -1
	if len(candidates) == 0 {
		if plan.WithCount {
			count = 0
		}
		return nil, count, nil
	}

	// Apply the remaining filters (age, author, categories) in one store
	// pass over the candidate set.
	f := plan.Filter
	f.IDs = candidates
	matched, err := s.store.Papers().Find(ctx, store.PaperQuery{
		Filter: f,
		Sort:   store.SortDate,
		Limit:  len(candidates),
	})
	if err != nil {
		return nil, 0, err
	}
	byID := make(map[string]*model.Paper, len(matched))
	for _, p := range matched {
		byID[p.PaperID] = p
	}

	// Restore relevance order, then slice the requested page.
	ordered := make([]*model.Paper, 0, len(matched))
	for _, id := range candidates {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	if plan.WithCount {
		count = len(ordered)
	}
	if plan.Skip >= len(ordered) {
		return nil, count, nil
	}
	end := plan.Skip + plan.Limit
	if end > len(ordered) {
		end = len(ordered)
	}
	return ordered[plan.Skip:end], count, nil
}

// Get loads and enriches a single paper.
func (s *PaperService) Get(ctx context.Context, paperID string, viewerID *string) (*EnrichedPaper, error) {
	p, err := s.store.Papers().GetByID(ctx, paperID)
	if err != nil {
		return nil, err
	}
	enriched, err := enrichPapers(ctx, s.store, []*model.Paper{p}, viewerID)
	if err != nil {
		return nil, err
	}
	return &enriched[0], nil
}

// SaveToLibrary saves a paper to the user's library; the paper's star
// count is adjusted in the same store transaction.
func (s *PaperService) SaveToLibrary(ctx context.Context, userID, paperID string) error {
	return s.store.Users().SaveToLibrary(ctx, userID, paperID)
}

func (s *PaperService) RemoveFromLibrary(ctx context.Context, userID, paperID string) error {
	return s.store.Users().RemoveFromLibrary(ctx, userID, paperID)
}

// Ingest upserts a paper record and keeps the search index current.
func (s *PaperService) Ingest(ctx context.Context, p *model.Paper) error {
	if err := s.store.Papers().Upsert(ctx, p); err != nil {
		return err
	}
	if s.idx != nil {
		if err := s.idx.IndexPaper(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
