package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/paperdesk/paperdesk/internal/model"
	"github.com/paperdesk/paperdesk/internal/store"
)

// Enrichment carries the per-user and per-paper computed fields
// attached to a raw paper record before shaping.
type Enrichment struct {
	Saved        bool
	CommentCount int
	Groups       []model.GroupRef
}

// EnrichedPaper pairs a store record with its enrichment bundle.
type EnrichedPaper struct {
	Paper      *model.Paper
	Enrichment Enrichment
}

// countedVisibilities are the comment visibility types that contribute
// to the public comment count.
var countedVisibilities = []string{model.VisibilityPublic, model.VisibilityAnonymous}

// enrichPapers decorates an ordered page of papers with comment counts,
// library membership and the viewer's groups. The three sources are
// independent and fetched concurrently; any failure fails the whole
// request so callers never see a partially decorated page. Input order
// is preserved.
func enrichPapers(ctx context.Context, st store.Store, page []*model.Paper, viewerID *string) ([]EnrichedPaper, error) {
	if len(page) == 0 {
		return []EnrichedPaper{}, nil
	}
	ids := make([]string, len(page))
	for i, p := range page {
		ids[i] = p.PaperID
	}

	var (
		counts    map[string]int
		library   map[string]bool
		groupRefs map[string][]model.GroupRef
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = st.Comments().CountByPaper(gctx, ids, countedVisibilities)
		return err
	})
	if viewerID != nil {
		g.Go(func() error {
			saved, err := st.Users().Library(gctx, *viewerID)
			if err != nil {
				return err
			}
			library = make(map[string]bool, len(saved))
			for _, id := range saved {
				library[id] = true
			}
			return nil
		})
		g.Go(func() error {
			var err error
			groupRefs, err = st.Groups().ForUserAndPapers(gctx, *viewerID, ids)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]EnrichedPaper, len(page))
	for i, p := range page {
		e := Enrichment{
			Saved:        library[p.PaperID],
			CommentCount: counts[p.PaperID],
			Groups:       groupRefs[p.PaperID],
		}
		if e.Groups == nil {
			e.Groups = []model.GroupRef{}
		}
		out[i] = EnrichedPaper{Paper: p, Enrichment: e}
	}
	return out, nil
}
