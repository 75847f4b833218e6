package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/paperdesk/paperdesk/internal/model"
	"github.com/paperdesk/paperdesk/internal/searchindex"
	"github.com/paperdesk/paperdesk/internal/store"
	"github.com/paperdesk/paperdesk/internal/store/sqlite"
)

var fixedNow = time.Date(2022, 9, 1, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("sqlite open: %v", err)
	}
	return st
}

func newTestPaperService(t *testing.T, st store.Store) *PaperService {
	t.Helper()
	svc := NewPaperService(st, searchindex.NewStoreIndex(st.Papers()), 500)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func seedPapers(t *testing.T, svc *PaperService) {
	t.Helper()
	ctx := context.Background()
	seed := []*model.Paper{
		{
			PaperID:     "a1",
			Title:       "Sparse Mixture of Experts",
			Abstract:    "Routing tokens through expert subnetworks.",
			Authors:     []model.Author{{Name: "Ada Lovelace"}},
			Tags:        []string{"cs.LG"},
			PublishedAt: fixedNow.Add(-24 * time.Hour),
			TweetScore:  30,
		},
		{
			PaperID:     "a2",
			Title:       "Diffusion Models for Images",
			Abstract:    "Denoising diffusion generates photorealistic samples.",
			Authors:     []model.Author{{Name: "Grace Hopper"}},
			Tags:        []string{"cs.CV"},
			PublishedAt: fixedNow.Add(-3 * 24 * time.Hour),
			TweetScore:  80,
		},
		{
			PaperID:     "a3",
			Title:       "Mixture Density Networks Revisited",
			Abstract:    "Expert mixtures for density estimation.",
			Authors:     []model.Author{{Name: "Ada Lovelace"}},
			Tags:        []string{"stat.ML"},
			PublishedAt: fixedNow.Add(-60 * 24 * time.Hour),
			TweetScore:  5,
		},
	}
	for _, p := range seed {
		if err := svc.Ingest(ctx, p); err != nil {
			t.Fatalf("ingest %s: %v", p.PaperID, err)
		}
	}
}

func ids(res *ListResult) []string {
	out := make([]string, len(res.Papers))
	for i, p := range res.Papers {
		out[i] = p.Paper.PaperID
	}
	return out
}

func TestPaperList_DefaultWindowAndCount(t *testing.T) {
	st := newTestStore(t)
	svc := newTestPaperService(t, st)
	seedPapers(t, svc)

	// Default week window excludes the 60-day-old paper.
	res, err := svc.List(context.Background(), model.ListPapersRequest{}, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := ids(res); len(got) != 2 || got[0] != "a1" || got[1] != "a2" {
		t.Fatalf("default listing: %v", got)
	}
	if res.Count != 2 {
		t.Fatalf("page 1 count: %d", res.Count)
	}

	// Off page 1 the count is not computed.
	res, err = svc.List(context.Background(), model.ListPapersRequest{PageNum: 2}, nil)
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if res.Count != -1 || len(res.Papers) != 0 {
		t.Fatalf("page 2: count=%d n=%d", res.Count, len(res.Papers))
	}
}

func TestPaperList_SortAndFilters(t *testing.T) {
	st := newTestStore(t)
	svc := newTestPaperService(t, st)
	seedPapers(t, svc)
	ctx := context.Background()

	res, err := svc.List(ctx, model.ListPapersRequest{Sort: "tweets", Age: "all"}, nil)
	if err != nil {
		t.Fatalf("list tweets: %v", err)
	}
	if got := ids(res); got[0] != "a2" || got[2] != "a3" {
		t.Fatalf("tweets order: %v", got)
	}

	res, err = svc.List(ctx, model.ListPapersRequest{Author: "Ada Lovelace", Age: "all"}, nil)
	if err != nil || len(res.Papers) != 2 {
		t.Fatalf("author filter: %v err=%v", ids(res), err)
	}

	res, err = svc.List(ctx, model.ListPapersRequest{Categories: "cs.CV;stat.ML", Age: "all"}, nil)
	if err != nil || len(res.Papers) != 2 {
		t.Fatalf("categories filter: %v err=%v", ids(res), err)
	}

	if _, err := svc.List(ctx, model.ListPapersRequest{Age: "decade"}, nil); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("bad age: want ErrValidation, got %v", err)
	}
}

func TestPaperList_TextSearch(t *testing.T) {
	st := newTestStore(t)
	svc := newTestPaperService(t, st)
	seedPapers(t, svc)
	ctx := context.Background()

	res, err := svc.List(ctx, model.ListPapersRequest{Query: "expert mixture", Age: "all", Sort: "tweets"}, nil)
	if err != nil {
		t.Fatalf("text list: %v", err)
	}
	got := ids(res)
	if len(got) != 2 {
		t.Fatalf("text results: %v", got)
	}
	for _, id := range got {
		if id == "a2" {
			t.Fatalf("text search matched unrelated paper: %v", got)
		}
	}
	if res.Count != 2 {
		t.Fatalf("text count: %d", res.Count)
	}

	// Secondary filters still apply in search mode.
	res, err = svc.List(ctx, model.ListPapersRequest{Query: "mixture", Age: "week"}, nil)
	if err != nil {
		t.Fatalf("text list windowed: %v", err)
	}
	if got := ids(res); len(got) != 1 || got[0] != "a1" {
		t.Fatalf("windowed text results: %v", got)
	}
}

func TestPaperList_LibraryScope(t *testing.T) {
	st := newTestStore(t)
	svc := newTestPaperService(t, st)
	seedPapers(t, svc)
	ctx := context.Background()

	// Anonymous library requests are rejected.
	if _, err := svc.List(ctx, model.ListPapersRequest{Library: true}, nil); !errors.Is(err, model.ErrUnauthorized) {
		t.Fatalf("anonymous library: want ErrUnauthorized, got %v", err)
	}

	u, err := st.Users().Create(ctx, &model.User{Email: "ada@example.test"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	// An empty library yields an empty page, never the full corpus.
	res, err := svc.List(ctx, model.ListPapersRequest{Library: true, Age: "all"}, &u.UserID)
	if err != nil || len(res.Papers) != 0 || res.Count != 0 {
		t.Fatalf("empty library: n=%d count=%d err=%v", len(res.Papers), res.Count, err)
	}

	if err := svc.SaveToLibrary(ctx, u.UserID, "a3"); err != nil {
		t.Fatalf("save: %v", err)
	}
	res, err = svc.List(ctx, model.ListPapersRequest{Library: true, Age: "all"}, &u.UserID)
	if err != nil || len(res.Papers) != 1 || res.Papers[0].Paper.PaperID != "a3" {
		t.Fatalf("library listing: %v err=%v", ids(res), err)
	}
	if !res.Papers[0].Enrichment.Saved {
		t.Fatalf("library paper must be flagged saved")
	}
}

func TestPaperList_GroupOverridesLibrary(t *testing.T) {
	st := newTestStore(t)
	svc := newTestPaperService(t, st)
	seedPapers(t, svc)
	ctx := context.Background()

	u, _ := st.Users().Create(ctx, &model.User{Email: "grace@example.test"})
	g, err := st.Groups().Create(ctx, &model.Group{Name: "vision", CreatedBy: u.UserID})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	if err := st.Groups().AddPaper(ctx, g.GroupID, "a2"); err != nil {
		t.Fatalf("add paper: %v", err)
	}
	if err := svc.SaveToLibrary(ctx, u.UserID, "a1"); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Both scopes requested: the group wins.
	res, err := svc.List(ctx, model.ListPapersRequest{Library: true, GroupID: g.GroupID, Age: "all"}, &u.UserID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := ids(res); len(got) != 1 || got[0] != "a2" {
		t.Fatalf("group scope must override library: %v", got)
	}

	if _, err := svc.List(ctx, model.ListPapersRequest{GroupID: "missing"}, &u.UserID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("missing group: want ErrNotFound, got %v", err)
	}
}

func TestPaperList_Enrichment(t *testing.T) {
	st := newTestStore(t)
	svc := newTestPaperService(t, st)
	seedPapers(t, svc)
	ctx := context.Background()

	u, _ := st.Users().Create(ctx, &model.User{Email: "enrich@example.test"})
	g, _ := st.Groups().Create(ctx, &model.Group{Name: "experts", CreatedBy: u.UserID})
	_ = st.Groups().AddPaper(ctx, g.GroupID, "a1")
	_ = svc.SaveToLibrary(ctx, u.UserID, "a1")
	for _, vis := range []string{model.VisibilityPublic, model.VisibilityAnonymous, model.VisibilityPrivate} {
		if _, err := st.Comments().Create(ctx, &model.Comment{
			PaperID:    "a1",
			UserID:     &u.UserID,
			Text:       "note",
			IsGeneral:  true,
			Visibility: model.Visibility{Type: vis},
		}); err != nil {
			t.Fatalf("comment %s: %v", vis, err)
		}
	}

	res, err := svc.List(ctx, model.ListPapersRequest{Age: "all", Sort: "date"}, &u.UserID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var a1, a2 *EnrichedPaper
	for i := range res.Papers {
		switch res.Papers[i].Paper.PaperID {
		case "a1":
			a1 = &res.Papers[i]
		case "a2":
			a2 = &res.Papers[i]
		}
	}
	if a1 == nil || a2 == nil {
		t.Fatalf("listing missing seeded papers: %v", ids(res))
	}
	// Private comments are excluded from the public count.
	if a1.Enrichment.CommentCount != 2 {
		t.Fatalf("comment count: %d", a1.Enrichment.CommentCount)
	}
	if !a1.Enrichment.Saved || a2.Enrichment.Saved {
		t.Fatalf("saved flags: a1=%v a2=%v", a1.Enrichment.Saved, a2.Enrichment.Saved)
	}
	if len(a1.Enrichment.Groups) != 1 || a1.Enrichment.Groups[0].Name != "experts" {
		t.Fatalf("groups enrichment: %v", a1.Enrichment.Groups)
	}
	// Commentless papers report 0 and groups are present but empty.
	if a2.Enrichment.CommentCount != 0 || a2.Enrichment.Groups == nil {
		t.Fatalf("zero-value enrichment: %+v", a2.Enrichment)
	}

	// Anonymous viewers never get saved flags or groups.
	res, err = svc.List(ctx, model.ListPapersRequest{Age: "all"}, nil)
	if err != nil {
		t.Fatalf("anon list: %v", err)
	}
	for _, p := range res.Papers {
		if p.Enrichment.Saved || len(p.Enrichment.Groups) != 0 {
			t.Fatalf("anonymous enrichment leaked identity data: %+v", p.Enrichment)
		}
	}
}

func TestPaperGet(t *testing.T) {
	st := newTestStore(t)
	svc := newTestPaperService(t, st)
	seedPapers(t, svc)
	ctx := context.Background()

	got, err := svc.Get(ctx, "a2", nil)
	if err != nil || got.Paper.Title != "Diffusion Models for Images" {
		t.Fatalf("get: %+v err=%v", got, err)
	}
	if _, err := svc.Get(ctx, "missing", nil); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("get missing: want ErrNotFound, got %v", err)
	}
}
