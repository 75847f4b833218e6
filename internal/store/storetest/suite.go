package storetest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/paperdesk/paperdesk/internal/model"
	"github.com/paperdesk/paperdesk/internal/store"
)

// Run exercises a compliance suite against a store.Store implementation.
// Implementations should provide a clean store from makeStore; all fixture
// data is suffixed with a run id so the suite is safe against shared
// databases.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	run := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	id1 := "p1-" + run
	id2 := "p2-" + run
	id3 := "p3-" + run
	runTag := "tag-" + run
	runAuthor := "Author " + run
	// A token no other fixture contains, for text-search assertions.
	token := "zq" + run

	base := time.Date(2020, 6, 1, 12, 0, 0, 0, time.UTC)
	seed := []*model.Paper{
		{
			PaperID:     id1,
			Title:       "Attention Is All You Need " + token,
			Abstract:    "We propose the transformer architecture for sequence transduction.",
			Authors:     []model.Author{{Name: runAuthor}, {Name: "Noam Shazeer"}},
			Tags:        []string{runTag, "cs.CL"},
			PublishedAt: base,
			TweetScore:  40,
			Tweets:      []model.TweetRef{{TweetID: "t1", Handle: "ml_papers", Likes: 10, Retweets: 5, Replies: 5}},
		},
		{
			PaperID:     id2,
			Title:       "Deep Residual Learning",
			Abstract:    "Residual networks ease the training of very deep models.",
			Authors:     []model.Author{{Name: "Kaiming He"}},
			Tags:        []string{runTag, "cs.CV"},
			PublishedAt: base.Add(-48 * time.Hour),
			TweetScore:  90,
		},
		{
			PaperID:     id3,
			Title:       "Language Models are Few-Shot Learners " + token,
			Abstract:    "Scaling transformer language models yields strong few-shot behavior.",
			Authors:     []model.Author{{Name: "Tom Brown"}, {Name: runAuthor}},
			Tags:        []string{runTag, "cs.CL"},
			PublishedAt: base.Add(-400 * 24 * time.Hour),
			TweetScore:  10,
		},
	}
	for _, p := range seed {
		if err := s.Papers().Upsert(ctx, p); err != nil {
			t.Fatalf("Upsert %s: %v", p.PaperID, err)
		}
	}
	tagged := store.PaperFilter{Tags: []string{runTag}}

	// Upsert is idempotent and refreshes fields.
	seed[0].TweetScore = 55
	if err := s.Papers().Upsert(ctx, seed[0]); err != nil {
		t.Fatalf("Upsert again: %v", err)
	}
	if got, err := s.Papers().GetByID(ctx, id1); err != nil || got.TweetScore != 55 {
		t.Fatalf("GetByID after re-upsert: got=%+v err=%v", got, err)
	}

	// GetByID loads nested details.
	if got, err := s.Papers().GetByID(ctx, id1); err != nil {
		t.Fatalf("GetByID: %v", err)
	} else {
		if len(got.Authors) != 2 || got.Authors[0].Name != runAuthor {
			t.Fatalf("authors not preserved in order: %+v", got.Authors)
		}
		if len(got.Tags) != 2 || len(got.Tweets) != 1 {
			t.Fatalf("details missing: tags=%v tweets=%v", got.Tags, got.Tweets)
		}
	}
	if _, err := s.Papers().GetByID(ctx, "missing-"+run); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetByID missing: want ErrNotFound, got %v", err)
	}

	// Find: default date sort, newest first.
	page, err := s.Papers().Find(ctx, store.PaperQuery{Filter: tagged, Sort: store.SortDate, Limit: 10})
	if err != nil {
		t.Fatalf("Find date: %v", err)
	}
	if len(page) != 3 || page[0].PaperID != id1 || page[2].PaperID != id3 {
		t.Fatalf("Find date order wrong: %v", paperIDs(page))
	}

	// Find: tweets sort.
	page, err = s.Papers().Find(ctx, store.PaperQuery{Filter: tagged, Sort: store.SortTweets, Limit: 10})
	if err != nil || len(page) == 0 || page[0].PaperID != id2 {
		t.Fatalf("Find tweets order wrong: %v err=%v", paperIDs(page), err)
	}

	// Find rejects relevance sort.
	if _, err := s.Papers().Find(ctx, store.PaperQuery{Filter: tagged, Sort: store.SortRelevance, Limit: 10}); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("Find relevance: want ErrValidation, got %v", err)
	}

	// Pagination.
	page, err = s.Papers().Find(ctx, store.PaperQuery{Filter: tagged, Sort: store.SortDate, Skip: 1, Limit: 1})
	if err != nil || len(page) != 1 || page[0].PaperID != id2 {
		t.Fatalf("Find paginated: %v err=%v", paperIDs(page), err)
	}

	// Author filter.
	page, err = s.Papers().Find(ctx, store.PaperQuery{Filter: store.PaperFilter{Author: runAuthor}, Sort: store.SortDate, Limit: 10})
	if err != nil || len(page) != 2 {
		t.Fatalf("Find by author: %v err=%v", paperIDs(page), err)
	}

	// Age filter.
	cutoff := base.Add(-7 * 24 * time.Hour)
	n, err := s.Papers().Count(ctx, store.PaperFilter{Tags: []string{runTag}, PublishedAfter: &cutoff})
	if err != nil || n != 2 {
		t.Fatalf("Count recent: n=%d err=%v", n, err)
	}

	// IDs filter: non-nil empty slice matches nothing.
	if n, err := s.Papers().Count(ctx, store.PaperFilter{IDs: []string{}}); err != nil || n != 0 {
		t.Fatalf("Count empty ids: n=%d err=%v", n, err)
	}
	if n, err := s.Papers().Count(ctx, store.PaperFilter{IDs: []string{id1, id3}}); err != nil || n != 2 {
		t.Fatalf("Count ids: n=%d err=%v", n, err)
	}

	// GetByIDs preserves caller order and skips unknowns.
	page, err = s.Papers().GetByIDs(ctx, []string{id3, "missing-" + run, id1})
	if err != nil || len(page) != 2 || page[0].PaperID != id3 || page[1].PaperID != id1 {
		t.Fatalf("GetByIDs: %v err=%v", paperIDs(page), err)
	}

	// Text search finds only the papers carrying the run token.
	hits, err := s.Papers().TextSearch(ctx, token, 10)
	if err != nil || len(hits) != 2 {
		t.Fatalf("TextSearch: hits=%v err=%v", hits, err)
	}
	for _, h := range hits {
		if h.PaperID == id2 {
			t.Fatalf("TextSearch matched unrelated paper: %v", hits)
		}
		if h.Score <= 0 {
			t.Fatalf("TextSearch score not positive: %v", hits)
		}
	}
	if hits, err := s.Papers().TextSearch(ctx, "   ", 10); err != nil || len(hits) != 0 {
		t.Fatalf("TextSearch blank query: hits=%v err=%v", hits, err)
	}

	// SetCode sets and clears the code link.
	if err := s.Papers().SetCode(ctx, id1, &model.CodeLink{GithubURL: "https://github.com/tensorflow/tensor2tensor", Stars: 1200, PwcURL: "https://paperswithcode.com/paper/attention"}); err != nil {
		t.Fatalf("SetCode: %v", err)
	}
	if got, _ := s.Papers().GetByID(ctx, id1); got.Code == nil || got.Code.Stars != 1200 {
		t.Fatalf("code not persisted: %+v", got.Code)
	}
	if err := s.Papers().SetCode(ctx, id1, nil); err != nil {
		t.Fatalf("SetCode clear: %v", err)
	}
	if got, _ := s.Papers().GetByID(ctx, id1); got.Code != nil {
		t.Fatalf("code not cleared: %+v", got.Code)
	}
	if err := s.Papers().SetCode(ctx, "missing-"+run, nil); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("SetCode missing: want ErrNotFound, got %v", err)
	}

	// Users.
	email := "u-" + run + "@example.test"
	u, err := s.Users().Create(ctx, &model.User{Email: email})
	if err != nil || u.UserID == "" {
		t.Fatalf("CreateUser: u=%+v err=%v", u, err)
	}
	if got, err := s.Users().GetByEmail(ctx, email); err != nil || got.UserID != u.UserID {
		t.Fatalf("GetByEmail: got=%+v err=%v", got, err)
	}
	if _, err := s.Users().GetByID(ctx, "missing-"+run); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetByID missing user: want ErrNotFound, got %v", err)
	}

	// Library: first save bumps the star count, repeats do not.
	if err := s.Users().SaveToLibrary(ctx, u.UserID, id2); err != nil {
		t.Fatalf("SaveToLibrary: %v", err)
	}
	if err := s.Users().SaveToLibrary(ctx, u.UserID, id2); err != nil {
		t.Fatalf("SaveToLibrary repeat: %v", err)
	}
	if got, _ := s.Papers().GetByID(ctx, id2); got.StarCount != 1 {
		t.Fatalf("star count after double save: %d", got.StarCount)
	}
	if err := s.Users().SaveToLibrary(ctx, u.UserID, "missing-"+run); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("SaveToLibrary missing paper: want ErrNotFound, got %v", err)
	}
	if lib, err := s.Users().Library(ctx, u.UserID); err != nil || len(lib) != 1 || lib[0] != id2 {
		t.Fatalf("Library: %v err=%v", lib, err)
	}
	if err := s.Users().RemoveFromLibrary(ctx, u.UserID, id2); err != nil {
		t.Fatalf("RemoveFromLibrary: %v", err)
	}
	if got, _ := s.Papers().GetByID(ctx, id2); got.StarCount != 0 {
		t.Fatalf("star count after remove: %d", got.StarCount)
	}
	if err := s.Users().RemoveFromLibrary(ctx, u.UserID, id2); err != nil {
		t.Fatalf("RemoveFromLibrary repeat: %v", err)
	}
	if got, _ := s.Papers().GetByID(ctx, id2); got.StarCount != 0 {
		t.Fatalf("star count went negative: %d", got.StarCount)
	}

	// Groups: creator is a member, membership and paper sets round-trip.
	g, err := s.Groups().Create(ctx, &model.Group{Name: "reading-club-" + run, CreatedBy: u.UserID})
	if err != nil || g.GroupID == "" {
		t.Fatalf("CreateGroup: g=%+v err=%v", g, err)
	}
	if mine, err := s.Groups().GroupsOf(ctx, u.UserID); err != nil || len(mine) != 1 || mine[0].GroupID != g.GroupID {
		t.Fatalf("GroupsOf creator: %v err=%v", mine, err)
	}
	other, err := s.Users().Create(ctx, &model.User{Email: "o-" + run + "@example.test"})
	if err != nil {
		t.Fatalf("CreateUser other: %v", err)
	}
	if err := s.Groups().Join(ctx, g.GroupID, other.UserID); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if err := s.Groups().Join(ctx, "missing-"+run, other.UserID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Join missing group: want ErrNotFound, got %v", err)
	}
	if err := s.Groups().AddPaper(ctx, g.GroupID, id1); err != nil {
		t.Fatalf("AddPaper: %v", err)
	}
	if err := s.Groups().AddPaper(ctx, g.GroupID, id1); err != nil {
		t.Fatalf("AddPaper repeat: %v", err)
	}
	if ids, err := s.Groups().PapersOf(ctx, g.GroupID); err != nil || len(ids) != 1 {
		t.Fatalf("PapersOf: %v err=%v", ids, err)
	}
	refs, err := s.Groups().ForUserAndPapers(ctx, u.UserID, []string{id1, id2})
	if err != nil || len(refs[id1]) != 1 || refs[id1][0].Name != g.Name {
		t.Fatalf("ForUserAndPapers: %v err=%v", refs, err)
	}
	if len(refs[id2]) != 0 {
		t.Fatalf("ForUserAndPapers leaked paper: %v", refs)
	}
	// A non-member sees no group annotations.
	stranger, _ := s.Users().Create(ctx, &model.User{Email: "s-" + run + "@example.test"})
	if refs, err := s.Groups().ForUserAndPapers(ctx, stranger.UserID, []string{id1}); err != nil || len(refs) != 0 {
		t.Fatalf("ForUserAndPapers stranger: %v err=%v", refs, err)
	}
	if err := s.Groups().RemovePaper(ctx, g.GroupID, id1); err != nil {
		t.Fatalf("RemovePaper: %v", err)
	}
	if err := s.Groups().Leave(ctx, g.GroupID, other.UserID); err != nil {
		t.Fatalf("Leave: %v", err)
	}

	// Comments and visibility.
	public, err := s.Comments().Create(ctx, &model.Comment{
		PaperID:    id1,
		UserID:     &u.UserID,
		Text:       "solid baseline",
		IsGeneral:  true,
		Visibility: model.Visibility{Type: model.VisibilityPublic},
	})
	if err != nil || public.CommentID == "" {
		t.Fatalf("CreateComment public: c=%+v err=%v", public, err)
	}
	if _, err := s.Comments().Create(ctx, &model.Comment{
		PaperID:    id1,
		Text:       "anon note",
		IsGeneral:  true,
		Visibility: model.Visibility{Type: model.VisibilityAnonymous},
	}); err != nil {
		t.Fatalf("CreateComment anonymous: %v", err)
	}
	private, err := s.Comments().Create(ctx, &model.Comment{
		PaperID:    id1,
		UserID:     &u.UserID,
		Text:       "my private take",
		IsGeneral:  true,
		Visibility: model.Visibility{Type: model.VisibilityPrivate},
	})
	if err != nil {
		t.Fatalf("CreateComment private: %v", err)
	}
	if _, err := s.Comments().Create(ctx, &model.Comment{
		PaperID:    id1,
		UserID:     &u.UserID,
		Text:       "for the club",
		IsGeneral:  true,
		Visibility: model.Visibility{Type: model.VisibilityGroup, GroupID: g.GroupID},
	}); err != nil {
		t.Fatalf("CreateComment group: %v", err)
	}

	// Anonymous viewer: public + anonymous only.
	lst, err := s.Comments().ListForPaper(ctx, id1, nil, "")
	if err != nil || len(lst) != 2 {
		t.Fatalf("ListForPaper anon: n=%d err=%v", len(lst), err)
	}
	// Author sees their own private comment too.
	lst, err = s.Comments().ListForPaper(ctx, id1, &u.UserID, "")
	if err != nil || len(lst) != 4 {
		t.Fatalf("ListForPaper owner: n=%d err=%v", len(lst), err)
	}
	// Another signed-in user does not see the private one.
	lst, err = s.Comments().ListForPaper(ctx, id1, &other.UserID, "")
	if err != nil || len(lst) != 2 {
		t.Fatalf("ListForPaper other: n=%d err=%v", len(lst), err)
	}
	// Group scope returns only group comments.
	lst, err = s.Comments().ListForPaper(ctx, id1, &u.UserID, g.GroupID)
	if err != nil || len(lst) != 1 || lst[0].Text != "for the club" {
		t.Fatalf("ListForPaper group: n=%d err=%v", len(lst), err)
	}

	// Counts aggregate only the requested visibilities.
	counts, err := s.Comments().CountByPaper(ctx, []string{id1, id2}, []string{model.VisibilityPublic, model.VisibilityAnonymous})
	if err != nil || counts[id1] != 2 {
		t.Fatalf("CountByPaper: %v err=%v", counts, err)
	}
	if _, ok := counts[id2]; ok {
		t.Fatalf("CountByPaper included commentless paper: %v", counts)
	}

	// Replies.
	r, err := s.Comments().AddReply(ctx, &model.Reply{CommentID: public.CommentID, UserID: other.UserID, Text: "agreed"})
	if err != nil || r.ReplyID == "" {
		t.Fatalf("AddReply: r=%+v err=%v", r, err)
	}
	if _, err := s.Comments().AddReply(ctx, &model.Reply{CommentID: "missing-" + run, UserID: other.UserID, Text: "x"}); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("AddReply missing comment: want ErrNotFound, got %v", err)
	}
	if got, err := s.Comments().Get(ctx, public.CommentID); err != nil || len(got.Replies) != 1 || got.Replies[0].Text != "agreed" {
		t.Fatalf("Get with replies: got=%+v err=%v", got, err)
	}

	// Update and delete.
	if upd, err := s.Comments().Update(ctx, private.CommentID, "now public", model.Visibility{Type: model.VisibilityPublic}); err != nil || upd.Text != "now public" || upd.Visibility.Type != model.VisibilityPublic {
		t.Fatalf("UpdateComment: got=%+v err=%v", upd, err)
	}
	if _, err := s.Comments().Update(ctx, "missing-"+run, "x", model.Visibility{Type: model.VisibilityPublic}); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("UpdateComment missing: want ErrNotFound, got %v", err)
	}
	if err := s.Comments().Delete(ctx, public.CommentID); err != nil {
		t.Fatalf("DeleteComment: %v", err)
	}
	if _, err := s.Comments().Get(ctx, public.CommentID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Get deleted comment: want ErrNotFound, got %v", err)
	}
	if err := s.Comments().Delete(ctx, public.CommentID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("DeleteComment repeat: want ErrNotFound, got %v", err)
	}
}

func paperIDs(ps []*model.Paper) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.PaperID
	}
	return out
}
