package api

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/paperdesk/paperdesk/internal/model"
	"github.com/paperdesk/paperdesk/internal/services"
)

func TestShapePaper_FieldMapping(t *testing.T) {
	published := time.Date(2021, 7, 4, 16, 30, 0, 0, time.UTC)
	ep := services.EnrichedPaper{
		Paper: &model.Paper{
			PaperID:     "2107.01234",
			Title:       "A Paper",
			Abstract:    "An abstract.",
			Authors:     []model.Author{{Name: "Ada Lovelace", Affiliation: "Analytical Engines"}, {Name: "Alan Turing"}},
			PublishedAt: published,
			TweetScore:  77,
			StarCount:   12,
			Tweets: []model.TweetRef{
				{TweetID: "9001", Handle: "ml_person", Likes: 10, Retweets: 2, Replies: 1},
			},
			Code: &model.CodeLink{GithubURL: "https://github.com/x/y", Stars: 42, PwcURL: "https://paperswithcode.com/paper/y"},
		},
		Enrichment: services.Enrichment{
			Saved:        true,
			CommentCount: 3,
			Groups:       []model.GroupRef{{GroupID: "g1", Name: "club"}},
		},
	}

	sp := shapePaper(ep)
	if sp.ID != "2107.01234" || sp.Title != "A Paper" || sp.Summary != "An abstract." {
		t.Fatalf("identity fields: %+v", sp)
	}
	if !sp.SavedInLibrary || sp.CommentsCount != 3 || sp.BookmarksCount != 12 || sp.TwtrScore != 77 {
		t.Fatalf("enrichment fields: %+v", sp)
	}
	// Authors carry only names.
	if len(sp.Authors) != 2 || sp.Authors[0].Name != "Ada Lovelace" {
		t.Fatalf("authors: %+v", sp.Authors)
	}
	if sp.TimePublished != published.Format(time.RFC1123Z) {
		t.Fatalf("time_published: %q", sp.TimePublished)
	}
	// likes + 2*retweets + 4*replies = 10 + 4 + 4 = 18.
	if len(sp.TwtrLinks) != 1 || sp.TwtrLinks[0].Score != 18 {
		t.Fatalf("tweet score: %+v", sp.TwtrLinks)
	}
	if sp.TwtrLinks[0].Link != "https://twitter.com/ml_person/status/9001" || sp.TwtrLinks[0].Name != "ml_person" {
		t.Fatalf("tweet link: %+v", sp.TwtrLinks[0])
	}
	if sp.Github == nil || sp.Github.Github != "https://github.com/x/y" || sp.Github.Stars != 42 || sp.Github.PapersWithCode != "https://paperswithcode.com/paper/y" {
		t.Fatalf("github: %+v", sp.Github)
	}
	if len(sp.Groups) != 1 || sp.Groups[0].Name != "club" {
		t.Fatalf("groups: %+v", sp.Groups)
	}
}

func TestShapePaper_AbsentCode(t *testing.T) {
	ep := services.EnrichedPaper{
		Paper: &model.Paper{PaperID: "p", PublishedAt: time.Now()},
	}
	sp := shapePaper(ep)

	b, err := json.Marshal(sp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	// A paper without code serializes github as explicit null.
	v, ok := decoded["github"]
	if !ok || v != nil {
		t.Fatalf("github must be null: present=%v value=%v", ok, v)
	}
	// Groups is always a list, even empty.
	if _, ok := decoded["groups"].([]interface{}); !ok {
		t.Fatalf("groups must be a list: %v", decoded["groups"])
	}
	// Zero comments shapes as 0, not null.
	if c, ok := decoded["comments_count"].(float64); !ok || c != 0 {
		t.Fatalf("comments_count: %v", decoded["comments_count"])
	}
}

func TestShapeList_CountSentinel(t *testing.T) {
	out := shapeList(&services.ListResult{Papers: []services.EnrichedPaper{}, Count: -1})
	if out.Count != -1 || out.Papers == nil {
		t.Fatalf("shaped list: %+v", out)
	}
}
