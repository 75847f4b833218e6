package api

import (
	"fmt"
	"time"

	"github.com/paperdesk/paperdesk/internal/model"
	"github.com/paperdesk/paperdesk/internal/services"
)

// timePublishedFormat is the wire format for publication timestamps.
const timePublishedFormat = time.RFC1123Z

// ShapedPaper is the external representation of one enriched paper.
type ShapedPaper struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	SavedInLibrary bool              `json:"saved_in_library"`
	Authors        []ShapedAuthor    `json:"authors"`
	TimePublished  string            `json:"time_published"`
	Summary        string            `json:"summary"`
	TwtrScore      int               `json:"twtr_score"`
	TwtrLinks      []ShapedTweet     `json:"twtr_links"`
	BookmarksCount int               `json:"bookmarks_count"`
	CommentsCount  int               `json:"comments_count"`
	Github         *ShapedCode       `json:"github"`
	Groups         []model.GroupRef  `json:"groups"`
}

type ShapedAuthor struct {
	Name string `json:"name"`
}

type ShapedTweet struct {
	Link  string `json:"link"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type ShapedCode struct {
	Github         string `json:"github"`
	Stars          int    `json:"stars"`
	PapersWithCode string `json:"paperswithcode"`
}

// ListResponse is the wire shape of a listing call. Count is -1 on
// every page but the first.
type ListResponse struct {
	Papers []ShapedPaper `json:"papers"`
	Count  int           `json:"count"`
}

// tweetScore is the fixed engagement weighting applied per tweet.
func tweetScore(t model.TweetRef) int {
	return t.Likes + 2*t.Retweets + 4*t.Replies
}

// shapePaper maps one enriched record to its external representation.
// Pure; no store access.
func shapePaper(ep services.EnrichedPaper) ShapedPaper {
	p := ep.Paper

	authors := make([]ShapedAuthor, len(p.Authors))
	for i, a := range p.Authors {
		authors[i] = ShapedAuthor{Name: a.Name}
	}

	links := make([]ShapedTweet, len(p.Tweets))
	for i, t := range p.Tweets {
		links[i] = ShapedTweet{
			Link:  fmt.Sprintf("https://twitter.com/%s/status/%s", t.Handle, t.TweetID),
			Name:  t.Handle,
			Score: tweetScore(t),
		}
	}

	var code *ShapedCode
	if p.Code != nil {
		code = &ShapedCode{
			Github:         p.Code.GithubURL,
			Stars:          p.Code.Stars,
			PapersWithCode: p.Code.PwcURL,
		}
	}

	groups := ep.Enrichment.Groups
	if groups == nil {
		groups = []model.GroupRef{}
	}

	return ShapedPaper{
		ID:             p.PaperID,
		Title:          p.Title,
		SavedInLibrary: ep.Enrichment.Saved,
		Authors:        authors,
		TimePublished:  p.PublishedAt.UTC().Format(timePublishedFormat),
		Summary:        p.Abstract,
		TwtrScore:      p.TweetScore,
		TwtrLinks:      links,
		BookmarksCount: p.StarCount,
		CommentsCount:  ep.Enrichment.CommentCount,
		Github:         code,
		Groups:         groups,
	}
}

// shapeList shapes a full listing result.
func shapeList(res *services.ListResult) ListResponse {
	papers := make([]ShapedPaper, len(res.Papers))
	for i, ep := range res.Papers {
		papers[i] = shapePaper(ep)
	}
	return ListResponse{Papers: papers, Count: res.Count}
}
