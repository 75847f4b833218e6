package model

import (
	"encoding/json"
	"time"
)

// Paper is a stored paper record. PaperID is an upstream identifier
// (arXiv-style) and is immutable once assigned.
type Paper struct {
	PaperID     string     `json:"paperId"`
	Title       string     `json:"title"`
	Abstract    string     `json:"abstract"`
	Authors     []Author   `json:"authors"`
	Tags        []string   `json:"tags,omitempty"`
	PublishedAt time.Time  `json:"publishedAt"`
	TweetScore  int        `json:"tweetScore"`
	StarCount   int        `json:"starCount"`
	Tweets      []TweetRef `json:"tweets,omitempty"`
	Code        *CodeLink  `json:"code,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Author is a paper author in source order.
type Author struct {
	Name        string `json:"name"`
	Affiliation string `json:"affiliation,omitempty"`
}

// TweetRef records one external tweet mentioning a paper.
type TweetRef struct {
	TweetID  string `json:"tweetId"`
	Handle   string `json:"handle"`
	Likes    int    `json:"likes"`
	Retweets int    `json:"retweets"`
	Replies  int    `json:"replies"`
}

// CodeLink is the optional code-repository metadata attached by the
// papers-with-code sync.
type CodeLink struct {
	GithubURL string `json:"githubUrl"`
	Stars     int    `json:"stars"`
	PwcURL    string `json:"pwcUrl,omitempty"`
}

// User represents an account in the system.
type User struct {
	UserID      string    `json:"userId"`
	Email       string    `json:"email"`
	DisplayName *string   `json:"displayName,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Group is a named collection of users and papers with shared visibility.
type Group struct {
	GroupID   string    `json:"groupId"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// GroupRef is the compact group shape attached to listed papers.
type GroupRef struct {
	GroupID string `json:"id"`
	Name    string `json:"name"`
}

// Visibility values for comments.
const (
	VisibilityPublic    = "public"
	VisibilityPrivate   = "private"
	VisibilityAnonymous = "anonymous"
	VisibilityGroup     = "group"
)

// Visibility scopes who can read a comment. Type "group" must carry
// the id of an existing group.
type Visibility struct {
	Type    string `json:"type"`
	GroupID string `json:"id,omitempty"`
}

// Comment belongs to exactly one paper. A general comment carries no
// anchor; a non-general comment carries both Position and
// HighlightedText.
type Comment struct {
	CommentID       string          `json:"commentId"`
	PaperID         string          `json:"paperId"`
	UserID          *string         `json:"userId,omitempty"`
	Text            string          `json:"text"`
	HighlightedText *string         `json:"highlightedText,omitempty"`
	Position        json.RawMessage `json:"position,omitempty"`
	IsGeneral       bool            `json:"isGeneral"`
	Visibility      Visibility      `json:"visibility"`
	CreatedAt       time.Time       `json:"createdAt"`
	Replies         []Reply         `json:"replies,omitempty"`
}

// Reply is a flat response under a comment.
type Reply struct {
	ReplyID   string    `json:"replyId"`
	CommentID string    `json:"commentId"`
	UserID    string    `json:"userId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListPapersRequest captures the query parameters of a listing call.
// Zero values mean "absent".
type ListPapersRequest struct {
	Query      string
	Author     string
	PageNum    int
	Sort       string
	Age        string
	Categories string
	GroupID    string
	// Library restricts results to the caller's saved papers.
	Library bool
}

// PaperHit is one text-search result: a paper id with its relevance
// score from the full-text index.
type PaperHit struct {
	PaperID string  `json:"paperId"`
	Score   float64 `json:"score"`
}
