package scrape

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/paperdesk/paperdesk/internal/model"
)

// ArxivFetcher pulls recent submissions from the arXiv Atom API.
type ArxivFetcher struct {
	client     *resty.Client
	categories []string
	maxResults int
	log        zerolog.Logger
}

// NewArxivFetcher creates a fetcher for the given API base URL and a
// ';'-separated category list (e.g. "cs.LG;cs.CL").
func NewArxivFetcher(baseURL, categories string, maxResults int, log zerolog.Logger) *ArxivFetcher {
	var cats []string
	for _, c := range strings.Split(categories, ";") {
		if c = strings.TrimSpace(c); c != "" {
			cats = append(cats, c)
		}
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(2 * time.Minute)
	return &ArxivFetcher{client: c, categories: cats, maxResults: maxResults, log: log}
}

// Atom feed shapes for the arXiv query API.

type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID         string         `xml:"id"`
	Title      string         `xml:"title"`
	Summary    string         `xml:"summary"`
	Published  string         `xml:"published"`
	Authors    []atomAuthor   `xml:"author"`
	Categories []atomCategory `xml:"category"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

// Fetch returns the most recently submitted papers across the configured
// categories, newest first.
func (f *ArxivFetcher) Fetch(ctx context.Context) ([]*model.Paper, error) {
	if len(f.categories) == 0 {
		return nil, fmt.Errorf("arxiv fetch: no categories configured")
	}
	terms := make([]string, 0, len(f.categories))
	for _, c := range f.categories {
		terms = append(terms, "cat:"+c)
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"search_query": strings.Join(terms, " OR "),
			"sortBy":       "submittedDate",
			"sortOrder":    "descending",
			"start":        "0",
			"max_results":  fmt.Sprintf("%d", f.maxResults),
		}).
		Get("")
	if err != nil {
		return nil, fmt.Errorf("arxiv fetch: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("arxiv fetch: status %d", resp.StatusCode())
	}

	var feed atomFeed
	if err := xml.Unmarshal(resp.Body(), &feed); err != nil {
		return nil, fmt.Errorf("arxiv fetch: decode feed: %w", err)
	}

	papers := make([]*model.Paper, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		p, err := entryToPaper(e)
		if err != nil {
			f.log.Warn().Err(err).Str("entry_id", e.ID).Msg("skipping malformed arxiv entry")
			continue
		}
		papers = append(papers, p)
	}
	return papers, nil
}

func entryToPaper(e atomEntry) (*model.Paper, error) {
	id := arxivID(e.ID)
	if id == "" {
		return nil, fmt.Errorf("unrecognized entry id %q", e.ID)
	}
	published, err := time.Parse(time.RFC3339, e.Published)
	if err != nil {
		return nil, fmt.Errorf("parse published: %w", err)
	}
	authors := make([]model.Author, 0, len(e.Authors))
	for _, a := range e.Authors {
		if name := collapseSpace(a.Name); name != "" {
			authors = append(authors, model.Author{Name: name})
		}
	}
	var tags []string
	for _, c := range e.Categories {
		if c.Term != "" {
			tags = append(tags, c.Term)
		}
	}
	return &model.Paper{
		PaperID:     id,
		Title:       collapseSpace(e.Title),
		Abstract:    collapseSpace(e.Summary),
		Authors:     authors,
		Tags:        tags,
		PublishedAt: published.UTC(),
	}, nil
}

// arxivID extracts the bare paper id from an Atom entry id such as
// "http://arxiv.org/abs/2101.00001v2", dropping the version suffix.
func arxivID(entryID string) string {
	i := strings.Index(entryID, "/abs/")
	if i < 0 {
		return ""
	}
	id := entryID[i+len("/abs/"):]
	if j := strings.LastIndex(id, "v"); j > 0 {
		version := id[j+1:]
		if version != "" && strings.IndexFunc(version, func(r rune) bool { return r < '0' || r > '9' }) < 0 {
			id = id[:j]
		}
	}
	return id
}

// collapseSpace folds newlines and runs of whitespace into single
// spaces. arXiv wraps titles and abstracts at a fixed column.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
