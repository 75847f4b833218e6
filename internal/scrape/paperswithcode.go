package scrape

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/paperdesk/paperdesk/internal/model"
	"github.com/paperdesk/paperdesk/internal/store"
)

// CodeSync pulls the papers-with-code link-stars export and attaches
// repository metadata to known papers.
type CodeSync struct {
	client *resty.Client
	url    string
	log    zerolog.Logger
}

// NewCodeSync creates a sync client. The export endpoint requires basic
// auth credentials issued by papers-with-code.
func NewCodeSync(url, user, password string, log zerolog.Logger) *CodeSync {
	c := resty.New().
		SetTimeout(2 * time.Minute).
		SetBasicAuth(user, password)
	return &CodeSync{client: c, url: url, log: log}
}

// codeRow is one row of the link-stars CSV export.
type codeRow struct {
	ArxivID    string
	GithubLink string
	Stars      int
	PwcURL     string
}

// Fetch downloads and parses the export. Rows without an arxiv id or
// github link are dropped.
func (s *CodeSync) Fetch(ctx context.Context) ([]codeRow, error) {
	resp, err := s.client.R().SetContext(ctx).Get(s.url)
	if err != nil {
		return nil, fmt.Errorf("paperswithcode fetch: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("paperswithcode fetch: status %d", resp.StatusCode())
	}
	return parseLinkstars(string(resp.Body()))
}

func parseLinkstars(body string) ([]codeRow, error) {
	r := csv.NewReader(strings.NewReader(body))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("paperswithcode fetch: parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	col := map[string]int{}
	for i, name := range records[0] {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"arxiv_id", "github_link", "stars"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("paperswithcode fetch: missing column %q", required)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []codeRow
	for _, rec := range records[1:] {
		row := codeRow{
			ArxivID:    field(rec, "arxiv_id"),
			GithubLink: field(rec, "github_link"),
			PwcURL:     field(rec, "paper_url"),
		}
		if row.ArxivID == "" || row.GithubLink == "" {
			continue
		}
		row.Stars, _ = strconv.Atoi(field(rec, "stars"))
		rows = append(rows, row)
	}
	return rows, nil
}

// Sync fetches the export and writes code links for every paper already
// in the store. Unknown paper ids are skipped.
func (s *CodeSync) Sync(ctx context.Context, papers store.Papers) error {
	rows, err := s.Fetch(ctx)
	if err != nil {
		return err
	}

	var updated, missing int
	for _, row := range rows {
		code := &model.CodeLink{
			GithubURL: row.GithubLink,
			Stars:     row.Stars,
			PwcURL:    row.PwcURL,
		}
		if err := papers.SetCode(ctx, row.ArxivID, code); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				missing++
				continue
			}
			return fmt.Errorf("paperswithcode sync: set code for %s: %w", row.ArxivID, err)
		}
		updated++
	}
	s.log.Info().Int("updated", updated).Int("missing", missing).Msg("code link sync finished")
	return nil
}
