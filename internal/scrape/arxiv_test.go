package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const arxivFeedFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2208.11001v2</id>
    <published>2022-08-22T17:59:00Z</published>
    <title>Scaling Laws for
  Sparse Models</title>
    <summary>We study scaling behaviour
  of sparsely activated networks.</summary>
    <author><name>Ada Lovelace</name></author>
    <author><name>Alan Turing</name></author>
    <category term="cs.LG"/>
    <category term="stat.ML"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2208.11002v1</id>
    <published>2022-08-21T09:30:00Z</published>
    <title>Another Paper</title>
    <summary>Abstract text.</summary>
    <author><name>Grace Hopper</name></author>
    <category term="cs.CL"/>
  </entry>
  <entry>
    <id>garbage-id</id>
    <published>2022-08-20T00:00:00Z</published>
    <title>Broken</title>
    <summary>No usable id.</summary>
  </entry>
</feed>`

func TestArxivFetch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search_query")
		assert.Equal(t, "submittedDate", r.URL.Query().Get("sortBy"))
		assert.Equal(t, "50", r.URL.Query().Get("max_results"))
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(arxivFeedFixture))
	}))
	defer srv.Close()

	f := NewArxivFetcher(srv.URL, "cs.LG; cs.CL;", 50, zerolog.Nop())
	papers, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cat:cs.LG OR cat:cs.CL", gotQuery)

	// Malformed entry is skipped.
	require.Len(t, papers, 2)

	p := papers[0]
	assert.Equal(t, "2208.11001", p.PaperID)
	assert.Equal(t, "Scaling Laws for Sparse Models", p.Title)
	assert.Equal(t, "We study scaling behaviour of sparsely activated networks.", p.Abstract)
	require.Len(t, p.Authors, 2)
	assert.Equal(t, "Ada Lovelace", p.Authors[0].Name)
	assert.Equal(t, []string{"cs.LG", "stat.ML"}, p.Tags)
	assert.Equal(t, time.Date(2022, 8, 22, 17, 59, 0, 0, time.UTC), p.PublishedAt)

	assert.Equal(t, "2208.11002", papers[1].PaperID)
}

func TestArxivFetch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewArxivFetcher(srv.URL, "cs.LG", 10, zerolog.Nop())
	_, err := f.Fetch(context.Background())
	require.Error(t, err)
}

func TestArxivID(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"http://arxiv.org/abs/2101.00001v2", "2101.00001"},
		{"http://arxiv.org/abs/2101.00001", "2101.00001"},
		{"https://arxiv.org/abs/cs/0112017v1", "cs/0112017"},
		{"not-a-url", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, arxivID(c.in), "input %q", c.in)
	}
}
