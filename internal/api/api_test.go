package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/paperdesk/paperdesk/internal/auth"
	"github.com/paperdesk/paperdesk/internal/model"
	"github.com/paperdesk/paperdesk/internal/searchindex"
	"github.com/paperdesk/paperdesk/internal/store"
	"github.com/paperdesk/paperdesk/internal/store/sqlite"
)

func newTestServer(t *testing.T) (*httptest.Server, store.Store) {
	t.Helper()
	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("sqlite open: %v", err)
	}
	router := NewRouter(st, searchindex.NewStoreIndex(st.Papers()), auth.NewStaticAuthorizer(), 500)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, st
}

func seedAPI(t *testing.T, st store.Store) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	papers := []*model.Paper{
		{PaperID: "h1", Title: "Neural ODEs", Abstract: "Continuous depth networks.", Authors: []model.Author{{Name: "R. Chen"}}, Tags: []string{"cs.LG"}, PublishedAt: now.Add(-2 * time.Hour), TweetScore: 12},
		{PaperID: "h2", Title: "Graph Attention", Abstract: "Attention over graph neighborhoods.", Authors: []model.Author{{Name: "P. Velickovic"}}, Tags: []string{"cs.LG"}, PublishedAt: now.Add(-30 * time.Hour), TweetScore: 60},
	}
	for _, p := range papers {
		if err := st.Papers().Upsert(ctx, p); err != nil {
			t.Fatalf("seed %s: %v", p.PaperID, err)
		}
	}
	if _, err := st.Users().Create(ctx, &model.User{UserID: "alice", Email: "alice@example.test"}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func doJSON(t *testing.T, method, url, apiKey string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	var out bytes.Buffer
	if _, err := out.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, out.Bytes()
}

func TestAPI_ListPapers(t *testing.T) {
	srv, st := newTestServer(t)
	seedAPI(t, st)

	resp, body := doJSON(t, "GET", srv.URL+"/api/papers?age=all&sort=tweets", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.StatusCode, body)
	}
	var out struct {
		Papers []map[string]interface{} `json:"papers"`
		Count  int                      `json:"count"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Papers) != 2 || out.Count != 2 {
		t.Fatalf("listing: n=%d count=%d", len(out.Papers), out.Count)
	}
	if out.Papers[0]["id"] != "h2" {
		t.Fatalf("tweets sort: first=%v", out.Papers[0]["id"])
	}
	// Shaped fields present with their external names.
	for _, key := range []string{"saved_in_library", "twtr_score", "bookmarks_count", "comments_count", "github", "groups", "time_published"} {
		if _, ok := out.Papers[0][key]; !ok {
			t.Fatalf("missing shaped field %q", key)
		}
	}

	// Invalid enums surface as 400.
	resp, _ = doJSON(t, "GET", srv.URL+"/api/papers?age=century", "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad age status=%d", resp.StatusCode)
	}
	resp, _ = doJSON(t, "GET", srv.URL+"/api/papers?sort=upvotes", "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad sort status=%d", resp.StatusCode)
	}
}

func TestAPI_Library(t *testing.T) {
	srv, st := newTestServer(t)
	seedAPI(t, st)
	key := "sk_dev_alice"

	// Anonymous library access is rejected.
	resp, _ := doJSON(t, "GET", srv.URL+"/api/library", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anon library status=%d", resp.StatusCode)
	}

	resp, _ = doJSON(t, "POST", srv.URL+"/api/library/h1/save", key, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("save status=%d", resp.StatusCode)
	}
	resp, _ = doJSON(t, "POST", srv.URL+"/api/library/missing/save", key, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("save missing status=%d", resp.StatusCode)
	}

	resp, body := doJSON(t, "GET", srv.URL+"/api/library?age=all", key, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("library status=%d body=%s", resp.StatusCode, body)
	}
	var out struct {
		Papers []map[string]interface{} `json:"papers"`
		Count  int                      `json:"count"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Papers) != 1 || out.Papers[0]["id"] != "h1" || out.Papers[0]["saved_in_library"] != true {
		t.Fatalf("library listing: %+v", out.Papers)
	}
	if bc, _ := out.Papers[0]["bookmarks_count"].(float64); bc != 1 {
		t.Fatalf("bookmarks count after save: %v", out.Papers[0]["bookmarks_count"])
	}

	resp, _ = doJSON(t, "POST", srv.URL+"/api/library/h1/remove", key, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("remove status=%d", resp.StatusCode)
	}
	resp, body = doJSON(t, "GET", srv.URL+"/api/library?age=all", key, nil)
	if err := json.Unmarshal(body, &out); err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("library after remove: status=%d err=%v", resp.StatusCode, err)
	}
	if len(out.Papers) != 0 || out.Count != 0 {
		t.Fatalf("library must be empty: n=%d count=%d", len(out.Papers), out.Count)
	}
}

func TestAPI_CommentsAndGroups(t *testing.T) {
	srv, st := newTestServer(t)
	seedAPI(t, st)
	key := "sk_dev_alice"

	// Create a group and add a paper.
	resp, body := doJSON(t, "POST", srv.URL+"/api/groups", key, map[string]string{"name": "journal-club"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create group status=%d body=%s", resp.StatusCode, body)
	}
	var g model.Group
	if err := json.Unmarshal(body, &g); err != nil || g.GroupID == "" {
		t.Fatalf("decode group: %v", err)
	}
	resp, _ = doJSON(t, "POST", fmt.Sprintf("%s/api/groups/%s/papers/h1", srv.URL, g.GroupID), key, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("add paper status=%d", resp.StatusCode)
	}

	// Group-scoped listing returns only group papers.
	resp, body = doJSON(t, "GET", srv.URL+"/api/papers?age=all&group="+g.GroupID, key, nil)
	var listing struct {
		Papers []map[string]interface{} `json:"papers"`
	}
	if err := json.Unmarshal(body, &listing); err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("group listing: status=%d err=%v", resp.StatusCode, err)
	}
	if len(listing.Papers) != 1 || listing.Papers[0]["id"] != "h1" {
		t.Fatalf("group listing papers: %+v", listing.Papers)
	}

	// Post a public comment, then read it back anonymously.
	resp, body = doJSON(t, "POST", srv.URL+"/api/papers/h1/comments", key, map[string]interface{}{
		"text":       "great read",
		"is_general": true,
		"visibility": map[string]string{"type": "public"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create comment status=%d body=%s", resp.StatusCode, body)
	}
	var c model.Comment
	if err := json.Unmarshal(body, &c); err != nil {
		t.Fatalf("decode comment: %v", err)
	}

	resp, body = doJSON(t, "GET", srv.URL+"/api/papers/h1/comments", "", nil)
	var comments struct {
		Comments []model.Comment `json:"comments"`
	}
	if err := json.Unmarshal(body, &comments); err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("list comments: status=%d err=%v", resp.StatusCode, err)
	}
	if len(comments.Comments) != 1 || comments.Comments[0].Text != "great read" {
		t.Fatalf("comments: %+v", comments.Comments)
	}

	// Comment count shows up in the listing.
	resp, body = doJSON(t, "GET", srv.URL+"/api/papers?age=all", "", nil)
	if err := json.Unmarshal(body, &listing); err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("listing after comment: status=%d err=%v", resp.StatusCode, err)
	}
	for _, p := range listing.Papers {
		if p["id"] == "h1" {
			if cc, _ := p["comments_count"].(float64); cc != 1 {
				t.Fatalf("comments_count: %v", p["comments_count"])
			}
		}
	}

	// Only the owner may delete.
	resp, _ = doJSON(t, "DELETE", srv.URL+"/api/comments/"+c.CommentID, "sk_dev_bob", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("foreign delete status=%d", resp.StatusCode)
	}
	resp, _ = doJSON(t, "DELETE", srv.URL+"/api/comments/"+c.CommentID, key, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("owner delete status=%d", resp.StatusCode)
	}
}

func TestAPI_Health(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, "GET", srv.URL+"/api/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status=%d", resp.StatusCode)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := out["status"]; !ok {
		t.Fatalf("health body: %s", body)
	}
}
