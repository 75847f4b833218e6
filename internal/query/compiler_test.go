package query

import (
	"errors"
	"testing"
	"time"

	"github.com/paperdesk/paperdesk/internal/model"
	"github.com/paperdesk/paperdesk/internal/store"
)

var testNow = time.Date(2021, 3, 15, 10, 0, 0, 0, time.UTC)

func TestCompile_Defaults(t *testing.T) {
	p, err := Compile(model.ListPapersRequest{}, Scope{}, testNow)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if p.Sort != store.SortDate {
		t.Fatalf("default sort: got %q", p.Sort)
	}
	if p.Skip != 0 || p.Limit != PageSize {
		t.Fatalf("default window: skip=%d limit=%d", p.Skip, p.Limit)
	}
	if !p.WithCount {
		t.Fatalf("page 1 must compute count")
	}
	// Default age is one week.
	want := testNow.Add(-7 * 24 * time.Hour)
	if p.Filter.PublishedAfter == nil || !p.Filter.PublishedAfter.Equal(want) {
		t.Fatalf("default age window: got %v want %v", p.Filter.PublishedAfter, want)
	}
	if p.Filter.IDs != nil {
		t.Fatalf("unscoped request must leave IDs nil, got %v", p.Filter.IDs)
	}
}

func TestCompile_AgeWindows(t *testing.T) {
	cases := map[string]int{"day": 1, "3days": 3, "week": 7, "month": 30, "year": 365}
	for age, days := range cases {
		p, err := Compile(model.ListPapersRequest{Age: age}, Scope{}, testNow)
		if err != nil {
			t.Fatalf("compile age=%s: %v", age, err)
		}
		want := testNow.Add(-time.Duration(days) * 24 * time.Hour)
		if p.Filter.PublishedAfter == nil || !p.Filter.PublishedAfter.Equal(want) {
			t.Fatalf("age=%s: got %v want %v", age, p.Filter.PublishedAfter, want)
		}
	}

	p, err := Compile(model.ListPapersRequest{Age: "all"}, Scope{}, testNow)
	if err != nil {
		t.Fatalf("compile age=all: %v", err)
	}
	if p.Filter.PublishedAfter != nil {
		t.Fatalf("age=all must disable the time filter, got %v", p.Filter.PublishedAfter)
	}

	if _, err := Compile(model.ListPapersRequest{Age: "fortnight"}, Scope{}, testNow); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("unknown age: want ErrValidation, got %v", err)
	}
}

func TestCompile_SortMapping(t *testing.T) {
	cases := map[string]store.PaperSort{
		"date":      store.SortDate,
		"tweets":    store.SortTweets,
		"bookmarks": store.SortBookmarks,
	}
	for in, want := range cases {
		p, err := Compile(model.ListPapersRequest{Sort: in}, Scope{}, testNow)
		if err != nil || p.Sort != want {
			t.Fatalf("sort=%s: got %q err=%v", in, p.Sort, err)
		}
	}

	if _, err := Compile(model.ListPapersRequest{Sort: "stars"}, Scope{}, testNow); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("unknown sort: want ErrValidation, got %v", err)
	}
	// Relevance sort is only meaningful with a text query.
	if _, err := Compile(model.ListPapersRequest{Sort: "score"}, Scope{}, testNow); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("score without query: want ErrValidation, got %v", err)
	}
	if p, err := Compile(model.ListPapersRequest{Sort: "score", Query: "transformers"}, Scope{}, testNow); err != nil || p.Sort != store.SortRelevance {
		t.Fatalf("score with query: got %q err=%v", p.Sort, err)
	}
}

func TestCompile_TextOverridesSort(t *testing.T) {
	p, err := Compile(model.ListPapersRequest{Query: "  attention  ", Sort: "tweets"}, Scope{}, testNow)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if p.Sort != store.SortRelevance {
		t.Fatalf("text search must force relevance sort, got %q", p.Sort)
	}
	if p.TextQuery != "attention" {
		t.Fatalf("text query not trimmed: %q", p.TextQuery)
	}
}

func TestCompile_Pagination(t *testing.T) {
	p, err := Compile(model.ListPapersRequest{PageNum: 3}, Scope{}, testNow)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if p.Skip != 2*PageSize || p.Limit != PageSize {
		t.Fatalf("page 3 window: skip=%d limit=%d", p.Skip, p.Limit)
	}
	if p.WithCount {
		t.Fatalf("count must only be computed on page 1")
	}

	if _, err := Compile(model.ListPapersRequest{PageNum: -1}, Scope{}, testNow); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("negative page: want ErrValidation, got %v", err)
	}
}

func TestCompile_Categories(t *testing.T) {
	p, err := Compile(model.ListPapersRequest{Categories: "cs.CL; cs.LG ;;"}, Scope{}, testNow)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if len(p.Filter.Tags) != 2 || p.Filter.Tags[0] != "cs.CL" || p.Filter.Tags[1] != "cs.LG" {
		t.Fatalf("categories: %v", p.Filter.Tags)
	}

	// Degenerate list means no category filter, not "match nothing".
	p, err = Compile(model.ListPapersRequest{Categories: " ; ; "}, Scope{}, testNow)
	if err != nil || p.Filter.Tags != nil {
		t.Fatalf("all-empty categories: tags=%v err=%v", p.Filter.Tags, err)
	}
}

func TestCompile_ScopePrecedence(t *testing.T) {
	scope := Scope{
		LibraryOnly: true,
		LibraryIDs:  []string{"lib1", "lib2"},
		HasGroup:    true,
		GroupIDs:    []string{"grp1"},
	}
	p, err := Compile(model.ListPapersRequest{}, scope, testNow)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	// Group scope wins over library scope.
	if len(p.Filter.IDs) != 1 || p.Filter.IDs[0] != "grp1" {
		t.Fatalf("group scope must override library: %v", p.Filter.IDs)
	}

	p, err = Compile(model.ListPapersRequest{}, Scope{LibraryOnly: true, LibraryIDs: []string{"lib1"}}, testNow)
	if err != nil || len(p.Filter.IDs) != 1 || p.Filter.IDs[0] != "lib1" {
		t.Fatalf("library scope: ids=%v err=%v", p.Filter.IDs, err)
	}
}

func TestCompile_EmptyScopeMatchesNothing(t *testing.T) {
	// An empty library (or empty group) must compile to a non-nil empty
	// id set so the store matches zero papers instead of all of them.
	p, err := Compile(model.ListPapersRequest{}, Scope{LibraryOnly: true}, testNow)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if p.Filter.IDs == nil || len(p.Filter.IDs) != 0 {
		t.Fatalf("empty library scope: ids=%v", p.Filter.IDs)
	}

	p, err = Compile(model.ListPapersRequest{}, Scope{HasGroup: true}, testNow)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if p.Filter.IDs == nil || len(p.Filter.IDs) != 0 {
		t.Fatalf("empty group scope: ids=%v", p.Filter.IDs)
	}
}
