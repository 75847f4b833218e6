// Package query turns a declarative listing request into a store query
// plan: conjunctive filter, sort key, pagination window and count mode.
package query

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/paperdesk/paperdesk/internal/model"
	"github.com/paperdesk/paperdesk/internal/store"
)

// PageSize is the fixed listing page size.
const PageSize = 20

// ageDays maps the recency window enum to a day threshold; -1 disables
// the time filter.
var ageDays = map[string]int{
	"day":   1,
	"3days": 3,
	"week":  7,
	"month": 30,
	"year":  365,
	"all":   -1,
}

var sortKeys = map[string]store.PaperSort{
	"date":      store.SortDate,
	"tweets":    store.SortTweets,
	"bookmarks": store.SortBookmarks,
	"score":     store.SortRelevance,
}

// Scope carries the identity-derived candidate restrictions resolved
// before compilation: the caller's saved-paper set and, when a group id
// was requested, that group's paper set.
type Scope struct {
	// LibraryOnly restricts candidates to LibraryIDs.
	LibraryOnly bool
	LibraryIDs  []string
	// HasGroup restricts candidates to GroupIDs. Group scope overrides
	// library scope when both are requested.
	HasGroup bool
	GroupIDs []string
}

// Plan is a compiled, store-ready listing query.
type Plan struct {
	Filter    store.PaperFilter
	Sort      store.PaperSort
	Skip      int
	Limit     int
	TextQuery string
	// WithCount is set only for page 1; other pages report count -1.
	WithCount bool
}

// Compile validates a listing request against scope and produces a Plan.
// Unknown sort or age values are rejected, never silently defaulted.
func Compile(req model.ListPapersRequest, scope Scope, now time.Time) (*Plan, error) {
	page := req.PageNum
	if page == 0 {
		page = 1
	}
	if page < 1 {
		return nil, errors.Wrapf(model.ErrValidation, "page_num must be >= 1, got %d", req.PageNum)
	}

	age := req.Age
	if age == "" {
		age = "week"
	}
	days, ok := ageDays[age]
	if !ok {
		return nil, errors.Wrapf(model.ErrValidation, "unknown age %q", req.Age)
	}

	textQuery := strings.TrimSpace(req.Query)

	sort := store.SortDate
	if req.Sort != "" {
		sort, ok = sortKeys[req.Sort]
		if !ok {
			return nil, errors.Wrapf(model.ErrValidation, "unknown sort %q", req.Sort)
		}
		if sort == store.SortRelevance && textQuery == "" {
			return nil, errors.Wrap(model.ErrValidation, "sort score requires a text query")
		}
	}
	// Text relevance overrides any requested sort in search mode.
	if textQuery != "" {
		sort = store.SortRelevance
	}

	var filter store.PaperFilter
	if days >= 0 {
		cutoff := now.Add(-time.Duration(days) * 24 * time.Hour)
		filter.PublishedAfter = &cutoff
	}
	filter.Author = req.Author
	filter.Tags = splitCategories(req.Categories)

	switch {
	case scope.HasGroup:
		filter.IDs = nonNil(scope.GroupIDs)
	case scope.LibraryOnly:
		filter.IDs = nonNil(scope.LibraryIDs)
	}

	return &Plan{
		Filter:    filter,
		Sort:      sort,
		Skip:      PageSize * (page - 1),
		Limit:     PageSize,
		TextQuery: textQuery,
		WithCount: page == 1,
	}, nil
}

// splitCategories parses the ';'-delimited category list. An all-empty
// list means no category filter, never "match nothing".
func splitCategories(raw string) []string {
	if raw == "" {
		return nil
	}
	var tags []string
	for _, part := range strings.Split(raw, ";") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// nonNil keeps an empty id scope distinguishable from "unrestricted":
// a scoped request over an empty set must match no papers.
func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
