package searchindex

import (
	"context"

	"github.com/paperdesk/paperdesk/internal/model"
	"github.com/paperdesk/paperdesk/internal/store"
)

// storeIndex delegates relevance search to the store's own full-text
// facility (FTS5 on SQLite, tsvector on Postgres). Ingest maintenance
// is a no-op: the store keeps its index current on upsert.
type storeIndex struct{ papers store.Papers }

// NewStoreIndex wraps a store's full-text search as an Index.
func NewStoreIndex(papers store.Papers) Index { return &storeIndex{papers: papers} }

func (s *storeIndex) SearchPapers(ctx context.Context, query string, topK int) ([]model.PaperHit, error) {
	return s.papers.TextSearch(ctx, query, topK)
}

func (s *storeIndex) IndexPaper(ctx context.Context, p *model.Paper) error { return nil }

func (s *storeIndex) DeletePaper(ctx context.Context, paperID string) error { return nil }
