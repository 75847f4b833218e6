package searchindex

import (
	"context"

	"github.com/paperdesk/paperdesk/internal/model"
)

// Index provides full-text relevance search over papers plus index
// maintenance hooks for the ingest path.
type Index interface {
	// SearchPapers returns up to topK paper ids ranked by relevance,
	// best first. Scores are backend-specific but always higher-is-better.
	SearchPapers(ctx context.Context, query string, topK int) ([]model.PaperHit, error)

	// IndexPaper upserts one paper's searchable text.
	IndexPaper(ctx context.Context, p *model.Paper) error

	// DeletePaper removes a paper from the index. Missing ids are not
	// an error.
	DeletePaper(ctx context.Context, paperID string) error
}

// HealthPinger is optionally implemented by an Index to expose
// specialized health check logic. Returns nil when healthy.
type HealthPinger interface {
	HealthPing(ctx context.Context) error
}
