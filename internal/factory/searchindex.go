package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/paperdesk/paperdesk/internal/config"
	"github.com/paperdesk/paperdesk/internal/searchindex"
	storepkg "github.com/paperdesk/paperdesk/internal/store"
)

// NewSearchIndex builds the configured text-search backend. The store
// backend reuses the store's own full-text facility; the weaviate
// backend talks to an external BM25 index and bootstraps its schema
// asynchronously.
func NewSearchIndex(ctx context.Context, cfg *config.Config, st storepkg.Store, log zerolog.Logger) (searchindex.Index, error) {
	switch cfg.SearchBackend {
	case "store":
		return searchindex.NewStoreIndex(st.Papers()), nil
	case "weaviate":
		if cfg.SearchIndexURL == "" {
			return nil, fmt.Errorf("PAPERDESK_SEARCH_INDEX_URL is required when SEARCH_BACKEND=weaviate")
		}
		idx, err := searchindex.NewWeaviateIndex(cfg.SearchIndexURL)
		if err != nil {
			return nil, err
		}
		go func() {
			bootstrapTimeout := time.Duration(cfg.BootstrapTimeoutSeconds) * time.Second
			bootstrapCtx, cancel := context.WithTimeout(ctx, bootstrapTimeout)
			defer cancel()

			if err := searchindex.BootstrapWeaviate(bootstrapCtx, cfg.SearchIndexURL); err != nil {
				log.Warn().Err(err).Str("url", cfg.SearchIndexURL).Msg("search index bootstrap failed")
			} else {
				log.Debug().Str("url", cfg.SearchIndexURL).Msg("search index bootstrap completed")
			}
		}()
		return idx, nil
	default:
		return nil, fmt.Errorf("unknown SEARCH_BACKEND: %s", cfg.SearchBackend)
	}
}
