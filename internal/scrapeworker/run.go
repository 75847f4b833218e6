package scrapeworker

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/paperdesk/paperdesk/internal/config"
	"github.com/paperdesk/paperdesk/internal/factory"
	"github.com/paperdesk/paperdesk/internal/logger"
	"github.com/paperdesk/paperdesk/internal/scrape"
	"github.com/paperdesk/paperdesk/internal/services"
	"github.com/paperdesk/paperdesk/internal/store"
)

// Run starts the scrape worker and blocks until shutdown or error.
// Each cycle pulls recent arXiv submissions into the store and, when
// papers-with-code credentials are configured, refreshes code links.
func Run() error {
	log := logger.New("scrape-worker")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Store adapter unavailable")
		return err
	}

	idx, err := factory.NewSearchIndex(ctx, cfg, st, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Search index adapter unavailable")
		return err
	}

	paperSvc := services.NewPaperService(st, idx, cfg.SearchMaxCandidates)
	arxiv := scrape.NewArxivFetcher(cfg.ArxivAPIURL, cfg.ArxivCategories, cfg.ArxivMaxResults, log)

	var codeSync *scrape.CodeSync
	if cfg.PwcUser != "" {
		codeSync = scrape.NewCodeSync(cfg.PwcLinkstarsURL, cfg.PwcUser, cfg.PwcPassword, log)
	} else {
		log.Info().Msg("papers-with-code credentials not set, code link sync disabled")
	}

	interval := time.Duration(cfg.ScrapeIntervalSeconds) * time.Second
	log.Info().Dur("interval", interval).Str("categories", cfg.ArxivCategories).Msg("scrape worker starting")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// First cycle runs immediately so a fresh deployment has data.
	runCycle(ctx, log, paperSvc, arxiv, codeSync, st)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("scrape worker exiting")
			return nil
		case <-ticker.C:
			runCycle(ctx, log, paperSvc, arxiv, codeSync, st)
		}
	}
}

func runCycle(ctx context.Context, log zerolog.Logger, paperSvc *services.PaperService, arxiv *scrape.ArxivFetcher, codeSync *scrape.CodeSync, st store.Store) {
	papers, err := arxiv.Fetch(ctx)
	if err != nil {
		log.Error().Stack().Err(err).Msg("arxiv fetch failed")
	} else {
		var ingested int
		for _, p := range papers {
			if err := paperSvc.Ingest(ctx, p); err != nil {
				log.Error().Stack().Err(err).Str("paper_id", p.PaperID).Msg("ingest failed")
				continue
			}
			ingested++
		}
		log.Info().Int("fetched", len(papers)).Int("ingested", ingested).Msg("arxiv cycle finished")
	}

	if codeSync != nil {
		if err := codeSync.Sync(ctx, st.Papers()); err != nil {
			log.Error().Stack().Err(err).Msg("code link sync failed")
		}
	}
}
