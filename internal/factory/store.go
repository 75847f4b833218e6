package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/paperdesk/paperdesk/internal/config"
	storepkg "github.com/paperdesk/paperdesk/internal/store"
	storepg "github.com/paperdesk/paperdesk/internal/store/postgres"
	storesqlite "github.com/paperdesk/paperdesk/internal/store/sqlite"
)

// NewStore builds the configured store.Store backend, wrapped so every
// call carries the configured timeout budget.
// Postgres bootstrap runs async so startup stays fast; health checks
// gate readiness until the store answers pings.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storepkg.Store, error) {
	st, err := newBackend(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return storepkg.WithTimeout(st, time.Duration(cfg.StoreTimeoutSeconds)*time.Second), nil
}

func newBackend(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storepkg.Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		dsn := cfg.PostgresDSN
		if dsn == "" {
			return nil, fmt.Errorf("PAPERDESK_POSTGRES_DSN is required when DB_DRIVER=postgres")
		}
		db, err := storepg.Open(dsn)
		if err != nil {
			return nil, err
		}
		go func() {
			bootstrapTimeout := time.Duration(cfg.BootstrapTimeoutSeconds) * time.Second
			bootstrapCtx, cancel := context.WithTimeout(ctx, bootstrapTimeout)
			defer cancel()

			if err := storepg.Bootstrap(bootstrapCtx, dsn); err != nil {
				log.Warn().Err(err).Str("driver", cfg.DBDriver).Msg("store bootstrap check failed")
			} else {
				log.Debug().Str("driver", cfg.DBDriver).Msg("store bootstrap check completed")
			}
		}()
		return storepg.NewWithDB(db), nil
	case "sqlite":
		return storesqlite.New(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}
