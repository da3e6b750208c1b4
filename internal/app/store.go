// Package app opens the long-lived resources shared by the binaries.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"necessities/swap/internal/config"
	"necessities/swap/internal/database"
	"necessities/swap/internal/repository"
)

// OpenStore returns the document store selected by store.driver. The
// postgres schema is created if missing.
func OpenStore(ctx context.Context, cfg *config.AppConfig, logger zerolog.Logger) (*repository.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		logger.Warn().Msg("using in-memory document store; data is lost on exit")
		return repository.NewMemoryStore(), nil
	case config.StoreDriverPostgres:
		pool, err := database.Open(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		if err := database.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info().Msg("connected to postgres")
		return repository.NewPostgresStore(pool), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
