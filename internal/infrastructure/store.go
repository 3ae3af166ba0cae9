package infrastructure

import (
	"context"
	"fmt"

	"adsimport/internal/domain"
	"adsimport/pkg/config"
	"adsimport/pkg/logger"
)

// OpenRepository builds the campaign store selected by cfg.Driver and
// migrates it. The returned close func releases the backing connection.
func OpenRepository(ctx context.Context, cfg config.StoreConfig, logger *logger.Logger) (domain.CampaignRepository, func(), error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryRepository(logger), func() {}, nil

	case "sqlite":
		repo, err := NewSQLiteRepository(cfg.DSN, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := repo.Migrate(ctx); err != nil {
			repo.Close()
			return nil, nil, err
		}
		return repo, func() { repo.Close() }, nil

	case "postgres":
		pool, err := OpenPostgresPool(ctx, cfg.DSN, cfg.MaxConns)
		if err != nil {
			return nil, nil, err
		}
		repo := NewPostgresRepository(pool, logger)
		if err := repo.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repo, pool.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
