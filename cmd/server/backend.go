package main

import (
	"context"

	"txn-store/internal/api"
	"txn-store/internal/config"
	"txn-store/internal/database"
	"txn-store/internal/repo"

	"github.com/rs/zerolog"
)

// openBackend returns the configured store, an optional health check and a
// close func that is always safe to call.
func openBackend(ctx context.Context, cfg config.Config, logger zerolog.Logger) (repo.TransactionRepo, api.HealthFunc, func(), error) {
	if cfg.StoreBackend != config.BackendPostgres {
		return repo.NewMemoryTransactionRepo(), nil, func() {}, nil
	}

	db, err := database.NewPostgres(ctx, cfg.DB)
	if err != nil {
		return nil, nil, nil, err
	}
	closeDB := func() {
		logger.Info().Str("database", cfg.DB.Database).Msg("disconnected from database")
		db.Close()
	}
	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	health := func(ctx context.Context) map[string]string {
		return database.Health(ctx, db)
	}
	return repo.NewPostgresTransactionRepo(db), health, closeDB, nil
}
