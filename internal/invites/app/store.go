package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/muster/internal/invites/store"
	"github.com/aussiebroadwan/muster/internal/invites/store/drivers/postgres"
	"github.com/aussiebroadwan/muster/internal/invites/store/drivers/sqlite"
)

// OpenStore connects the configured driver and applies migrations.
func OpenStore(ctx context.Context, cfg Config, logger *slog.Logger) (store.Store, error) {
	var (
		st  store.Store
		err error
	)

	switch cfg.DatabaseDriver {
	case DriverPostgres:
		st, err = postgres.NewStore(ctx, postgres.PoolConfig{
			ConnString: cfg.DatabaseURL,
			MaxConns:   cfg.DatabaseMaxConns,
		})
	default:
		st, err = sqlite.NewStore(sqlite.FileDSN(cfg.DatabaseFile))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s database: %w", cfg.DatabaseDriver, err)
	}

	if err := st.ApplyMigrations(); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}

	logger.Info("database migrations applied successfully", "driver", cfg.DatabaseDriver)
	return st, nil
}
