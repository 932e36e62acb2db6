package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/y0lz/backend-json/internal/config"
	"github.com/y0lz/backend-json/internal/domain"
	"github.com/y0lz/backend-json/internal/logx"
	"github.com/y0lz/backend-json/internal/repository"
)

var migrate = repository.Migrate

// needsRelational reports whether the configured policy or the people mirror touches PostgreSQL.
func needsRelational(cfg *config.Config) bool {
	return cfg.Storage.Policy != domain.PolicyLocal || cfg.Storage.MirrorPeople
}

func migrateWithRetry(ctx context.Context, logger logx.Logger, pool *pgxpool.Pool, retries int, delay time.Duration) error {
	var lastErr error
	const attemptTimeout = 3 * time.Second
	for i := 1; i <= retries; i++ {
		attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		err := migrate(attemptCtx, pool)
		cancel()
		if err == nil {
			logger.Info("db schema ready", logx.Int("attempt", i))
			return nil
		}
		lastErr = err
		logger.Warn("db schema migration failed",
			logx.Int("attempt", i),
			logx.Int("retries", retries),
			logx.Err(err),
		)
		if i < retries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return fmt.Errorf("db schema migration failed after %d attempts: %w", retries, lastErr)
}

// prepareSchema creates the relational tables when the configuration uses them.
// A database that stays down is not fatal: requests routed there fail until it returns.
func prepareSchema(ctx context.Context, logger logx.Logger, cfg *config.Config, pool *pgxpool.Pool) {
	if pool == nil || !needsRelational(cfg) {
		return
	}
	if err := migrateWithRetry(ctx, logger, pool, 3, time.Second); err != nil {
		logger.Warn("starting without relational schema", logx.Err(err))
	}
}
