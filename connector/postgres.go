// Package connector builds configured pgx connection pools. It only
// creates pools; acquiring and releasing connections, and transaction
// boundaries, stay with the caller.
package connector

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Konsultn-Engineering/typeq/database"
)

// Connect creates a pgx pool for the configuration and verifies it with
// a ping. Retry settings, when present, apply to the whole
// connect-and-ping sequence.
func Connect(ctx context.Context, cfg Config) (*database.PgxPool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	if cfg.Retry != nil {
		pool, err := retryConnect(ctx, cfg.Retry, func(ctx context.Context) (*pgxpool.Pool, error) {
			return connect(ctx, cfg)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect after %d retries: %w", cfg.Retry.MaxRetries, err)
		}
		return database.NewPgxPool(pool), nil
	}

	pool, err := connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return database.NewPgxPool(pool), nil
}

func connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Pool.MaxOpen > 0 {
		poolCfg.MaxConns = int32(cfg.Pool.MaxOpen)
	}
	if cfg.Pool.MinIdle > 0 {
		poolCfg.MinConns = int32(cfg.Pool.MinIdle)
	}
	if cfg.Pool.MaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.Pool.MaxLifetime
	}
	if cfg.Pool.MaxIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.Pool.MaxIdleTime
	}
	if cfg.Pool.HealthCheckFreq > 0 {
		poolCfg.HealthCheckPeriod = cfg.Pool.HealthCheckFreq
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// Health verifies a pool answers a trivial query.
func Health(ctx context.Context, pool *database.PgxPool) error {
	value, err := pool.FetchValue(ctx, "SELECT 1")
	if err != nil {
		return err
	}
	if v, ok := value.(int32); !ok || v != 1 {
		return fmt.Errorf("unexpected health check result: %v", value)
	}
	return nil
}
