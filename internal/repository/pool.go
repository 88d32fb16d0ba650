package repository

import (
	"context"
	"fmt"

	"github.com/Domenick1991/airadmin/config"
	"github.com/Domenick1991/airadmin/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool opens the shared connection pool, pins search_path to the
// configured schema and checks the store is reachable. The pool is closed
// again if the check fails.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	if cfg.Schema != "" {
		poolCfg.ConnConfig.RuntimeParams["search_path"] = cfg.Schema
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping %s:%d (check the database section of the config file and connectivity): %w",
			domain.ErrUnavailable, cfg.Host, cfg.Port, err)
	}
	return pool, nil
}
