// Package warehouse reads classification inputs from, and writes results
// to, the Postgres warehouse.
package warehouse

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// One loader and one COPY writer run at a time.
const maxConns = 4

// NewPool connects to the warehouse and verifies the connection.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxConns > maxConns {
		cfg.MaxConns = maxConns
	}

	// Loads scan a client's full appointment history.
	params := cfg.ConnConfig.RuntimeParams
	params["statement_timeout"] = "0"
	if params["application_name"] == "" {
		params["application_name"] = "stclassify"
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping warehouse: %w", err)
	}

	return pool, nil
}
