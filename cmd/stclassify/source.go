package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/stclassify/internal/classify"
	"github.com/gyeh/stclassify/internal/config"
	"github.com/gyeh/stclassify/internal/exitcode"
	"github.com/gyeh/stclassify/internal/snapshot"
	"github.com/gyeh/stclassify/internal/warehouse"
)

// openSource returns the configured input source. pool is nil when reading
// a snapshot. A non-zero code is the exit code to use when err is set.
func openSource(ctx context.Context, log zerolog.Logger, rules *config.Rules) (src classify.Source, pool *pgxpool.Pool, code int, err error) {
	if cfg.SnapshotDir != "" {
		dir, err := snapshot.OpenDir(cfg.SnapshotDir, rules, log)
		if err != nil {
			return nil, nil, exitcode.ValidationError, err
		}
		log.Info().Str("snapshot", cfg.SnapshotDir).Msg("reading inputs from snapshot")
		return dir, nil, 0, nil
	}

	pool, err = warehouse.NewPool(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, exitcode.DBConnError, err
	}
	return warehouse.NewStore(pool, rules, log), pool, 0, nil
}

// resolveClients applies the client list precedence: --clients or
// CLIENT_IDS, else every client the source knows.
func resolveClients(ctx context.Context, src classify.Source) ([]string, error) {
	if len(cfg.Clients) > 0 {
		return cfg.Clients, nil
	}
	return src.Clients(ctx)
}

// loadRules reads and validates the rules file, if any.
func loadRules(log zerolog.Logger) (*config.Rules, bool) {
	rules, err := config.LoadRules(cfg.RulesPath)
	if err != nil {
		log.Error().Err(err).Str("rules", cfg.RulesPath).Msg("invalid rules")
		return nil, false
	}
	return rules, true
}
