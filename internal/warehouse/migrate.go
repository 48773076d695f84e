package warehouse

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	embedsql "github.com/gyeh/stclassify/internal/sql"
)

// ApplyMigrations runs the embedded migrations in filename order, each in
// its own transaction. The DDL is IF NOT EXISTS throughout, so reruns are
// no-ops.
func ApplyMigrations(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger) error {
	names, err := fs.Glob(embedsql.Migrations, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}

	for _, name := range names {
		data, err := fs.ReadFile(embedsql.Migrations, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		stmt := strings.TrimSpace(string(data))
		if stmt == "" {
			continue
		}

		start := time.Now()
		err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			_, err := tx.Exec(ctx, stmt)
			return err
		})
		if err != nil {
			return fmt.Errorf("execute migration %s: %w", path.Base(name), err)
		}
		log.Info().
			Str("migration", path.Base(name)).
			Str("duration", time.Since(start).String()).
			Msg("migration applied")
	}

	log.Info().Int("count", len(names)).Msg("all migrations applied")
	return nil
}
