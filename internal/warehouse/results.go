package warehouse

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/stclassify/internal/config"
	"github.com/gyeh/stclassify/internal/model"
)

const copyBuffer = 256

// ResultWriter copies each client's reported rows into the warehouse
// results tables. Only rows passing the report filter are kept, matching the
// workbook. Begin truncates both tables, so a run fully replaces the previous
// one. It implements export.Sink.
type ResultWriter struct {
	pool      *pgxpool.Pool
	results   pgx.Identifier
	askClient pgx.Identifier
	log       zerolog.Logger

	rowsResults   int64
	rowsAskClient int64
}

// NewResultWriter returns a sink writing to the results tables named in t.
func NewResultWriter(pool *pgxpool.Pool, t config.Tables, log zerolog.Logger) *ResultWriter {
	return &ResultWriter{
		pool:      pool,
		results:   identifier(t.Results),
		askClient: identifier(t.AskClient),
		log:       log,
	}
}

func identifier(name string) pgx.Identifier {
	return pgx.Identifier(strings.Split(name, "."))
}

func (w *ResultWriter) Begin(ctx context.Context) error {
	w.rowsResults, w.rowsAskClient = 0, 0
	stmt := fmt.Sprintf("TRUNCATE %s, %s", w.results.Sanitize(), w.askClient.Sanitize())
	if _, err := w.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("truncate results: %w", err)
	}
	w.log.Info().
		Str("results", w.results.Sanitize()).
		Str("askclient", w.askClient.Sanitize()).
		Msg("results tables truncated")
	return nil
}

// WriteClient copies the reported rows and the client's AskClient view
// inside one transaction.
func (w *ResultWriter) WriteClient(ctx context.Context, clientID string, rows []model.AnalysisResult) error {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin results tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var results []*model.AnalysisResult
	var ask []*model.AskClientRow
	for i := range rows {
		if !rows[i].InReport() {
			continue
		}
		results = append(results, &rows[i])
		if rows[i].InAskClientView() {
			ac := rows[i].AskClientRow()
			ask = append(ask, &ac)
		}
	}

	n, err := copyRows(ctx, tx, w.results, model.ResultColumns(), results)
	if err != nil {
		return fmt.Errorf("copy results for %s: %w", clientID, err)
	}
	m, err := copyRows(ctx, tx, w.askClient, model.AskClientColumns(), ask)
	if err != nil {
		return fmt.Errorf("copy askclient rows for %s: %w", clientID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit results for %s: %w", clientID, err)
	}
	w.rowsResults += n
	w.rowsAskClient += m
	return nil
}

// Discard deletes the client's rows from both tables in one transaction.
func (w *ResultWriter) Discard(ctx context.Context, clientID string) error {
	return pgx.BeginFunc(ctx, w.pool, func(tx pgx.Tx) error {
		targets := []struct {
			table  pgx.Identifier
			column string
			count  *int64
		}{
			{w.results, "client", &w.rowsResults},
			{w.askClient, "client_id", &w.rowsAskClient},
		}
		for _, t := range targets {
			sql, args, err := discardQuery(t.table.Sanitize(), t.column, clientID)
			if err != nil {
				return fmt.Errorf("build discard query: %w", err)
			}
			tag, err := tx.Exec(ctx, sql, args...)
			if err != nil {
				return fmt.Errorf("discard %s from %s: %w", clientID, t.table.Sanitize(), err)
			}
			*t.count -= tag.RowsAffected()
		}
		return nil
	})
}

// Close refreshes planner statistics on the results tables.
func (w *ResultWriter) Close(ctx context.Context) error {
	for _, id := range []pgx.Identifier{w.results, w.askClient} {
		if _, err := w.pool.Exec(ctx, "ANALYZE "+id.Sanitize()); err != nil {
			return fmt.Errorf("analyze %s: %w", id.Sanitize(), err)
		}
	}
	w.log.Info().
		Int64("rows_results", w.rowsResults).
		Int64("rows_askclient", w.rowsAskClient).
		Msg("warehouse results written")
	return nil
}

// copyRows streams rows from a producer goroutine into table via COPY.
// The producer stops early if the COPY aborts.
func copyRows[T copyRow](ctx context.Context, tx pgx.Tx, table pgx.Identifier, columns []string, rows []T) (int64, error) {
	copyCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := make(chan T, copyBuffer)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer close(ch)
		for _, row := range rows {
			select {
			case ch <- row:
			case <-copyCtx.Done():
				return
			}
		}
	}()

	n, err := tx.CopyFrom(copyCtx, table, columns, NewChannelSource[T](ch))
	cancel()
	<-done
	return n, err
}
