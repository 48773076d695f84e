package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"

	"github.com/gyeh/stclassify/internal/export"
	"github.com/gyeh/stclassify/internal/model"
)

// ResultWriter writes every client's results into a single Parquet file.
// Rows are staged per client and written on Close, so a discarded client
// never reaches the file. It implements export.Sink.
type ResultWriter struct {
	path   string
	log    zerolog.Logger
	file   *os.File
	staged export.Staging
}

// NewResultWriter returns a sink writing to path. The file is created at
// Begin, replacing any previous run's output.
func NewResultWriter(path string, log zerolog.Logger) *ResultWriter {
	return &ResultWriter{path: path, log: log}
}

func (w *ResultWriter) Begin(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create parquet output dir: %w", err)
	}
	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("create parquet output: %w", err)
	}
	w.file = f
	w.staged.Reset()
	return nil
}

func (w *ResultWriter) WriteClient(ctx context.Context, clientID string, rows []model.AnalysisResult) error {
	if w.file == nil {
		return fmt.Errorf("write parquet rows for %s: writer not begun", clientID)
	}
	w.staged.Put(clientID, rows)
	return nil
}

func (w *ResultWriter) Discard(ctx context.Context, clientID string) error {
	w.staged.Discard(clientID)
	return nil
}

// Close writes the staged rows, flushes the footer and closes the file.
func (w *ResultWriter) Close(ctx context.Context) error {
	if w.file == nil {
		return nil
	}
	f := w.file
	w.file = nil

	rows := w.staged.Rows()
	pw := parquet.NewGenericWriter[model.AnalysisResult](f)
	if _, err := pw.Write(rows); err != nil {
		f.Close()
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		f.Close()
		return fmt.Errorf("close parquet writer: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close parquet output: %w", err)
	}
	w.log.Info().Str("path", w.path).Int("rows", len(rows)).Msg("parquet results written")
	return nil
}
