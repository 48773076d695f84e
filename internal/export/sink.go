// Package export writes classification results to their destinations.
package export

import (
	"context"
	"errors"

	"github.com/gyeh/stclassify/internal/model"
)

// Sink consumes a run's results one client at a time. Begin is called once
// before any client and Close once after the last; a run fully replaces the
// previous run's output. Discard removes whatever WriteClient accepted for a
// client, so a client that fails on any sink leaves no rows behind.
type Sink interface {
	Begin(ctx context.Context) error
	WriteClient(ctx context.Context, clientID string, rows []model.AnalysisResult) error
	Discard(ctx context.Context, clientID string) error
	Close(ctx context.Context) error
}

// Fanout forwards every call to each sink in order.
type Fanout []Sink

func (f Fanout) Begin(ctx context.Context) error {
	for _, s := range f {
		if err := s.Begin(ctx); err != nil {
			return err
		}
	}
	return nil
}

// WriteClient stops at the first failing sink. The caller is expected to
// Discard the client so the sinks that already accepted it are rolled back.
func (f Fanout) WriteClient(ctx context.Context, clientID string, rows []model.AnalysisResult) error {
	for _, s := range f {
		if err := s.WriteClient(ctx, clientID, rows); err != nil {
			return err
		}
	}
	return nil
}

// Discard discards the client from every sink and joins the errors.
func (f Fanout) Discard(ctx context.Context, clientID string) error {
	var errs []error
	for _, s := range f {
		if err := s.Discard(ctx, clientID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink and joins the errors.
func (f Fanout) Close(ctx context.Context) error {
	var errs []error
	for _, s := range f {
		if err := s.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
