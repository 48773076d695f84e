package classify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/stclassify/internal/export"
	"github.com/gyeh/stclassify/internal/model"
	"github.com/gyeh/stclassify/internal/normalize"
)

// Source supplies the record sets for each client.
type Source interface {
	Clients(ctx context.Context) ([]string, error)
	Load(ctx context.Context, clientID string) (*model.ClientData, error)
}

// PipelineError wraps an error with the phase where it occurred.
type PipelineError struct {
	Phase string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Pipeline phases reported in PipelineError.
const (
	PhaseClients = "clients"
	PhaseBegin   = "begin"
	PhaseLoad    = "load"
	PhaseExport  = "export"
	PhaseClose   = "close"
)

// Options control a single run.
type Options struct {
	Clients []string // empty means every client the source knows
	AsOf    time.Time
	RunID   string
}

// Run classifies each client in turn and streams its rows to sink. A client
// that fails to load or export is logged, discarded from the sink and
// skipped; rows already written for earlier clients are kept. Run only fails
// outright when the client list or the sink itself fails, when ctx is
// cancelled, or when every client failed. Once Begin succeeds the sink is
// always closed.
func Run(ctx context.Context, src Source, sink export.Sink, an *Analyzer, opts Options, log zerolog.Logger) (*model.RunSummary, error) {
	totalStart := time.Now()
	summary := &model.RunSummary{RunID: opts.RunID, AsOf: opts.AsOf}

	clients := opts.Clients
	if len(clients) == 0 {
		var err error
		clients, err = src.Clients(ctx)
		if err != nil {
			return nil, &PipelineError{Phase: PhaseClients, Err: err}
		}
	}
	summary.ClientsRequested = len(clients)
	log.Info().Int("clients", len(clients)).Str("run_id", opts.RunID).Msg("starting classification run")

	if err := sink.Begin(ctx); err != nil {
		return nil, &PipelineError{Phase: PhaseBegin, Err: err}
	}

	var lastErr *PipelineError
	for _, clientID := range clients {
		if err := ctx.Err(); err != nil {
			closeErr := sink.Close(context.WithoutCancel(ctx))
			return summary, &PipelineError{Phase: PhaseClients, Err: errors.Join(err, closeErr)}
		}
		clog := log.With().Str("client", clientID).Logger()

		if perr := runClient(ctx, src, sink, an, opts, clientID, summary, clog); perr != nil {
			clog.Error().Err(perr.Err).Str("phase", perr.Phase).Msg("client failed, skipping")
			summary.ClientsFailed = append(summary.ClientsFailed, clientID)
			lastErr = perr
			continue
		}
		summary.ClientsProcessed++
	}

	exportStart := time.Now()
	if err := sink.Close(ctx); err != nil {
		return summary, &PipelineError{Phase: PhaseClose, Err: err}
	}
	summary.DurationExport += time.Since(exportStart)
	summary.DurationTotal = time.Since(totalStart)

	log.Info().
		Int("clients_processed", summary.ClientsProcessed).
		Int("clients_failed", len(summary.ClientsFailed)).
		Int64("service_types", summary.ServiceTypes).
		Int64("rows_reported", summary.RowsReported).
		Int64("rows_askclient", summary.RowsAskClient).
		Str("total_duration", summary.DurationTotal.String()).
		Msg("classification run complete")

	if summary.ClientsProcessed == 0 && lastErr != nil {
		return summary, &PipelineError{Phase: lastErr.Phase, Err: errors.New("every client failed; last error: " + lastErr.Err.Error())}
	}
	return summary, nil
}

func runClient(ctx context.Context, src Source, sink export.Sink, an *Analyzer, opts Options, clientID string, summary *model.RunSummary, log zerolog.Logger) *PipelineError {
	loadStart := time.Now()
	data, err := src.Load(ctx, clientID)
	if err != nil {
		return &PipelineError{Phase: PhaseLoad, Err: err}
	}
	summary.DurationLoad += time.Since(loadStart)

	before := len(data.ServiceTypes)
	Prepare(data)
	if after := len(data.ServiceTypes); after < before {
		log.Info().Int("before", before).Int("after", after).Msg("de-duplicated service types")
	}
	log.Info().
		Int("service_types", len(data.ServiceTypes)).
		Int("recurring_lookup", len(data.Lookup)).
		Int("merged_service_types", len(data.MergedTypes)).
		Int("appointments", len(data.Appointments)).
		Int("subscriptions", len(data.Subscriptions)).
		Msg("client data loaded")

	if mismatches := AuditMerged(data.ServiceTypes, data.MergedTypes); len(mismatches) > 0 {
		ev := log.Warn().Int("count", len(mismatches))
		ids := make([]int64, len(mismatches))
		for i, m := range mismatches {
			ids[i] = m.TypeID
		}
		ev.Ints64("type_ids", ids).Msg("merged service type mismatches")
	}

	analyzeStart := time.Now()
	res := an.AnalyzeClient(data, opts.AsOf, opts.RunID)
	summary.DurationAnalyze += time.Since(analyzeStart)

	for _, tr := range res.Traces {
		if len(tr.Dissent) == 0 && len(tr.Violations) == 0 {
			continue
		}
		log.Debug().
			Int64("type_id", tr.TypeID).
			Interface("dissent", tr.Dissent).
			Strs("violations", tr.Violations).
			Msg("evidence conflicts")
	}
	if res.Shares.AppointmentPct == nil {
		log.Warn().Msg("no appointments; appointment share skipped")
	}
	if res.Shares.RevenuePct == nil {
		log.Warn().Str("total", res.Shares.RevenueTotal.StringFixed(2)).Msg("no positive subscription revenue; revenue share skipped")
	}

	var askClient, reported int64
	for i := range res.Rows {
		if res.Rows[i].InAskClientView() {
			askClient++
		}
		if res.Rows[i].InReport() {
			reported++
		}
	}

	exportStart := time.Now()
	if err := sink.WriteClient(ctx, clientID, res.Rows); err != nil {
		if derr := sink.Discard(context.WithoutCancel(ctx), clientID); derr != nil {
			err = errors.Join(err, fmt.Errorf("discard partial output: %w", derr))
		}
		return &PipelineError{Phase: PhaseExport, Err: err}
	}
	summary.DurationExport += time.Since(exportStart)

	summary.ServiceTypes += int64(len(res.Rows))
	summary.RowsAskClient += askClient
	summary.RowsReported += reported

	log.Info().
		Int("rows", len(res.Rows)).
		Int64("askclient", askClient).
		Str("digest", Digest(res.Rows)).
		Msg("client classified")
	return nil
}

// Digest hashes rows in order, excluding the run id, so that reruns over
// unchanged input can be compared.
func Digest(rows []model.AnalysisResult) string {
	var d normalize.RowDigest
	for i := range rows {
		vals := rows[i].CopyValues()
		d.Add(vals[:len(vals)-1]...)
	}
	return d.Sum()
}
