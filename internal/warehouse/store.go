package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/stclassify/internal/config"
	"github.com/gyeh/stclassify/internal/model"
	"github.com/gyeh/stclassify/internal/normalize"
)

// Store loads per-client record sets from the warehouse. It implements
// classify.Source.
type Store struct {
	pool  *pgxpool.Pool
	rules *config.Rules
	log   zerolog.Logger
}

// NewStore returns a Store reading the tables named in rules.
func NewStore(pool *pgxpool.Pool, rules *config.Rules, log zerolog.Logger) *Store {
	return &Store{pool: pool, rules: rules, log: log}
}

// Clients returns the distinct catalog clients, sorted. Warehouse ids that
// belong to an alias are reported once under the logical id.
func (s *Store) Clients(ctx context.Context) ([]string, error) {
	sqlStr, args, err := clientsQuery(s.rules.Tables)
	if err != nil {
		return nil, fmt.Errorf("build clients query: %w", err)
	}
	rows, err := s.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query clients: %w", err)
	}
	raw, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan clients: %w", err)
	}
	return s.rules.LogicalClients(raw), nil
}

// Load reads every record set for clientID. Catalog rows stored under an
// alias's member ids are relabelled with clientID.
func (s *Store) Load(ctx context.Context, clientID string) (*model.ClientData, error) {
	start := time.Now()
	t := s.rules.Tables
	data := &model.ClientData{ClientID: clientID}

	members := s.rules.ExpandClient(clientID)
	stRows, err := query[model.ServiceTypeRow](ctx, s.pool, "service types", func() (string, []any, error) {
		return serviceTypesQuery(t, members)
	})
	if err != nil {
		return nil, err
	}
	data.ServiceTypes = make([]model.ServiceType, len(stRows))
	for i := range stRows {
		stRows[i].Client = clientID
		data.ServiceTypes[i] = normalize.ToServiceType(&stRows[i])
	}

	lkRows, err := query[model.RecurringLookupRow](ctx, s.pool, "recurring lookup", func() (string, []any, error) {
		return recurringLookupQuery(t, clientID)
	})
	if err != nil {
		return nil, err
	}
	data.Lookup = make([]model.RecurringLookup, len(lkRows))
	for i := range lkRows {
		data.Lookup[i] = normalize.ToRecurringLookup(&lkRows[i])
	}

	mgRows, err := query[model.MergedServiceTypeRow](ctx, s.pool, "merged service types", func() (string, []any, error) {
		return mergedServiceTypesQuery(t, clientID)
	})
	if err != nil {
		return nil, err
	}
	data.MergedTypes = make([]model.MergedServiceType, len(mgRows))
	for i := range mgRows {
		data.MergedTypes[i] = normalize.ToMergedServiceType(&mgRows[i])
	}

	apRows, err := query[model.AppointmentRow](ctx, s.pool, "appointments", func() (string, []any, error) {
		return appointmentsQuery(t, clientID)
	})
	if err != nil {
		return nil, err
	}
	data.Appointments = make([]model.Appointment, len(apRows))
	for i := range apRows {
		data.Appointments[i] = normalize.ToAppointment(&apRows[i])
	}

	sbRows, err := query[model.SubscriptionRow](ctx, s.pool, "subscriptions", func() (string, []any, error) {
		return subscriptionsQuery(t, clientID)
	})
	if err != nil {
		return nil, err
	}
	data.Subscriptions = make([]model.Subscription, len(sbRows))
	for i := range sbRows {
		data.Subscriptions[i] = normalize.ToSubscription(&sbRows[i])
	}

	s.log.Debug().
		Str("client", clientID).
		Strs("warehouse_ids", members).
		Str("duration", time.Since(start).String()).
		Msg("warehouse load complete")
	return data, nil
}

// query runs a built statement and scans rows positionally into T, whose
// field order matches the statement's select list.
func query[T any](ctx context.Context, pool *pgxpool.Pool, what string, build func() (string, []any, error)) ([]T, error) {
	sqlStr, args, err := build()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", what, err)
	}
	rows, err := pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", what, err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[T])
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", what, err)
	}
	return out, nil
}
