package warehouse_test

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeh/stclassify/internal/classify"
	"github.com/gyeh/stclassify/internal/config"
	"github.com/gyeh/stclassify/internal/model"
	"github.com/gyeh/stclassify/internal/warehouse"
)

const (
	testPort     = 15433
	testDB       = "stclassify"
	testUser     = "postgres"
	testPassword = "postgres"
)

var testDSN string

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		fmt.Fprintln(os.Stderr, "SKIP: warehouse integration tests need embedded postgres")
		os.Exit(0)
	}

	testDSN = fmt.Sprintf("postgresql://%s:%s@localhost:%d/%s?sslmode=disable",
		testUser, testPassword, testPort, testDB)

	pg := embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(uint32(testPort)).
			Database(testDB).
			Username(testUser).
			Password(testPassword).
			Version(embeddedpostgres.V16).
			StartTimeout(30 * time.Second),
	)
	if err := pg.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start embedded postgres: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	if err := pg.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to stop embedded postgres: %v\n", err)
	}
	os.Exit(code)
}

// setupDB returns a pool over freshly migrated, seeded schemas.
func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pool, err := warehouse.NewPool(ctx, testDSN)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	for _, schema := range []string{"raw", "lookup", "transformation_layer", "results"} {
		_, err := pool.Exec(ctx, fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schema))
		require.NoError(t, err)
	}
	require.NoError(t, warehouse.ApplyMigrations(ctx, pool, zerolog.Nop()))
	// Applying twice must be a no-op.
	require.NoError(t, warehouse.ApplyMigrations(ctx, pool, zerolog.Nop()))

	seed := []string{
		`INSERT INTO raw.fr_service_type (client, type_id, description, reservice, regular_service, frequency, default_length, initial_id, "initial", date_loaded) VALUES
			('ACME', 20, 'Termite Bond (old)', '0', '0', '0', '60', '0', '0', '2020-01-01'),
			('ACME', 20, 'Termite Bond', '0', '0', '365', '60', '0', '0', '2023-01-01'),
			('ACME', 30, 'Monthly Lawn Service', NULL, 'n/a', '', '30', NULL, NULL, '2023-01-01'),
			('ACCEL_OFFICE_1', 5, 'Quarterly Pest', '0', '1', '90', '45', '0', '0', '2023-01-01'),
			('ACCEL_OFFICE_3', 6, 'Lead Fee', '0', '0', '0', '0', '0', '0', '2023-01-01')`,
		`INSERT INTO lookup.lkp_recurring (client_id, service_type, is_recurring) VALUES
			('ACME', 'Termite Bond', ' false ')`,
		`INSERT INTO transformation_layer.merged_service_type (client_id, type_id, description) VALUES
			('ACME', 20, 'Termite Bond'),
			('ACME', 30, 'Lawn Service')`,
		`INSERT INTO transformation_layer.merged_appointment (individual_account_id, type, appointment_date, client_id) VALUES
			('a1', 20, '2023-04-03', 'ACME'),
			('a1', 20, '2022-04-01', 'ACME'),
			('a2', 30, 'not a date', 'ACME'),
			(NULL, 30, '2023-05-01', 'ACME')`,
		`INSERT INTO transformation_layer.merged_subscription (subscription_id, service_id, annual_recurring_services, active, date_cancelled, client_id) VALUES
			('s1', '20', '$1,200.00', true, NULL, 'ACME'),
			('s2', '30.0', '(50)', false, '2023-06-01', 'ACME')`,
	}
	for _, stmt := range seed {
		_, err := pool.Exec(ctx, stmt)
		require.NoError(t, err)
	}
	return pool
}

func TestStore_Clients(t *testing.T) {
	pool := setupDB(t)
	store := warehouse.NewStore(pool, config.DefaultRules(), zerolog.Nop())

	clients, err := store.Clients(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ACCEL", "ACME"}, clients)
}

func TestStore_Load(t *testing.T) {
	pool := setupDB(t)
	store := warehouse.NewStore(pool, config.DefaultRules(), zerolog.Nop())

	data, err := store.Load(context.Background(), "ACME")
	require.NoError(t, err)

	require.Len(t, data.ServiceTypes, 2, "latest load per type only")
	bond := data.ServiceTypes[0]
	assert.Equal(t, int64(20), bond.TypeID)
	assert.Equal(t, "Termite Bond", bond.DescriptionText())
	require.NotNil(t, bond.Flags.Frequency)
	assert.Equal(t, int64(365), *bond.Flags.Frequency)

	lawn := data.ServiceTypes[1]
	assert.Nil(t, lawn.Flags.Reservice)
	assert.Nil(t, lawn.Flags.RegularService, "non-numeric flag is NULL")
	assert.Nil(t, lawn.Flags.Frequency, "blank flag is NULL")

	require.Len(t, data.Lookup, 1)
	assert.Equal(t, "FALSE", data.Lookup[0].IsRecurring)

	assert.Len(t, data.MergedTypes, 2)
	assert.Len(t, data.Appointments, 3, "appointments without an account are dropped")
	require.Len(t, data.Subscriptions, 2)
	assert.True(t, data.Subscriptions[0].IsLive())
	assert.NotNil(t, data.Subscriptions[1].CancelledAt)
}

func TestStore_LoadAlias(t *testing.T) {
	pool := setupDB(t)
	store := warehouse.NewStore(pool, config.DefaultRules(), zerolog.Nop())

	data, err := store.Load(context.Background(), "ACCEL")
	require.NoError(t, err)
	require.Len(t, data.ServiceTypes, 2)
	for _, st := range data.ServiceTypes {
		assert.Equal(t, "ACCEL", st.ClientID)
	}
}

func TestResultWriter_ReplacesPreviousRun(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	rules := config.DefaultRules()
	store := warehouse.NewStore(pool, rules, zerolog.Nop())
	sink := warehouse.NewResultWriter(pool, rules.Tables, zerolog.Nop())
	an := classify.NewAnalyzer(rules)
	opts := classify.Options{AsOf: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), RunID: "run-a"}

	for range 2 {
		summary, err := classify.Run(ctx, store, sink, an, opts, zerolog.Nop())
		require.NoError(t, err)
		assert.Equal(t, 2, summary.ClientsProcessed)
	}

	var results, askClient int
	require.NoError(t, pool.QueryRow(ctx, "SELECT count(*) FROM results.service_type_analysis").Scan(&results))
	require.NoError(t, pool.QueryRow(ctx, "SELECT count(*) FROM results.ask_client_flags").Scan(&askClient))
	assert.Equal(t, 1, results, "only ACME type 20 has a recent visit or live subscription")
	assert.LessOrEqual(t, askClient, results)

	var recurring bool
	var reason string
	require.NoError(t, pool.QueryRow(ctx,
		"SELECT final_recurring, askclient_recurring_reason FROM results.service_type_analysis WHERE client = 'ACME' AND type_id = 20",
	).Scan(&recurring, &reason))
	assert.False(t, recurring, "sales mapping outranks vendor frequency")
	assert.Contains(t, reason, "SalesMapping=false")
}

func TestResultWriter_DiscardRemovesClient(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	rules := config.DefaultRules()
	sink := warehouse.NewResultWriter(pool, rules.Tables, zerolog.Nop())

	row := func(client string, typeID int64) model.AnalysisResult {
		return model.AnalysisResult{
			RunID: "run-a", ClientID: client, TypeID: typeID, Description: "Termite Bond",
			HasActiveSubscription: true, AskClient: true,
		}
	}
	require.NoError(t, sink.Begin(ctx))
	require.NoError(t, sink.WriteClient(ctx, "ACME", []model.AnalysisResult{row("ACME", 20), row("ACME", 30)}))
	require.NoError(t, sink.WriteClient(ctx, "BETA", []model.AnalysisResult{row("BETA", 7)}))
	require.NoError(t, sink.Discard(ctx, "ACME"))
	require.NoError(t, sink.Close(ctx))

	rows, err := pool.Query(ctx, "SELECT client FROM results.service_type_analysis UNION ALL SELECT client_id FROM results.ask_client_flags")
	require.NoError(t, err)
	clients, err := pgx.CollectRows(rows, pgx.RowTo[string])
	require.NoError(t, err)
	assert.Equal(t, []string{"BETA", "BETA"}, clients)
}
