package snapshot

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeh/stclassify/internal/config"
	"github.com/gyeh/stclassify/internal/model"
)

func strp(s string) *string { return &s }
func i64(v int64) *int64    { return &v }

// writeSnapshot lays out a small two-client snapshot, one of them split
// across alias members.
func writeSnapshot(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, WriteFile(filepath.Join(dir, ServiceTypesFile), []model.ServiceTypeRow{
		{Client: "ACME", TypeID: 20, Description: strp("Termite Bond"), Frequency: i64(365), DateLoaded: "2023-01-01"},
		{Client: "ACME", TypeID: 30, Description: strp("Monthly Lawn Service"), DateLoaded: "2023-01-01"},
		{Client: "ACCEL_OFFICE_2", TypeID: 5, Description: strp("Quarterly Pest"), DateLoaded: "2023-01-01"},
		{Client: "ACCEL_OFFICE_4", TypeID: 6, DateLoaded: "2023-01-01"},
	}))
	require.NoError(t, WriteFile(filepath.Join(dir, RecurringLookupFile), []model.RecurringLookupRow{
		{ClientID: "ACME", ServiceType: "Termite Bond", IsRecurring: "true"},
		{ClientID: "OTHER", ServiceType: "Termite Bond", IsRecurring: "FALSE"},
	}))
	require.NoError(t, WriteFile(filepath.Join(dir, AppointmentsFile), []model.AppointmentRow{
		{IndividualAccountID: "a1", Type: 20, AppointmentDate: "2023-04-03", ClientID: "ACME"},
		{IndividualAccountID: "", Type: 20, AppointmentDate: "2023-05-03", ClientID: "ACME"},
		{IndividualAccountID: "b1", Type: 5, AppointmentDate: "2023-04-03", ClientID: "ACCEL"},
	}))
	require.NoError(t, WriteFile(filepath.Join(dir, SubscriptionsFile), []model.SubscriptionRow{
		{SubscriptionID: "s1", ServiceID: " 20 ", AnnualRecurringServices: strp("$300"), Active: true, ClientID: "ACME"},
	}))
	return dir
}

func TestDir_Clients(t *testing.T) {
	d, err := OpenDir(writeSnapshot(t), config.DefaultRules(), zerolog.Nop())
	require.NoError(t, err)

	clients, err := d.Clients(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ACCEL", "ACME"}, clients)
}

func TestDir_Load(t *testing.T) {
	d, err := OpenDir(writeSnapshot(t), config.DefaultRules(), zerolog.Nop())
	require.NoError(t, err)

	data, err := d.Load(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Len(t, data.ServiceTypes, 2)
	require.Len(t, data.Lookup, 1)
	assert.Equal(t, "TRUE", data.Lookup[0].IsRecurring)
	assert.Empty(t, data.MergedTypes, "missing file reads as empty")
	assert.Len(t, data.Appointments, 1)
	require.Len(t, data.Subscriptions, 1)
	assert.Equal(t, "20", data.Subscriptions[0].ServiceID)
}

func TestDir_LoadAlias(t *testing.T) {
	d, err := OpenDir(writeSnapshot(t), config.DefaultRules(), zerolog.Nop())
	require.NoError(t, err)

	data, err := d.Load(context.Background(), "ACCEL")
	require.NoError(t, err)
	require.Len(t, data.ServiceTypes, 2)
	for _, st := range data.ServiceTypes {
		assert.Equal(t, "ACCEL", st.ClientID)
	}
	assert.Nil(t, data.ServiceTypes[1].Description)
	assert.Len(t, data.Appointments, 1)
}

func TestOpenDir_RequiresServiceTypes(t *testing.T) {
	_, err := OpenDir(t.TempDir(), config.DefaultRules(), zerolog.Nop())
	assert.ErrorContains(t, err, ServiceTypesFile)
}

func TestReadAll_SchemaMismatch(t *testing.T) {
	type other struct {
		Name string `parquet:"name"`
	}
	path := filepath.Join(t.TempDir(), "bad.parquet")
	require.NoError(t, WriteFile(path, []other{{Name: "x"}}))

	_, err := ReadAll[model.AppointmentRow](path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required columns")
	assert.Contains(t, err.Error(), "individual_account_id")
}

func TestReadAll_OptionalColumnsMayBeAbsent(t *testing.T) {
	type minimal struct {
		Client     string `parquet:"client"`
		TypeID     int64  `parquet:"type_id"`
		DateLoaded string `parquet:"date_loaded"`
	}
	path := filepath.Join(t.TempDir(), ServiceTypesFile)
	require.NoError(t, WriteFile(path, []minimal{{Client: "ACME", TypeID: 20, DateLoaded: "2023-01-01"}}))

	got, err := ReadAll[model.ServiceTypeRow](path, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(20), got[0].TypeID)
	assert.Nil(t, got[0].Description)
}

func TestDir_LoadRejectsWrongColumns(t *testing.T) {
	dir := writeSnapshot(t)
	type renamed struct {
		AccountID string `parquet:"account_id"`
		Type      int64  `parquet:"type"`
		ClientID  string `parquet:"client_id"`
	}
	require.NoError(t, WriteFile(filepath.Join(dir, AppointmentsFile), []renamed{{AccountID: "a1", Type: 20, ClientID: "ACME"}}))

	d, err := OpenDir(dir, config.DefaultRules(), zerolog.Nop())
	require.NoError(t, err)
	_, err = d.Load(context.Background(), "ACME")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "individual_account_id")
	assert.Contains(t, err.Error(), "appointment_date")
}

func TestResultWriter_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "results.parquet")
	w := NewResultWriter(path, zerolog.Nop())
	ctx := context.Background()

	yes := true
	pct := 62.5
	require.NoError(t, w.Begin(ctx))
	require.NoError(t, w.WriteClient(ctx, "ACME", []model.AnalysisResult{
		{RunID: "r1", ClientID: "ACME", TypeID: 20, Description: "Termite Bond", APIRecurring: &yes, AppointmentSharePct: &pct, AskClient: true},
		{RunID: "r1", ClientID: "ACME", TypeID: 30, Description: "Monthly Lawn Service"},
	}))
	require.NoError(t, w.WriteClient(ctx, "EMPTY", nil))
	require.NoError(t, w.Close(ctx))

	got, err := ReadAll[model.AnalysisResult](path, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.NotNil(t, got[0].APIRecurring)
	assert.True(t, *got[0].APIRecurring)
	require.NotNil(t, got[0].AppointmentSharePct)
	assert.InDelta(t, 62.5, *got[0].AppointmentSharePct, 1e-9)
	assert.True(t, got[0].AskClient)
	assert.Nil(t, got[1].APIRecurring)
	assert.Nil(t, got[1].AppointmentSharePct)
}

func TestResultWriter_DiscardedClientNotWritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.parquet")
	w := NewResultWriter(path, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, w.Begin(ctx))
	require.NoError(t, w.WriteClient(ctx, "ACME", []model.AnalysisResult{{RunID: "r1", ClientID: "ACME", TypeID: 20}}))
	require.NoError(t, w.WriteClient(ctx, "BETA", []model.AnalysisResult{{RunID: "r1", ClientID: "BETA", TypeID: 7}}))
	require.NoError(t, w.Discard(ctx, "BETA"))
	require.NoError(t, w.Close(ctx))

	got, err := ReadAll[model.AnalysisResult](path, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ACME", got[0].ClientID)
}
