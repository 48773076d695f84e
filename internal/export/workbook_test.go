package export

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/gyeh/stclassify/internal/model"
)

func pct(v float64) *float64 { return &v }

func sampleRows() []model.AnalysisResult {
	return []model.AnalysisResult{
		{ClientID: "ACME", TypeID: 1, Description: "Monthly Lawn", HasActiveSubscription: true, HasVisitsPast2Years: true, AskClient: true, FlagFrequency: 30, FinalRecurring: true, FinalHasReservice: true, AppointmentSharePct: pct(75)},
		{ClientID: "ACME", TypeID: 2, Description: "Callback", HasVisitsPast2Years: true, ExpiredCode: true, AskClient: true},
		{ClientID: "ACME", TypeID: 3, Description: "Fee", HasActiveSubscription: true, ExpiredCode: true},
		{ClientID: "ACME", TypeID: 4, Description: "Dormant", ExpiredCode: true, AskClient: true},
	}
}

func TestWorkbook_WritesReports(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	ctx := context.Background()
	w := NewWorkbook(dir, zerolog.Nop())

	require.NoError(t, w.Begin(ctx))
	require.NoError(t, w.WriteClient(ctx, "ACME", sampleRows()))
	require.NoError(t, w.Close(ctx))

	f, err := excelize.OpenFile(filepath.Join(dir, ReportFile))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{SheetAllData, SheetAskTrue, SheetAskFalse}, f.GetSheetList())

	all, err := f.GetRows(SheetAllData)
	require.NoError(t, err)
	require.Len(t, all, 4, "header plus three reported rows; dormant row filtered")
	assert.Equal(t, model.ResultHeaders(), all[0])
	assert.Equal(t, "1", all[1][0])

	askTrue, err := f.GetRows(SheetAskTrue)
	require.NoError(t, err)
	assert.Len(t, askTrue, 3)

	askFalse, err := f.GetRows(SheetAskFalse)
	require.NoError(t, err)
	require.Len(t, askFalse, 2)
	assert.Equal(t, model.SummaryHeaders(), askFalse[0])
	assert.Equal(t, "Fee", askFalse[1][1])

	ac, err := excelize.OpenFile(filepath.Join(dir, AskClientFile))
	require.NoError(t, err)
	defer ac.Close()
	rows, err := ac.GetRows(defaultSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2, "only the escalated, non-expired row")
	assert.Equal(t, model.AskClientHeaders(), rows[0])
	assert.Equal(t, []string{"1", "Monthly Lawn", "30", "TRUE", "FALSE", "FALSE", "75", "ACME"}, rows[1])
}

func TestWriteShareReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), ShareFile)
	rows := []model.ShareRow{
		{ClientID: "ACME", TypeID: 7, Service: "Lawn", Count: 3, SharePct: 75},
		{ClientID: "ACME", TypeID: 9, Service: "9", Count: 1, SharePct: 25},
	}
	require.NoError(t, WriteShareReport(path, rows))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	got, err := f.GetRows(defaultSheet)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, model.ShareHeaders(), got[0])
	assert.Equal(t, []string{"ACME", "9", "9", "1", "25"}, got[2])
}

func TestWorkbook_DiscardDropsClient(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	w := NewWorkbook(dir, zerolog.Nop())

	other := sampleRows()[:1]
	other[0].ClientID, other[0].TypeID = "BETA", 99

	require.NoError(t, w.Begin(ctx))
	require.NoError(t, w.WriteClient(ctx, "ACME", sampleRows()))
	require.NoError(t, w.WriteClient(ctx, "BETA", other))
	require.NoError(t, w.Discard(ctx, "ACME"))
	require.NoError(t, w.Close(ctx))

	f, err := excelize.OpenFile(filepath.Join(dir, ReportFile))
	require.NoError(t, err)
	defer f.Close()
	all, err := f.GetRows(SheetAllData)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "99", all[1][0])
}

func TestStaging_KeepsArrivalOrder(t *testing.T) {
	var s Staging
	s.Put("B", []model.AnalysisResult{{ClientID: "B", TypeID: 1}})
	s.Put("A", []model.AnalysisResult{{ClientID: "A", TypeID: 2}, {ClientID: "A", TypeID: 3}})
	s.Put("C", []model.AnalysisResult{{ClientID: "C", TypeID: 4}})
	s.Discard("A")
	s.Discard("missing")
	s.Put("B", []model.AnalysisResult{{ClientID: "B", TypeID: 5}})

	var ids []int64
	for _, r := range s.Rows() {
		ids = append(ids, r.TypeID)
	}
	assert.Equal(t, []int64{5, 4}, ids)

	s.Reset()
	assert.Empty(t, s.Rows())
}

type recordingSink struct {
	begun, closed bool
	clients       []string
	discarded     []string
	failWrite     bool
}

func (s *recordingSink) Begin(context.Context) error { s.begun = true; return nil }
func (s *recordingSink) WriteClient(_ context.Context, id string, _ []model.AnalysisResult) error {
	s.clients = append(s.clients, id)
	if s.failWrite {
		return errors.New("disk full")
	}
	return nil
}
func (s *recordingSink) Discard(_ context.Context, id string) error {
	s.discarded = append(s.discarded, id)
	return nil
}
func (s *recordingSink) Close(context.Context) error { s.closed = true; return nil }

func TestFanout_StopsAtFailingSink(t *testing.T) {
	ctx := context.Background()
	a, b, c := &recordingSink{}, &recordingSink{failWrite: true}, &recordingSink{}
	f := Fanout{a, b, c}

	require.NoError(t, f.Begin(ctx))
	err := f.WriteClient(ctx, "ACME", nil)
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, []string{"ACME"}, a.clients)
	assert.Empty(t, c.clients, "sinks after the failure are not written")

	require.NoError(t, f.Discard(ctx, "ACME"))
	for _, s := range []*recordingSink{a, b, c} {
		assert.Equal(t, []string{"ACME"}, s.discarded)
	}
	require.NoError(t, f.Close(ctx))
	assert.True(t, a.begun && b.begun && c.begun)
	assert.True(t, a.closed && b.closed && c.closed)
}
