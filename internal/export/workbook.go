package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/gyeh/stclassify/internal/model"
)

// Output file and sheet names.
const (
	ReportFile    = "final_df.xlsx"
	AskClientFile = "askclient_final.xlsx"
	ShareFile     = "appointment_share.xlsx"
	SheetAllData  = "All Data"
	SheetAskTrue  = "AskClient True"
	SheetAskFalse = "AskClient False"
	defaultSheet  = "Sheet1"
)

// Workbook collects report rows across clients and writes the spreadsheets
// on Close. Only rows passing the report filter are kept.
type Workbook struct {
	dir    string
	log    zerolog.Logger
	staged Staging
}

// NewWorkbook returns a sink writing into dir.
func NewWorkbook(dir string, log zerolog.Logger) *Workbook {
	return &Workbook{dir: dir, log: log}
}

func (w *Workbook) Begin(ctx context.Context) error {
	w.staged.Reset()
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}

func (w *Workbook) WriteClient(ctx context.Context, clientID string, rows []model.AnalysisResult) error {
	var kept []model.AnalysisResult
	for i := range rows {
		if rows[i].InReport() {
			kept = append(kept, rows[i])
		}
	}
	w.staged.Put(clientID, kept)
	return nil
}

func (w *Workbook) Discard(ctx context.Context, clientID string) error {
	w.staged.Discard(clientID)
	return nil
}

// Close writes the report workbook and the AskClient workbook.
func (w *Workbook) Close(ctx context.Context) error {
	rows := w.staged.Rows()
	reportPath := filepath.Join(w.dir, ReportFile)
	if err := writeReport(reportPath, rows); err != nil {
		return err
	}
	askPath := filepath.Join(w.dir, AskClientFile)
	n, err := writeAskClient(askPath, rows)
	if err != nil {
		return err
	}
	w.log.Info().
		Str("report", reportPath).
		Int("report_rows", len(rows)).
		Str("askclient", askPath).
		Int("askclient_rows", n).
		Msg("workbooks written")
	return nil
}

func writeReport(path string, rows []model.AnalysisResult) error {
	var askTrue, askFalse [][]any
	all := make([][]any, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		all = append(all, r.CopyValues())
		if r.AskClient {
			askTrue = append(askTrue, r.CopyValues())
		} else {
			askFalse = append(askFalse, r.SummaryValues())
		}
	}

	f := excelize.NewFile()
	defer f.Close()
	sheets := []struct {
		name    string
		headers []string
		rows    [][]any
	}{
		{SheetAllData, model.ResultHeaders(), all},
		{SheetAskTrue, model.ResultHeaders(), askTrue},
		{SheetAskFalse, model.SummaryHeaders(), askFalse},
	}
	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, s.name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("create sheet %s: %w", s.name, err)
		}
		if err := writeSheet(f, s.name, s.headers, s.rows); err != nil {
			return err
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func writeAskClient(path string, rows []model.AnalysisResult) (int, error) {
	var out [][]any
	for i := range rows {
		if !rows[i].InAskClientView() {
			continue
		}
		ac := rows[i].AskClientRow()
		out = append(out, ac.CopyValues())
	}
	f := excelize.NewFile()
	defer f.Close()
	if err := writeSheet(f, defaultSheet, model.AskClientHeaders(), out); err != nil {
		return 0, err
	}
	if err := f.SaveAs(path); err != nil {
		return 0, fmt.Errorf("save %s: %w", path, err)
	}
	return len(out), nil
}

// WriteShareReport writes the appointment share report as a single sheet.
func WriteShareReport(path string, rows []model.ShareRow) error {
	data := make([][]any, len(rows))
	for i := range rows {
		data[i] = rows[i].Values()
	}
	f := excelize.NewFile()
	defer f.Close()
	if err := writeSheet(f, defaultSheet, model.ShareHeaders(), data); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]any) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("stream writer %s: %w", sheet, err)
	}
	head := make([]any, len(headers))
	for i, h := range headers {
		head[i] = h
	}
	if err := sw.SetRow("A1", head); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		vals := make([]any, len(row))
		for j, v := range row {
			vals[j] = cellValue(v)
		}
		if err := sw.SetRow(cell, vals); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", sheet, err)
	}
	return nil
}

// cellValue dereferences nullable columns; nil becomes an empty cell.
func cellValue(v any) any {
	switch x := v.(type) {
	case *bool:
		if x == nil {
			return nil
		}
		return *x
	case *float64:
		if x == nil {
			return nil
		}
		return *x
	case *string:
		if x == nil {
			return nil
		}
		return *x
	}
	return v
}
