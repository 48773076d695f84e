package model

import "time"

// RunSummary captures metrics from a single classification run.
type RunSummary struct {
	RunID            string
	AsOf             time.Time
	ClientsRequested int
	ClientsProcessed int
	ClientsFailed    []string
	ServiceTypes     int64
	RowsAskClient    int64
	RowsReported     int64
	DurationLoad     time.Duration
	DurationAnalyze  time.Duration
	DurationExport   time.Duration
	DurationTotal    time.Duration
}
