package model

// AnalysisResult is the engine's output for one service type. Nullable
// pointer fields carry source-level signals where Unknown is meaningful.
type AnalysisResult struct {
	RunID       string `parquet:"run_id"`
	ClientID    string `parquet:"client"`
	TypeID      int64  `parquet:"type_id"`
	Description string `parquet:"description"`

	FlagReservice      int64 `parquet:"api_reservice_flag"`
	FlagRegularService int64 `parquet:"api_regular_service_flag"`
	FlagFrequency      int64 `parquet:"api_frequency_flag"`
	FlagDefaultLength  int64 `parquet:"api_default_length_flag"`
	FlagInitialID      int64 `parquet:"api_initial_id_flag"`
	FlagInitial        int64 `parquet:"api_initial_flag"`

	HasVisitsPast2Years   bool `parquet:"has_visits_past_2_years"`
	HasActiveSubscription bool `parquet:"has_active_subscription"`
	RepeatedName          bool `parquet:"repeated_name"`

	APIReservice     *bool `parquet:"api_reservice,optional"`
	APIRecurring     *bool `parquet:"api_recurring,optional"`
	APIZeroTime      *bool `parquet:"api_zero_time,optional"`
	APIHasReservice  *bool `parquet:"api_has_reservice,optional"`
	WordReservice    *bool `parquet:"word_reservice,optional"`
	WordRecurring    *bool `parquet:"word_recurring,optional"`
	WordZeroTime     *bool `parquet:"word_zero_time,optional"`
	WordHasReservice *bool `parquet:"word_has_reservice,optional"`

	SalesMappingRecurring *bool   `parquet:"sales_mapping_recurring,optional"`
	ApptRecurring         *bool   `parquet:"appt_recurring,optional"`
	ApptRecurringScore    float64 `parquet:"appt_recurring_score"`
	ApptRecurringReason   string  `parquet:"appt_recurring_reason"`

	FinalReservice    bool `parquet:"final_reservice"`
	FinalRecurring    bool `parquet:"final_recurring"`
	FinalZeroTime     bool `parquet:"final_zero_time"`
	FinalHasReservice bool `parquet:"final_has_reservice"`

	ExpiredCode bool `parquet:"expired_code"`

	ReserviceReason    string `parquet:"askclient_reservice_reason"`
	RecurringReason    string `parquet:"askclient_recurring_reason"`
	ZeroTimeReason     string `parquet:"askclient_zero_time_reason"`
	HasReserviceReason string `parquet:"askclient_has_reservice_reason"`

	AppointmentSharePct *float64 `parquet:"appointment_share_pct,optional"`
	RevenueSharePct     *float64 `parquet:"revenue_share_pct,optional"`
	HighPriorityReason  string   `parquet:"askclient_high_priority_reason"`
	HighRevenueReason   string   `parquet:"askclient_high_revenue_reason"`

	Corrections string `parquet:"corrections"`
	AskClient   bool   `parquet:"askclient"`
}

// InReport reports whether the row belongs in the general report: an active
// subscription or a visit inside the lookback window.
func (r *AnalysisResult) InReport() bool {
	return r.HasActiveSubscription || r.HasVisitsPast2Years
}

// InAskClientView reports whether the row needs client review and is still live.
func (r *AnalysisResult) InAskClientView() bool {
	return r.AskClient && !r.ExpiredCode
}

type column[T any] struct {
	Name   string
	Header string
	get    func(*T) any
}

var resultColumns = []column[AnalysisResult]{
	{"type_id", "TYPE_ID", func(r *AnalysisResult) any { return r.TypeID }},
	{"description", "DESCRIPTION", func(r *AnalysisResult) any { return r.Description }},
	{"api_reservice_flag", "API RESERVICE FLAG", func(r *AnalysisResult) any { return r.FlagReservice }},
	{"api_regular_service_flag", "API REGULAR_SERVICE FLAG", func(r *AnalysisResult) any { return r.FlagRegularService }},
	{"api_frequency_flag", "API FREQUENCY FLAG", func(r *AnalysisResult) any { return r.FlagFrequency }},
	{"api_default_length_flag", "API DEFAULT_LENGTH FLAG", func(r *AnalysisResult) any { return r.FlagDefaultLength }},
	{"api_initial_id_flag", "API INITIAL ID FLAG", func(r *AnalysisResult) any { return r.FlagInitialID }},
	{"api_initial_flag", "API INITIAL FLAG", func(r *AnalysisResult) any { return r.FlagInitial }},
	{"has_visits_past_2_years", "hasVisitsInPast2Years", func(r *AnalysisResult) any { return r.HasVisitsPast2Years }},
	{"has_active_subscription", "hasActiveSubscription", func(r *AnalysisResult) any { return r.HasActiveSubscription }},
	{"repeated_name", "Repeated Name", func(r *AnalysisResult) any { return r.RepeatedName }},
	{"api_reservice", "API Reservice", func(r *AnalysisResult) any { return r.APIReservice }},
	{"api_recurring", "API Recurring", func(r *AnalysisResult) any { return r.APIRecurring }},
	{"api_zero_time", "API Zero Time", func(r *AnalysisResult) any { return r.APIZeroTime }},
	{"api_has_reservice", "API Has Reservice", func(r *AnalysisResult) any { return r.APIHasReservice }},
	{"word_reservice", "Word Signal Reservice", func(r *AnalysisResult) any { return r.WordReservice }},
	{"word_recurring", "Word Signal Recurring", func(r *AnalysisResult) any { return r.WordRecurring }},
	{"word_zero_time", "Word Signal Zero Time", func(r *AnalysisResult) any { return r.WordZeroTime }},
	{"word_has_reservice", "Word Signal Has Reservice", func(r *AnalysisResult) any { return r.WordHasReservice }},
	{"sales_mapping_recurring", "Sales Mapping Recurring", func(r *AnalysisResult) any { return r.SalesMappingRecurring }},
	{"appt_recurring", "Appt Recurring", func(r *AnalysisResult) any { return r.ApptRecurring }},
	{"appt_recurring_score", "Appt Recurring Score", func(r *AnalysisResult) any { return r.ApptRecurringScore }},
	{"appt_recurring_reason", "Appt Recurring - Reason", func(r *AnalysisResult) any { return r.ApptRecurringReason }},
	{"final_reservice", "Final Reservice", func(r *AnalysisResult) any { return r.FinalReservice }},
	{"final_recurring", "Final Recurring", func(r *AnalysisResult) any { return r.FinalRecurring }},
	{"final_zero_time", "Final Zero Time", func(r *AnalysisResult) any { return r.FinalZeroTime }},
	{"final_has_reservice", "Final Has Reservice", func(r *AnalysisResult) any { return r.FinalHasReservice }},
	{"expired_code", "Expired Code", func(r *AnalysisResult) any { return r.ExpiredCode }},
	{"askclient_reservice_reason", "AskClient Reservice - Reason", func(r *AnalysisResult) any { return r.ReserviceReason }},
	{"askclient_recurring_reason", "AskClient Recurring - Reason", func(r *AnalysisResult) any { return r.RecurringReason }},
	{"askclient_zero_time_reason", "AskClient Zero Time - Reason", func(r *AnalysisResult) any { return r.ZeroTimeReason }},
	{"askclient_has_reservice_reason", "AskClient Has Reservice - Reason", func(r *AnalysisResult) any { return r.HasReserviceReason }},
	{"appointment_share_pct", "Appointment Share Pct", func(r *AnalysisResult) any { return r.AppointmentSharePct }},
	{"revenue_share_pct", "Revenue Share Pct", func(r *AnalysisResult) any { return r.RevenueSharePct }},
	{"askclient_high_priority_reason", "AskClient High Priority - Reason", func(r *AnalysisResult) any { return r.HighPriorityReason }},
	{"askclient_high_revenue_reason", "AskClient High Revenue - Reason", func(r *AnalysisResult) any { return r.HighRevenueReason }},
	{"corrections", "Corrections", func(r *AnalysisResult) any { return r.Corrections }},
	{"askclient", "AskClient", func(r *AnalysisResult) any { return r.AskClient }},
	{"client", "Client", func(r *AnalysisResult) any { return r.ClientID }},
	{"run_id", "Run ID", func(r *AnalysisResult) any { return r.RunID }},
}

// summaryColumns is the reduced view used for rows that need no review.
var summaryColumns = []column[AnalysisResult]{
	{"type_id", "TYPE_ID", func(r *AnalysisResult) any { return r.TypeID }},
	{"description", "DESCRIPTION", func(r *AnalysisResult) any { return r.Description }},
	{"final_reservice", "Reservice", func(r *AnalysisResult) any { return r.FinalReservice }},
	{"final_recurring", "Recurring", func(r *AnalysisResult) any { return r.FinalRecurring }},
	{"final_zero_time", "Zero Time", func(r *AnalysisResult) any { return r.FinalZeroTime }},
	{"final_has_reservice", "Has Reservice", func(r *AnalysisResult) any { return r.FinalHasReservice }},
	{"api_frequency_flag", "API FREQUENCY FLAG", func(r *AnalysisResult) any { return r.FlagFrequency }},
	{"api_reservice_flag", "API RESERVICE FLAG", func(r *AnalysisResult) any { return r.FlagReservice }},
	{"api_regular_service_flag", "API REGULAR_SERVICE FLAG", func(r *AnalysisResult) any { return r.FlagRegularService }},
	{"api_default_length_flag", "API DEFAULT_LENGTH FLAG", func(r *AnalysisResult) any { return r.FlagDefaultLength }},
	{"has_visits_past_2_years", "hasVisitsInPast2Years", func(r *AnalysisResult) any { return r.HasVisitsPast2Years }},
	{"has_active_subscription", "hasActiveSubscription", func(r *AnalysisResult) any { return r.HasActiveSubscription }},
	{"expired_code", "Expired Code", func(r *AnalysisResult) any { return r.ExpiredCode }},
	{"client", "Client", func(r *AnalysisResult) any { return r.ClientID }},
}

// ResultColumns returns the ordered column names for COPY into the results table.
func ResultColumns() []string { return names(resultColumns) }

// ResultHeaders returns the report headers in the same order as ResultColumns.
func ResultHeaders() []string { return headers(resultColumns) }

// CopyValues returns the row values in the same order as ResultColumns(),
// suitable for pgx CopyFromSource.
func (r *AnalysisResult) CopyValues() []any { return values(resultColumns, r) }

// SummaryHeaders returns the headers of the reduced summary view.
func SummaryHeaders() []string { return headers(summaryColumns) }

// SummaryValues returns the row values of the reduced summary view.
func (r *AnalysisResult) SummaryValues() []any { return values(summaryColumns, r) }

func names[T any](cols []column[T]) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}

func headers[T any](cols []column[T]) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Header
	}
	return out
}

func values[T any](cols []column[T], row *T) []any {
	out := make([]any, len(cols))
	for i, c := range cols {
		out[i] = c.get(row)
	}
	return out
}
