package model

// AskClientRow is the narrow review view: final attributes aliased to the
// names the client-facing table uses.
type AskClientRow struct {
	TypeID              int64
	Description         string
	Recurrence          int64
	HasReservice        bool
	IsReservice         bool
	ZeroVisitTime       bool
	AppointmentSharePct *float64
	ClientID            string
}

// AskClientRow projects r into the review view. Recurrence carries the raw
// vendor frequency flag.
func (r *AnalysisResult) AskClientRow() AskClientRow {
	return AskClientRow{
		TypeID:              r.TypeID,
		Description:         r.Description,
		Recurrence:          r.FlagFrequency,
		HasReservice:        r.FinalHasReservice,
		IsReservice:         r.FinalReservice,
		ZeroVisitTime:       r.FinalZeroTime,
		AppointmentSharePct: r.AppointmentSharePct,
		ClientID:            r.ClientID,
	}
}

var askClientColumns = []column[AskClientRow]{
	{"type_id", "TYPE_ID", func(r *AskClientRow) any { return r.TypeID }},
	{"description", "DESCRIPTION", func(r *AskClientRow) any { return r.Description }},
	{"recurrence", "Recurrence", func(r *AskClientRow) any { return r.Recurrence }},
	{"has_reservice", "hasReservice", func(r *AskClientRow) any { return r.HasReservice }},
	{"is_reservice", "isRervice", func(r *AskClientRow) any { return r.IsReservice }},
	{"zero_visit_time", "zeroVisitTime", func(r *AskClientRow) any { return r.ZeroVisitTime }},
	{"appointment_share_pct", "Appointment Share Pct", func(r *AskClientRow) any { return r.AppointmentSharePct }},
	{"client_id", "clientId", func(r *AskClientRow) any { return r.ClientID }},
}

// AskClientColumns returns the ordered column names for the review table.
func AskClientColumns() []string { return names(askClientColumns) }

// AskClientHeaders returns the review view headers.
func AskClientHeaders() []string { return headers(askClientColumns) }

// CopyValues returns the row values in AskClientColumns() order.
func (r *AskClientRow) CopyValues() []any { return values(askClientColumns, r) }
