package model

// ShareRow is one line of the appointment share report.
type ShareRow struct {
	ClientID string
	TypeID   int64
	Service  string // catalog description, or the type id when unknown
	Count    int64
	SharePct float64
}

// ShareHeaders returns the share report headers.
func ShareHeaders() []string {
	return []string{"clientId", "TYPE_ID", "service", "appointmentCount", "appointmentSharePct"}
}

// Values returns the row in ShareHeaders order.
func (r *ShareRow) Values() []any {
	return []any{r.ClientID, r.TypeID, r.Service, r.Count, r.SharePct}
}
