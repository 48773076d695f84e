package model

// The *Row types mirror the Parquet snapshot schema. Dates are kept as text,
// the way the warehouse extract writes them, and parsed during normalization.

// ServiceTypeRow is one row of service_types.parquet.
type ServiceTypeRow struct {
	Client         string  `parquet:"client"`
	TypeID         int64   `parquet:"type_id"`
	Description    *string `parquet:"description,optional"`
	Reservice      *int64  `parquet:"reservice,optional"`
	RegularService *int64  `parquet:"regular_service,optional"`
	Frequency      *int64  `parquet:"frequency,optional"`
	DefaultLength  *int64  `parquet:"default_length,optional"`
	InitialID      *int64  `parquet:"initial_id,optional"`
	Initial        *int64  `parquet:"initial,optional"`
	DateLoaded     string  `parquet:"date_loaded"`
}

// RecurringLookupRow is one row of recurring_lookup.parquet.
type RecurringLookupRow struct {
	ClientID    string `parquet:"client_id"`
	ServiceType string `parquet:"service_type"`
	IsRecurring string `parquet:"is_recurring"`
}

// MergedServiceTypeRow is one row of merged_service_types.parquet.
type MergedServiceTypeRow struct {
	ClientID    string  `parquet:"client_id"`
	TypeID      int64   `parquet:"type_id"`
	Description *string `parquet:"description,optional"`
}

// AppointmentRow is one row of appointments.parquet.
type AppointmentRow struct {
	IndividualAccountID string `parquet:"individual_account_id"`
	Type                int64  `parquet:"type"`
	AppointmentDate     string `parquet:"appointment_date"`
	ClientID            string `parquet:"client_id"`
}

// SubscriptionRow is one row of subscriptions.parquet.
type SubscriptionRow struct {
	SubscriptionID          string  `parquet:"subscription_id"`
	ServiceID               string  `parquet:"service_id"`
	AnnualRecurringServices *string `parquet:"annual_recurring_services,optional"`
	Active                  bool    `parquet:"active"`
	DateCancelled           *string `parquet:"date_cancelled,optional"`
	ClientID                string  `parquet:"client_id"`
}
