package model

import (
	"time"

	"github.com/gyeh/stclassify/internal/signal"
)

// ServiceType is one catalog entry for a client after load-batch
// de-duplication. SalesMapping is attached from the recurring lookup.
type ServiceType struct {
	ClientID     string
	TypeID       int64
	Description  *string
	Flags        VendorFlags
	LoadedAt     time.Time
	SalesMapping signal.Value
}

// DescriptionText returns the description or "" when missing.
func (s *ServiceType) DescriptionText() string {
	if s.Description == nil {
		return ""
	}
	return *s.Description
}

// RecurringLookup is one row of the curated sales mapping, keyed by
// description text.
type RecurringLookup struct {
	ClientID    string
	ServiceType string
	IsRecurring string
}

// Value normalizes IsRecurring: TRUE/FALSE (any case) are known, anything
// else is Unknown.
func (l RecurringLookup) Value() signal.Value {
	v, err := signal.Parse(l.IsRecurring)
	if err != nil {
		return signal.Unknown
	}
	return v
}

// MergedServiceType is the merged catalog used to audit descriptions.
type MergedServiceType struct {
	ClientID    string
	TypeID      int64
	Description *string
}

// Appointment is a single visit. A zero VisitDate means the source date
// was missing or unparseable.
type Appointment struct {
	AccountID string
	TypeID    int64
	VisitDate time.Time
	ClientID  string
}

// Subscription is a customer subscription. ServiceID is kept as the raw
// text because sources encode it as either an integer or a string.
type Subscription struct {
	SubscriptionID       string
	ServiceID            string
	Active               bool
	CancelledAt          *time.Time
	ClientID             string
	AnnualRecurringValue *string
}

// IsLive reports whether the subscription is active and not cancelled.
func (s *Subscription) IsLive() bool {
	return s.Active && s.CancelledAt == nil
}

// ClientData is every record set the engine needs for one client.
type ClientData struct {
	ClientID      string
	ServiceTypes  []ServiceType
	Lookup        []RecurringLookup
	MergedTypes   []MergedServiceType
	Appointments  []Appointment
	Subscriptions []Subscription
}
