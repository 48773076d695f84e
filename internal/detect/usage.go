package detect

import (
	"time"

	"github.com/gyeh/stclassify/internal/model"
	"github.com/gyeh/stclassify/internal/normalize"
)

// Usage is the recency and subscription picture for one service type.
type Usage struct {
	HasVisits             bool
	HasActiveSubscription bool
	RepeatedName          bool
	Expired               bool
}

// UsageAnalyzer checks visit recency against a lookback window.
type UsageAnalyzer struct {
	lookbackYears int
}

// NewUsageAnalyzer returns an analyzer with the given lookback in years.
func NewUsageAnalyzer(lookbackYears int) *UsageAnalyzer {
	return &UsageAnalyzer{lookbackYears: lookbackYears}
}

// Cutoff returns the earliest visit date that still counts as recent.
func (u *UsageAnalyzer) Cutoff(asOf time.Time) time.Time {
	return asOf.AddDate(-u.lookbackYears, 0, 0)
}

// Analyze evaluates one catalog entry. descCounts comes from
// CountDescriptions over the de-duplicated client catalog.
//
// Expired is true when either the recent visit or the live subscription is
// missing.
func (u *UsageAnalyzer) Analyze(st *model.ServiceType, appts []model.Appointment, subs []model.Subscription, descCounts map[string]int, asOf time.Time) Usage {
	cutoff := u.Cutoff(asOf)
	var out Usage
	for _, a := range appts {
		if a.ClientID == st.ClientID && a.TypeID == st.TypeID && !a.VisitDate.IsZero() && !a.VisitDate.Before(cutoff) {
			out.HasVisits = true
			break
		}
	}
	out.HasActiveSubscription = HasActiveSubscription(st.ClientID, st.TypeID, subs)
	if st.Description != nil {
		out.RepeatedName = descCounts[*st.Description] > 1
	}
	out.Expired = !out.HasVisits || !out.HasActiveSubscription
	return out
}

// HasActiveSubscription reports whether any live subscription of clientID
// references typeID, whether the service id is stored as text or a number.
func HasActiveSubscription(clientID string, typeID int64, subs []model.Subscription) bool {
	for i := range subs {
		s := &subs[i]
		if s.ClientID == clientID && s.IsLive() && normalize.MatchesTypeID(s.ServiceID, typeID) {
			return true
		}
	}
	return false
}

// CountDescriptions counts exact description text across a catalog.
// Entries without a description are not counted.
func CountDescriptions(catalog []model.ServiceType) map[string]int {
	counts := make(map[string]int, len(catalog))
	for _, st := range catalog {
		if st.Description != nil {
			counts[*st.Description]++
		}
	}
	return counts
}
