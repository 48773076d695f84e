package detect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gyeh/stclassify/internal/model"
)

func TestUsageAnalyzer(t *testing.T) {
	asOf := day(2024, 6, 1)
	u := NewUsageAnalyzer(2)
	cancelled := day(2023, 1, 1)

	catalog := []model.ServiceType{
		{ClientID: "ACME", TypeID: 1, Description: strp("Lawn")},
		{ClientID: "ACME", TypeID: 2, Description: strp("Lawn")},
		{ClientID: "ACME", TypeID: 3, Description: strp("Pest")},
		{ClientID: "ACME", TypeID: 4},
	}
	counts := CountDescriptions(catalog)

	appts := []model.Appointment{
		{AccountID: "a", TypeID: 1, VisitDate: day(2022, 6, 1), ClientID: "ACME"},
		{AccountID: "a", TypeID: 2, VisitDate: day(2022, 5, 31), ClientID: "ACME"},
		{AccountID: "a", TypeID: 3, VisitDate: day(2024, 1, 1), ClientID: "OTHER"},
	}
	subs := []model.Subscription{
		{ServiceID: "1", Active: true, ClientID: "ACME"},
		{ServiceID: "2.0", Active: true, ClientID: "ACME"},
		{ServiceID: "3", Active: true, CancelledAt: &cancelled, ClientID: "ACME"},
		{ServiceID: "4", Active: false, ClientID: "ACME"},
	}

	tests := []struct {
		idx  int
		want Usage
	}{
		{0, Usage{HasVisits: true, HasActiveSubscription: true, RepeatedName: true, Expired: false}},
		{1, Usage{HasVisits: false, HasActiveSubscription: true, RepeatedName: true, Expired: true}},
		{2, Usage{HasVisits: false, HasActiveSubscription: false, RepeatedName: false, Expired: true}},
		{3, Usage{Expired: true}},
	}
	for _, tt := range tests {
		st := catalog[tt.idx]
		assert.Equal(t, tt.want, u.Analyze(&st, appts, subs, counts, asOf), "type %d", st.TypeID)
	}
}

func TestUsageAnalyzer_Cutoff(t *testing.T) {
	u := NewUsageAnalyzer(2)
	assert.Equal(t, time.Date(2022, 2, 28, 12, 0, 0, 0, time.UTC), u.Cutoff(time.Date(2024, 2, 28, 12, 0, 0, 0, time.UTC)))
}
