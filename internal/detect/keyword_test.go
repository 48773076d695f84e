package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gyeh/stclassify/internal/config"
	"github.com/gyeh/stclassify/internal/signal"
)

func strp(s string) *string { return &s }

func TestKeywordDetector(t *testing.T) {
	d := NewKeywordDetector(config.DefaultRules().Keywords)

	tests := []struct {
		desc string
		want signal.Set
	}{
		{"Monthly Lawn Service", signal.Set{Recurring: signal.True}},
		{"QC Callback", signal.Set{Reservice: signal.True}},
		{"Equipment Charge", signal.Set{ZeroVisitTime: signal.True}},
		{"BED BUG treatment", signal.Set{HasReservice: signal.True}},
		{"General inspection", signal.Set{}},
		{"Ant Control", signal.Set{HasReservice: signal.True}},
		{"Fire ants (quarterly)", signal.Set{HasReservice: signal.True}},
		{"Lawn maintenance", signal.Set{}},
		{"Plant health guarantee", signal.Set{}},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Detect(strp(tt.desc)))
		})
	}
}

func TestKeywordDetector_NeverFalse(t *testing.T) {
	d := NewKeywordDetector(config.Keywords{Recurring: []string{"weekly"}})
	got := d.Detect(strp("One-time cleanout"))
	for _, attr := range signal.KnownAttributes {
		assert.Equal(t, signal.Unknown, got.Get(attr), attr)
	}
}

func TestKeywordDetector_NilDescription(t *testing.T) {
	d := NewKeywordDetector(config.DefaultRules().Keywords)
	assert.Equal(t, signal.Set{}, d.Detect(nil))
}

func TestKeywordDetector_CaseFolding(t *testing.T) {
	d := NewKeywordDetector(config.Keywords{Recurring: []string{"WEEKLY"}})
	assert.Equal(t, signal.True, d.Detect(strp("Bi-Weekly pest")).Recurring)
}

func TestKeywordDetector_WholeWordKeywords(t *testing.T) {
	d := NewKeywordDetector(config.Keywords{HasReservice: []string{" ant "}, ZeroTime: []string{"fee"}})

	assert.Equal(t, signal.True, d.Detect(strp("ANT/Spider")).HasReservice)
	assert.Equal(t, signal.Unknown, d.Detect(strp("Antimicrobial wash")).HasReservice)
	assert.Equal(t, signal.True, d.Detect(strp("Trip Feeder")).ZeroVisitTime, "plain keywords stay substrings")
}
