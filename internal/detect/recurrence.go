package detect

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/gyeh/stclassify/internal/config"
	"github.com/gyeh/stclassify/internal/model"
	"github.com/gyeh/stclassify/internal/signal"
)

// Reasons reported when there is nothing to measure.
const (
	ReasonNoAppointments = "no appointments for this service type"
	ReasonNoValidDates   = "no valid appointment dates"
)

// Recurrence is the appointment-derived recurring signal for one service type.
type Recurrence struct {
	Value          signal.Value
	Confidence     float64
	Reason         string
	Accounts       int
	StrongAccounts int
}

// AccountEvidence summarizes one account's visit history.
type AccountEvidence struct {
	AccountID          string
	Visits             int
	Years              int
	HasConsecutiveYear bool
	MedianGapDays      float64 // NaN with fewer than two visits
	StableCadence      bool
}

// Strong reports whether the account supports a recurring classification.
func (a AccountEvidence) Strong() bool {
	return a.HasConsecutiveYear || a.StableCadence
}

// RecurrenceDetector infers recurrence from per-account visit cadence.
type RecurrenceDetector struct {
	cfg config.Recurrence
}

// NewRecurrenceDetector returns a detector using cfg thresholds and bands.
func NewRecurrenceDetector(cfg config.Recurrence) *RecurrenceDetector {
	return &RecurrenceDetector{cfg: cfg}
}

// Detect evaluates the appointments of one (client, type) pair. Appointments
// for other clients or types are ignored, so callers may pass either a
// pre-grouped slice or the client's full history.
func (d *RecurrenceDetector) Detect(clientID string, typeID int64, appts []model.Appointment, hasActiveSubscription bool) Recurrence {
	byAccount := make(map[string][]time.Time)
	seen := false
	for _, a := range appts {
		if a.ClientID != clientID || a.TypeID != typeID {
			continue
		}
		seen = true
		if a.VisitDate.IsZero() {
			continue
		}
		byAccount[a.AccountID] = append(byAccount[a.AccountID], a.VisitDate)
	}
	if !seen {
		return Recurrence{Value: signal.Unknown, Reason: ReasonNoAppointments}
	}
	if len(byAccount) == 0 {
		return Recurrence{Value: signal.Unknown, Reason: ReasonNoValidDates}
	}

	accounts := make([]string, 0, len(byAccount))
	for id := range byAccount {
		accounts = append(accounts, id)
	}
	sort.Strings(accounts)

	strong := 0
	for _, id := range accounts {
		if d.Account(id, byAccount[id]).Strong() {
			strong++
		}
	}
	return d.decide(strong, len(accounts), hasActiveSubscription)
}

// Account computes the evidence for one account's visit dates.
func (d *RecurrenceDetector) Account(id string, visits []time.Time) AccountEvidence {
	dates := append([]time.Time(nil), visits...)
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	years := make(map[int]bool)
	for _, t := range dates {
		years[t.Year()] = true
	}
	ev := AccountEvidence{AccountID: id, Visits: len(dates), Years: len(years), MedianGapDays: math.NaN()}
	for y := range years {
		if years[y+1] {
			ev.HasConsecutiveYear = true
			break
		}
	}

	if len(dates) >= 2 {
		gaps := make([]float64, 0, len(dates)-1)
		for i := 1; i < len(dates); i++ {
			gaps = append(gaps, math.Floor(dates[i].Sub(dates[i-1]).Hours()/24))
		}
		ev.MedianGapDays = median(gaps)
		if ev.Visits >= d.cfg.MinVisits {
			for _, b := range d.cfg.Bands {
				if b.Contains(ev.MedianGapDays) {
					ev.StableCadence = true
					break
				}
			}
		}
	}
	return ev
}

func (d *RecurrenceDetector) decide(strong, total int, hasActiveSubscription bool) Recurrence {
	ratio := float64(strong) / float64(total)
	parts := []string{fmt.Sprintf("%d/%d accounts strong (%.0f%%)", strong, total, ratio*100)}
	if hasActiveSubscription {
		parts = append(parts, "active subscription present")
	}

	r := Recurrence{Accounts: total, StrongAccounts: strong}
	switch {
	case ratio >= d.cfg.StrongRatio && hasActiveSubscription:
		r.Value, r.Confidence = signal.True, 1.0
		parts = append(parts, "meets strong ratio threshold with active subscription")
	case ratio >= d.cfg.StrongRatio:
		r.Value, r.Confidence = signal.True, 0.7
		parts = append(parts, "meets strong ratio threshold")
	case strong > 0:
		r.Value, r.Confidence = signal.Unknown, 0.5
		parts = append(parts, "some accounts show recurring, below threshold")
	default:
		r.Value, r.Confidence = signal.Unknown, 0.0
		parts = append(parts, "no recurring evidence")
	}
	r.Reason = strings.Join(parts, "; ")
	return r
}

func median(xs []float64) float64 {
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}
