package resolve

import (
	"strings"

	"github.com/gyeh/stclassify/internal/signal"
)

// Final is the fully resolved attribute set. Every field is definite.
type Final struct {
	Recurring     bool
	Reservice     bool
	ZeroVisitTime bool
	HasReservice  bool
}

// Enforcement is the result of applying the business invariants.
type Enforcement struct {
	Final       Final
	Corrections []string
	Violations  []string
}

// CorrectionText joins the corrections for reporting.
func (e Enforcement) CorrectionText() string {
	return strings.Join(e.Corrections, "; ")
}

// Interim builds the enforcer input from resolved attributes. hasReservice
// is only seeded from the flag decoder when recurrence is unresolved.
func Interim(recurring, reservice, zeroVisitTime Resolution, decoderHasReservice signal.Value) signal.Set {
	s := signal.Set{
		Recurring:     recurring.Value,
		Reservice:     reservice.Value,
		ZeroVisitTime: zeroVisitTime.Value,
	}
	if !recurring.Value.Known() {
		s.HasReservice = decoderHasReservice
	}
	return s
}

// Enforce applies the four invariants once, in order, each observing the
// corrections of the rules before it. Attributes still Unknown afterwards
// default to false.
func Enforce(in signal.Set) Enforcement {
	s := in
	var e Enforcement

	if s.Recurring == signal.True && s.HasReservice != signal.True {
		s.HasReservice = signal.True
		e.Corrections = append(e.Corrections, "set hasReservice=true because isRecurring=true")
	}
	if s.ZeroVisitTime == signal.True && s.HasReservice == signal.True {
		s.HasReservice = signal.False
		e.Corrections = append(e.Corrections, "set hasReservice=false because zeroVisitTime=true")
		e.Violations = append(e.Violations, "zeroVisitTime=true conflicts with hasReservice=true")
	}
	if s.Recurring == signal.True && s.Reservice == signal.True {
		s.Reservice = signal.False
		e.Corrections = append(e.Corrections, "set isRervice=false because isRecurring=true")
		e.Violations = append(e.Violations, "isRecurring=true conflicts with isRervice=true")
	}
	if s.Reservice == signal.True && s.HasReservice == signal.True {
		s.HasReservice = signal.False
		e.Corrections = append(e.Corrections, "set hasReservice=false because isRervice=true")
		e.Violations = append(e.Violations, "isRervice=true conflicts with hasReservice=true")
	}

	e.Final = Final{
		Recurring:     s.Recurring.Or(false),
		Reservice:     s.Reservice.Or(false),
		ZeroVisitTime: s.ZeroVisitTime.Or(false),
		HasReservice:  s.HasReservice.Or(false),
	}
	return e
}
