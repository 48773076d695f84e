package signal

import "fmt"

// Source names a signal provider.
type Source string

const (
	SourceSalesMapping Source = "SalesMapping"
	SourceAppointments Source = "Appointments"
	SourceAPI          Source = "API"
	SourceWord         Source = "Word"
)

// KnownSources lists every source the resolver understands.
var KnownSources = []Source{SourceSalesMapping, SourceAppointments, SourceAPI, SourceWord}

// IsKnownSource reports whether name is one of KnownSources.
func IsKnownSource(name string) bool {
	for _, s := range KnownSources {
		if string(s) == name {
			return true
		}
	}
	return false
}

// Attribute names one of the four canonical booleans.
type Attribute string

const (
	AttrRecurring     Attribute = "isRecurring"
	AttrReservice     Attribute = "isRervice"
	AttrZeroVisitTime Attribute = "zeroVisitTime"
	AttrHasReservice  Attribute = "hasReservice"
)

// KnownAttributes lists the canonical attributes in report order.
var KnownAttributes = []Attribute{AttrRecurring, AttrReservice, AttrZeroVisitTime, AttrHasReservice}

// ParseAttribute accepts the canonical names plus the short aliases used in
// rule files.
func ParseAttribute(s string) (Attribute, error) {
	switch s {
	case "isRecurring", "recurring":
		return AttrRecurring, nil
	case "isRervice", "isReservice", "reservice":
		return AttrReservice, nil
	case "zeroVisitTime", "zeroTime", "zero_time":
		return AttrZeroVisitTime, nil
	case "hasReservice", "has_reservice":
		return AttrHasReservice, nil
	}
	return "", fmt.Errorf("unknown attribute %q", s)
}

// Evidence is one source's assertion about one attribute.
type Evidence struct {
	Source Source
	Value  Value
	Reason string
}

// Set holds the four attribute values produced by a single source.
type Set struct {
	Recurring     Value
	Reservice     Value
	ZeroVisitTime Value
	HasReservice  Value
}

// Get returns the value for attr.
func (s Set) Get(attr Attribute) Value {
	switch attr {
	case AttrRecurring:
		return s.Recurring
	case AttrReservice:
		return s.Reservice
	case AttrZeroVisitTime:
		return s.ZeroVisitTime
	case AttrHasReservice:
		return s.HasReservice
	}
	return Unknown
}

// With returns a copy of s with attr set to v.
func (s Set) With(attr Attribute, v Value) Set {
	switch attr {
	case AttrRecurring:
		s.Recurring = v
	case AttrReservice:
		s.Reservice = v
	case AttrZeroVisitTime:
		s.ZeroVisitTime = v
	case AttrHasReservice:
		s.HasReservice = v
	}
	return s
}

// UnmarshalText lets rule files use the attribute aliases accepted by
// ParseAttribute.
func (a *Attribute) UnmarshalText(text []byte) error {
	parsed, err := ParseAttribute(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
