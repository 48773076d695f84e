package resolve

import (
	"fmt"
	"strings"

	"github.com/gyeh/stclassify/internal/signal"
)

// Escalation reasons for high-impact service types.
const (
	ReasonHighPriority = "high priority service"
	ReasonHighRevenue  = "high revenue service"
)

// Ranked is one attribute's evidence in priority order.
type Ranked struct {
	Attribute signal.Attribute
	Evidence  []signal.Evidence
}

// Impact marks a service type as belonging to the client's top sets.
type Impact struct {
	HighPriority bool
	HighRevenue  bool
}

// Escalation is the AskClient decision with its reasons.
type Escalation struct {
	AskClient    bool
	Reasons      []string
	ByAttribute  map[signal.Attribute]string
	HighPriority string
	HighRevenue  string
}

// Reason returns the joined reasons for attr, or "" when none fired.
func (e Escalation) Reason(attr signal.Attribute) string {
	return e.ByAttribute[attr]
}

// Escalate runs the top-two and top-vs-rest rules over every ranked
// attribute, then the high-impact rules. hasReservice is never ranked, so
// its reason is always empty.
func Escalate(ranked []Ranked, impact Impact) Escalation {
	e := Escalation{ByAttribute: make(map[signal.Attribute]string)}
	perAttr := make(map[signal.Attribute][]string)

	for _, r := range ranked {
		if reason, ok := TopTwoDisagree(r.Attribute, r.Evidence); ok {
			e.Reasons = append(e.Reasons, reason)
			perAttr[r.Attribute] = append(perAttr[r.Attribute], reason)
		}
	}
	for _, r := range ranked {
		if reason, ok := TopVsRest(r.Attribute, r.Evidence); ok {
			e.Reasons = append(e.Reasons, reason)
			perAttr[r.Attribute] = append(perAttr[r.Attribute], reason)
		}
	}
	for attr, reasons := range perAttr {
		e.ByAttribute[attr] = strings.Join(reasons, "; ")
	}

	if impact.HighPriority {
		e.HighPriority = ReasonHighPriority
		e.Reasons = append(e.Reasons, ReasonHighPriority)
	}
	if impact.HighRevenue {
		e.HighRevenue = ReasonHighRevenue
		e.Reasons = append(e.Reasons, ReasonHighRevenue)
	}
	e.AskClient = len(e.Reasons) > 0
	return e
}

// TopTwoDisagree fires when the first two known sources differ.
func TopTwoDisagree(attr signal.Attribute, ordered []signal.Evidence) (string, bool) {
	known := knownOnly(ordered)
	if len(known) < 2 || known[0].Value == known[1].Value {
		return "", false
	}
	a, b := known[0], known[1]
	return fmt.Sprintf("%s: %s=%s vs %s=%s", attr, a.Source, a.Value, b.Source, b.Value), true
}

// TopVsRest fires when every known source after the first contradicts it.
func TopVsRest(attr signal.Attribute, ordered []signal.Evidence) (string, bool) {
	known := knownOnly(ordered)
	if len(known) < 2 {
		return "", false
	}
	top, rest := known[0], known[1:]
	others := make([]string, 0, len(rest))
	for _, ev := range rest {
		if ev.Value == top.Value {
			return "", false
		}
		others = append(others, fmt.Sprintf("%s=%s", ev.Source, ev.Value))
	}
	return fmt.Sprintf("%s: %s=%s vs others=[%s]", attr, top.Source, top.Value, strings.Join(others, ", ")), true
}

func knownOnly(ordered []signal.Evidence) []signal.Evidence {
	var out []signal.Evidence
	for _, ev := range ordered {
		if ev.Value.Known() {
			out = append(out, ev)
		}
	}
	return out
}
