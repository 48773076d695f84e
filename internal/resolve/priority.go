// Package resolve turns per-source evidence into final attributes: priority
// resolution, business invariant enforcement and escalation.
package resolve

import (
	"fmt"

	"github.com/gyeh/stclassify/internal/signal"
)

// Resolution is the outcome of resolving one attribute.
type Resolution struct {
	Value   signal.Value
	Source  signal.Source // empty when every source was Unknown
	Reason  string
	Dissent []string
}

// Order arranges evidence by a priority list. Sources in the list with no
// evidence appear as Unknown; evidence from sources not in the list is dropped.
func Order(priorities []signal.Source, evidence ...signal.Evidence) []signal.Evidence {
	bySource := make(map[signal.Source]signal.Evidence, len(evidence))
	for _, ev := range evidence {
		bySource[ev.Source] = ev
	}
	out := make([]signal.Evidence, len(priorities))
	for i, src := range priorities {
		ev, ok := bySource[src]
		if !ok {
			ev = signal.Evidence{Source: src}
		}
		out[i] = ev
	}
	return out
}

// Resolve picks the first known value in ordered and records every other
// known source that disagrees with it.
func Resolve(ordered []signal.Evidence) Resolution {
	chosen := -1
	for i, ev := range ordered {
		if ev.Value.Known() {
			chosen = i
			break
		}
	}
	if chosen < 0 {
		return Resolution{Value: signal.Unknown}
	}

	top := ordered[chosen]
	res := Resolution{Value: top.Value, Source: top.Source, Reason: top.Reason}
	for i, ev := range ordered {
		if i == chosen || !ev.Value.Known() || ev.Value == top.Value {
			continue
		}
		res.Dissent = append(res.Dissent, fmt.Sprintf("%s disagrees: %s", ev.Source, ev.Reason))
	}
	return res
}
