package config

import (
	"fmt"
	"os"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/gyeh/stclassify/internal/model"
	"github.com/gyeh/stclassify/internal/signal"
)

// Rules is the classification configuration. It is built once at startup and
// shared read-only by every component.
type Rules struct {
	Keywords      Keywords            `yaml:"keywords"`
	FlagRules     []FlagRule          `yaml:"flag_rules"`
	Recurrence    Recurrence          `yaml:"recurrence"`
	Priorities    Priorities          `yaml:"priorities"`
	Escalation    Escalation          `yaml:"escalation"`
	Usage         Usage               `yaml:"usage"`
	ClientAliases map[string][]string `yaml:"client_aliases"`
	Tables        Tables              `yaml:"tables"`
}

// Keywords are the substring lists scanned by the keyword detector. A
// keyword with a leading and trailing space, such as " ant ", only matches a
// whole word.
type Keywords struct {
	Reservice    []string `yaml:"reservice"`
	Recurring    []string `yaml:"recurring"`
	ZeroTime     []string `yaml:"zero_time"`
	HasReservice []string `yaml:"has_reservice"`
}

// FlagRule maps one vendor flag to one attribute: when the flag compared
// against Operand with Op holds, the attribute becomes Then, otherwise Else.
type FlagRule struct {
	Flag      string           `yaml:"flag"`
	Attribute signal.Attribute `yaml:"attribute"`
	Op        string           `yaml:"op"`
	Operand   int64            `yaml:"operand"`
	Then      signal.Value     `yaml:"then"`
	Else      signal.Value     `yaml:"else"`
}

// Eval applies the rule to a flag value.
func (r FlagRule) Eval(v int64) signal.Value {
	var hit bool
	switch r.Op {
	case ">":
		hit = v > r.Operand
	case ">=":
		hit = v >= r.Operand
	case "<":
		hit = v < r.Operand
	case "<=":
		hit = v <= r.Operand
	case "==":
		hit = v == r.Operand
	case "!=":
		hit = v != r.Operand
	}
	if hit {
		return r.Then
	}
	return r.Else
}

var validOps = map[string]bool{">": true, ">=": true, "<": true, "<=": true, "==": true, "!=": true}

// Band is a half-open [Low, High) range of median days between visits.
type Band struct {
	Name string  `yaml:"name"`
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

// Contains reports whether days falls inside the band.
func (b Band) Contains(days float64) bool {
	return days >= b.Low && days < b.High
}

// Recurrence tunes the appointment recurrence detector.
type Recurrence struct {
	MinVisits   int     `yaml:"min_visits"`
	StrongRatio float64 `yaml:"strong_ratio"`
	Bands       []Band  `yaml:"bands"`
}

// Priorities are the source orderings used to resolve each attribute.
type Priorities struct {
	Recurring     []signal.Source `yaml:"isRecurring"`
	Reservice     []signal.Source `yaml:"isRervice"`
	ZeroVisitTime []signal.Source `yaml:"zeroVisitTime"`
}

// For returns the ordering for attr, or nil for attributes that are not
// resolved by priority.
func (p Priorities) For(attr signal.Attribute) []signal.Source {
	switch attr {
	case signal.AttrRecurring:
		return p.Recurring
	case signal.AttrReservice:
		return p.Reservice
	case signal.AttrZeroVisitTime:
		return p.ZeroVisitTime
	}
	return nil
}

// Escalation sizes the per-client high-impact sets.
type Escalation struct {
	TopAppointments int `yaml:"top_appointments"`
	TopRevenue      int `yaml:"top_revenue"`
}

// Usage tunes the usage pattern analyzer.
type Usage struct {
	LookbackYears int `yaml:"lookback_years"`
}

// Tables names the warehouse tables read and written.
type Tables struct {
	ServiceTypes       string `yaml:"service_types"`
	MergedServiceTypes string `yaml:"merged_service_types"`
	RecurringLookup    string `yaml:"recurring_lookup"`
	Appointments       string `yaml:"appointments"`
	Subscriptions      string `yaml:"subscriptions"`
	Results            string `yaml:"results"`
	AskClient          string `yaml:"ask_client"`
}

func (t Tables) all() map[string]string {
	return map[string]string{
		"service_types":        t.ServiceTypes,
		"merged_service_types": t.MergedServiceTypes,
		"recurring_lookup":     t.RecurringLookup,
		"appointments":         t.Appointments,
		"subscriptions":        t.Subscriptions,
		"results":              t.Results,
		"ask_client":           t.AskClient,
	}
}

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// DefaultRules returns the built-in rule set.
func DefaultRules() *Rules {
	return &Rules{
		Keywords: Keywords{
			Reservice:    []string{"reservice", "call back", "callback", "qc", "quality control", "quality"},
			Recurring:    []string{"recurring", "monthly", "bi-weekly", "weekly"},
			ZeroTime:     []string{"equipment", "charge", "lead", "donation", "cancellation", "fee", "write off", "write-off"},
			HasReservice: []string{"bed bug", "carpenter", "roach", " ant ", " ants ", "cockroach", "termite"},
		},
		FlagRules: []FlagRule{
			{Flag: "frequency", Attribute: signal.AttrRecurring, Op: ">", Operand: 0, Then: signal.True},
			{Flag: "frequency", Attribute: signal.AttrReservice, Op: ">", Operand: 0, Then: signal.False},
			{Flag: "reservice", Attribute: signal.AttrRecurring, Op: "==", Operand: 1, Then: signal.False},
			{Flag: "reservice", Attribute: signal.AttrHasReservice, Op: "==", Operand: 1, Then: signal.False},
			{Flag: "reservice", Attribute: signal.AttrReservice, Op: "==", Operand: 1, Then: signal.True},
			{Flag: "defaultLength", Attribute: signal.AttrZeroVisitTime, Op: "==", Operand: 0, Then: signal.True},
			{Flag: "regularService", Attribute: signal.AttrRecurring, Op: "==", Operand: 1, Then: signal.True},
			{Flag: "regularService", Attribute: signal.AttrHasReservice, Op: "==", Operand: 1, Then: signal.True},
			{Flag: "initialId", Attribute: signal.AttrRecurring, Op: ">", Operand: 0, Then: signal.True},
			{Flag: "initial", Attribute: signal.AttrRecurring, Op: "==", Operand: 1, Then: signal.False},
			{Flag: "initial", Attribute: signal.AttrReservice, Op: "==", Operand: 1, Then: signal.False},
			{Flag: "initial", Attribute: signal.AttrZeroVisitTime, Op: "==", Operand: 1, Then: signal.False},
		},
		Recurrence: Recurrence{
			MinVisits:   3,
			StrongRatio: 0.6,
			Bands: []Band{
				{Name: "weekly", Low: 5, High: 10},
				{Name: "biweekly", Low: 10, High: 21},
				{Name: "monthly", Low: 21, High: 45},
				{Name: "bimonthly", Low: 45, High: 75},
				{Name: "quarterly", Low: 75, High: 120},
			},
		},
		Priorities: Priorities{
			Recurring:     []signal.Source{signal.SourceSalesMapping, signal.SourceAppointments, signal.SourceAPI, signal.SourceWord},
			Reservice:     []signal.Source{signal.SourceAPI, signal.SourceWord},
			ZeroVisitTime: []signal.Source{signal.SourceWord, signal.SourceAPI},
		},
		Escalation: Escalation{TopAppointments: 20, TopRevenue: 10},
		Usage:      Usage{LookbackYears: 2},
		ClientAliases: map[string][]string{
			"ACCEL": {"ACCEL_OFFICE_1", "ACCEL_OFFICE_2", "ACCEL_OFFICE_3", "ACCEL_OFFICE_4"},
		},
		Tables: Tables{
			ServiceTypes:       "raw.fr_service_type",
			MergedServiceTypes: "transformation_layer.merged_service_type",
			RecurringLookup:    "lookup.lkp_recurring",
			Appointments:       "transformation_layer.merged_appointment",
			Subscriptions:      "transformation_layer.merged_subscription",
			Results:            "results.service_type_analysis",
			AskClient:          "results.ask_client_flags",
		},
	}
}

// LoadRules reads a YAML rule file over the defaults. Sections absent from
// the file keep their default values. An empty path returns DefaultRules.
func LoadRules(path string) (*Rules, error) {
	r := DefaultRules()
	if path == "" {
		return r, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	if err := yaml.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("rules file %s: %w", path, err)
	}
	return r, nil
}

// Validate rejects rule sets the engine cannot evaluate.
func (r *Rules) Validate() error {
	for i, fr := range r.FlagRules {
		if _, ok := model.VendorFlagByName(fr.Flag); !ok {
			return fmt.Errorf("flag_rules[%d]: unknown flag %q", i, fr.Flag)
		}
		if _, err := signal.ParseAttribute(string(fr.Attribute)); err != nil {
			return fmt.Errorf("flag_rules[%d]: %w", i, err)
		}
		if !validOps[fr.Op] {
			return fmt.Errorf("flag_rules[%d]: unknown op %q", i, fr.Op)
		}
	}

	if r.Recurrence.MinVisits <= 0 {
		return fmt.Errorf("recurrence.min_visits must be positive, got %d", r.Recurrence.MinVisits)
	}
	if r.Recurrence.StrongRatio <= 0 || r.Recurrence.StrongRatio > 1 {
		return fmt.Errorf("recurrence.strong_ratio must be in (0, 1], got %v", r.Recurrence.StrongRatio)
	}
	for _, b := range r.Recurrence.Bands {
		if b.Low < 0 || b.Low >= b.High {
			return fmt.Errorf("recurrence band %q: low %v must be non-negative and below high %v", b.Name, b.Low, b.High)
		}
	}

	for _, attr := range []signal.Attribute{signal.AttrRecurring, signal.AttrReservice, signal.AttrZeroVisitTime} {
		list := r.Priorities.For(attr)
		if len(list) == 0 {
			return fmt.Errorf("priorities.%s is empty", attr)
		}
		seen := make(map[signal.Source]bool)
		for _, src := range list {
			if !signal.IsKnownSource(string(src)) {
				return fmt.Errorf("priorities.%s: unknown source %q", attr, src)
			}
			if seen[src] {
				return fmt.Errorf("priorities.%s: duplicate source %q", attr, src)
			}
			seen[src] = true
		}
	}

	if r.Escalation.TopAppointments <= 0 || r.Escalation.TopRevenue <= 0 {
		return fmt.Errorf("escalation top-N sizes must be positive")
	}
	if r.Usage.LookbackYears <= 0 {
		return fmt.Errorf("usage.lookback_years must be positive, got %d", r.Usage.LookbackYears)
	}
	for key, name := range r.Tables.all() {
		if !tableName.MatchString(name) {
			return fmt.Errorf("tables.%s: invalid table name %q", key, name)
		}
	}
	return nil
}

// ExpandClient returns the warehouse client ids stored under a logical
// client id. Clients without an alias map to themselves.
func (r *Rules) ExpandClient(id string) []string {
	if ids, ok := r.ClientAliases[id]; ok && len(ids) > 0 {
		return ids
	}
	return []string{id}
}

// LogicalClients maps warehouse client ids back to their logical ids,
// dropping duplicates. The result is sorted.
func (r *Rules) LogicalClients(ids []string) []string {
	logical := make(map[string]string)
	for name, members := range r.ClientAliases {
		for _, m := range members {
			logical[m] = name
		}
	}
	seen := make(map[string]bool, len(ids))
	var out []string
	for _, id := range ids {
		if name, ok := logical[id]; ok {
			id = name
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
