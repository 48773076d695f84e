// Package classify runs the classification engine over each client: it
// extracts evidence, resolves attributes and assembles result rows.
package classify

import (
	"fmt"
	"sort"
	"time"

	"github.com/gyeh/stclassify/internal/config"
	"github.com/gyeh/stclassify/internal/detect"
	"github.com/gyeh/stclassify/internal/model"
	"github.com/gyeh/stclassify/internal/normalize"
	"github.com/gyeh/stclassify/internal/resolve"
	"github.com/gyeh/stclassify/internal/signal"
)

// Analyzer holds the detectors built from one rule set. It keeps no state
// between calls.
type Analyzer struct {
	rules      *config.Rules
	keywords   *detect.KeywordDetector
	flags      *detect.FlagDecoder
	recurrence *detect.RecurrenceDetector
	usage      *detect.UsageAnalyzer
}

// NewAnalyzer builds the detectors for rules.
func NewAnalyzer(rules *config.Rules) *Analyzer {
	return &Analyzer{
		rules:      rules,
		keywords:   detect.NewKeywordDetector(rules.Keywords),
		flags:      detect.NewFlagDecoder(rules.FlagRules),
		recurrence: detect.NewRecurrenceDetector(rules.Recurrence),
		usage:      detect.NewUsageAnalyzer(rules.Usage.LookbackYears),
	}
}

// Trace carries per-entity detail that is logged but not exported.
type Trace struct {
	TypeID     int64
	Dissent    map[signal.Attribute][]string
	Violations []string
}

// ClientResult is the analysis of one client's catalog.
type ClientResult struct {
	Rows   []model.AnalysisResult
	Traces []Trace
	Shares Shares
}

// clientIndex groups one client's history by service type.
type clientIndex struct {
	asOf         time.Time
	appointments map[int64][]model.Appointment
	subs         map[int64][]model.Subscription
	descCounts   map[string]int
	shares       *Shares
}

// Prepare de-duplicates the catalog, attaches the sales mapping and sorts
// entries by TypeID. It modifies data in place.
func Prepare(data *model.ClientData) {
	data.ServiceTypes = model.DedupeServiceTypes(data.ServiceTypes)
	model.AttachSalesMapping(data.ServiceTypes, data.Lookup)
	sort.SliceStable(data.ServiceTypes, func(i, j int) bool {
		return data.ServiceTypes[i].TypeID < data.ServiceTypes[j].TypeID
	})
}

// AnalyzeClient analyzes every catalog entry of a prepared client. asOf
// anchors the usage lookback.
func (a *Analyzer) AnalyzeClient(data *model.ClientData, asOf time.Time, runID string) ClientResult {
	shares := ComputeShares(data, a.rules.Escalation)
	idx := &clientIndex{
		asOf:         asOf,
		appointments: make(map[int64][]model.Appointment),
		subs:         make(map[int64][]model.Subscription),
		descCounts:   detect.CountDescriptions(data.ServiceTypes),
		shares:       &shares,
	}
	for _, ap := range data.Appointments {
		idx.appointments[ap.TypeID] = append(idx.appointments[ap.TypeID], ap)
	}
	for _, sub := range data.Subscriptions {
		if id, ok := normalize.ParseTypeID(sub.ServiceID); ok {
			idx.subs[id] = append(idx.subs[id], sub)
		}
	}

	out := ClientResult{
		Rows:   make([]model.AnalysisResult, 0, len(data.ServiceTypes)),
		Traces: make([]Trace, 0, len(data.ServiceTypes)),
		Shares: shares,
	}
	for i := range data.ServiceTypes {
		row, trace := a.analyze(&data.ServiceTypes[i], idx)
		row.RunID = runID
		out.Rows = append(out.Rows, row)
		out.Traces = append(out.Traces, trace)
	}
	return out
}

func (a *Analyzer) analyze(st *model.ServiceType, idx *clientIndex) (model.AnalysisResult, Trace) {
	appts := idx.appointments[st.TypeID]
	subs := idx.subs[st.TypeID]

	api := a.flags.Decode(st.Flags)
	word := a.keywords.Detect(st.Description)
	usage := a.usage.Analyze(st, appts, subs, idx.descCounts, idx.asOf)
	rec := a.recurrence.Detect(st.ClientID, st.TypeID, appts, usage.HasActiveSubscription)

	flagVal := func(name string) int64 {
		vf, _ := model.VendorFlagByName(name)
		return vf.Value(st.Flags)
	}

	sales := signal.Evidence{Source: signal.SourceSalesMapping, Value: st.SalesMapping}
	if st.SalesMapping.Known() {
		sales.Reason = fmt.Sprintf("SalesMapping=%s", upper(st.SalesMapping))
	}
	wordReason := "Word keywords"

	ranked := []resolve.Ranked{
		{Attribute: signal.AttrRecurring, Evidence: resolve.Order(a.rules.Priorities.Recurring,
			sales,
			signal.Evidence{Source: signal.SourceAppointments, Value: rec.Value, Reason: rec.Reason},
			signal.Evidence{Source: signal.SourceAPI, Value: api.Recurring, Reason: fmt.Sprintf(
				"API derived from flags: freq=%d, reservice=%d, initial=%d",
				flagVal("frequency"), flagVal("reservice"), flagVal("initial"))},
			signal.Evidence{Source: signal.SourceWord, Value: word.Recurring, Reason: wordReason},
		)},
		{Attribute: signal.AttrReservice, Evidence: resolve.Order(a.rules.Priorities.Reservice,
			signal.Evidence{Source: signal.SourceAPI, Value: api.Reservice, Reason: "API RESERVICE rule"},
			signal.Evidence{Source: signal.SourceWord, Value: word.Reservice, Reason: wordReason},
		)},
		{Attribute: signal.AttrZeroVisitTime, Evidence: resolve.Order(a.rules.Priorities.ZeroVisitTime,
			signal.Evidence{Source: signal.SourceWord, Value: word.ZeroVisitTime, Reason: wordReason},
			signal.Evidence{Source: signal.SourceAPI, Value: api.ZeroVisitTime, Reason: "API DEFAULT_LENGTH rule"},
		)},
	}

	trace := Trace{TypeID: st.TypeID, Dissent: make(map[signal.Attribute][]string)}
	resolved := make(map[signal.Attribute]resolve.Resolution, len(ranked))
	for _, r := range ranked {
		res := resolve.Resolve(r.Evidence)
		resolved[r.Attribute] = res
		if len(res.Dissent) > 0 {
			trace.Dissent[r.Attribute] = res.Dissent
		}
	}

	enf := resolve.Enforce(resolve.Interim(
		resolved[signal.AttrRecurring],
		resolved[signal.AttrReservice],
		resolved[signal.AttrZeroVisitTime],
		api.HasReservice,
	))
	trace.Violations = enf.Violations

	esc := resolve.Escalate(ranked, resolve.Impact{
		HighPriority: idx.shares.TopAppointments[st.TypeID],
		HighRevenue:  idx.shares.TopRevenue[st.TypeID],
	})

	row := model.AnalysisResult{
		ClientID:    st.ClientID,
		TypeID:      st.TypeID,
		Description: st.DescriptionText(),

		FlagReservice:      flagVal("reservice"),
		FlagRegularService: flagVal("regularService"),
		FlagFrequency:      flagVal("frequency"),
		FlagDefaultLength:  flagVal("defaultLength"),
		FlagInitialID:      flagVal("initialId"),
		FlagInitial:        flagVal("initial"),

		HasVisitsPast2Years:   usage.HasVisits,
		HasActiveSubscription: usage.HasActiveSubscription,
		RepeatedName:          usage.RepeatedName,

		APIReservice:     api.Reservice.Ptr(),
		APIRecurring:     api.Recurring.Ptr(),
		APIZeroTime:      api.ZeroVisitTime.Ptr(),
		APIHasReservice:  api.HasReservice.Ptr(),
		WordReservice:    word.Reservice.Ptr(),
		WordRecurring:    word.Recurring.Ptr(),
		WordZeroTime:     word.ZeroVisitTime.Ptr(),
		WordHasReservice: word.HasReservice.Ptr(),

		SalesMappingRecurring: st.SalesMapping.Ptr(),
		ApptRecurring:         rec.Value.Ptr(),
		ApptRecurringScore:    rec.Confidence,
		ApptRecurringReason:   rec.Reason,

		FinalReservice:    enf.Final.Reservice,
		FinalRecurring:    enf.Final.Recurring,
		FinalZeroTime:     enf.Final.ZeroVisitTime,
		FinalHasReservice: enf.Final.HasReservice,

		ExpiredCode: usage.Expired,

		ReserviceReason:    esc.Reason(signal.AttrReservice),
		RecurringReason:    esc.Reason(signal.AttrRecurring),
		ZeroTimeReason:     esc.Reason(signal.AttrZeroVisitTime),
		HasReserviceReason: esc.Reason(signal.AttrHasReservice),

		AppointmentSharePct: idx.shares.AppointmentSharePct(st.TypeID),
		RevenueSharePct:     idx.shares.RevenueSharePct(st.TypeID),
		HighPriorityReason:  esc.HighPriority,
		HighRevenueReason:   esc.HighRevenue,

		Corrections: enf.CorrectionText(),
		AskClient:   esc.AskClient,
	}
	return row, trace
}

func upper(v signal.Value) string {
	if v.Bool() {
		return "TRUE"
	}
	return "FALSE"
}
