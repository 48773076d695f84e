package classify

import (
	"cmp"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/gyeh/stclassify/internal/config"
	"github.com/gyeh/stclassify/internal/model"
	"github.com/gyeh/stclassify/internal/normalize"
)

// Shares are the per-client aggregates feeding the high-impact rules. They
// are computed once per client and read by every entity. Pct maps are nil
// when the corresponding total is zero.
type Shares struct {
	AppointmentCounts map[int64]int64
	AppointmentTotal  int64
	AppointmentPct    map[int64]float64
	TopAppointments   map[int64]bool

	Revenue      map[int64]decimal.Decimal
	RevenueTotal decimal.Decimal
	RevenuePct   map[int64]float64
	TopRevenue   map[int64]bool
}

// ComputeShares counts appointments and sums live subscription revenue per
// service type for one client.
func ComputeShares(data *model.ClientData, esc config.Escalation) Shares {
	s := Shares{
		AppointmentCounts: make(map[int64]int64),
		Revenue:           make(map[int64]decimal.Decimal),
		TopAppointments:   make(map[int64]bool),
		TopRevenue:        make(map[int64]bool),
	}

	for _, a := range data.Appointments {
		if a.ClientID != data.ClientID {
			continue
		}
		s.AppointmentCounts[a.TypeID]++
		s.AppointmentTotal++
	}
	if s.AppointmentTotal > 0 {
		total := decimal.NewFromInt(s.AppointmentTotal)
		s.AppointmentPct = make(map[int64]float64, len(s.AppointmentCounts))
		for id, n := range s.AppointmentCounts {
			s.AppointmentPct[id], _ = normalize.SharePct(decimal.NewFromInt(n), total)
		}
		for _, id := range topN(s.AppointmentCounts, esc.TopAppointments, cmp.Compare[int64]) {
			s.TopAppointments[id] = true
		}
	}

	for i := range data.Subscriptions {
		sub := &data.Subscriptions[i]
		if sub.ClientID != data.ClientID || !sub.IsLive() {
			continue
		}
		id, ok := normalize.ParseTypeID(sub.ServiceID)
		if !ok {
			continue
		}
		v, ok := normalize.ParseCurrency(sub.AnnualRecurringValue)
		if !ok {
			continue
		}
		s.Revenue[id] = s.Revenue[id].Add(v)
		s.RevenueTotal = s.RevenueTotal.Add(v)
	}
	if s.RevenueTotal.IsPositive() {
		s.RevenuePct = make(map[int64]float64, len(s.Revenue))
		for id, v := range s.Revenue {
			s.RevenuePct[id], _ = normalize.SharePct(v, s.RevenueTotal)
		}
		for _, id := range topN(s.Revenue, esc.TopRevenue, func(a, b decimal.Decimal) int { return a.Cmp(b) }) {
			s.TopRevenue[id] = true
		}
	}
	return s
}

// AppointmentSharePct returns the share for typeID, or nil when unavailable.
func (s *Shares) AppointmentSharePct(typeID int64) *float64 {
	return pctPtr(s.AppointmentPct, typeID)
}

// RevenueSharePct returns the share for typeID, or nil when unavailable.
func (s *Shares) RevenueSharePct(typeID int64) *float64 {
	return pctPtr(s.RevenuePct, typeID)
}

func pctPtr(m map[int64]float64, typeID int64) *float64 {
	if m == nil {
		return nil
	}
	v, ok := m[typeID]
	if !ok {
		return nil
	}
	return &v
}

// topN returns up to n keys ordered by value descending, then key ascending.
func topN[V any](m map[int64]V, n int, compare func(a, b V) int) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if c := compare(m[ids[i]], m[ids[j]]); c != 0 {
			return c > 0
		}
		return ids[i] < ids[j]
	})
	if len(ids) > n {
		ids = ids[:n]
	}
	return ids
}

// AppointmentShareRows builds the share report for one client, labelling
// each type with its catalog description or, failing that, its id. Rows are
// ordered by count descending, then type id.
func AppointmentShareRows(data *model.ClientData, s *Shares) []model.ShareRow {
	desc := make(map[int64]string)
	for _, st := range data.ServiceTypes {
		if st.Description != nil {
			if _, ok := desc[st.TypeID]; !ok {
				desc[st.TypeID] = *st.Description
			}
		}
	}
	ids := topN(s.AppointmentCounts, len(s.AppointmentCounts), cmp.Compare[int64])
	rows := make([]model.ShareRow, 0, len(ids))
	for _, id := range ids {
		label, ok := desc[id]
		if !ok {
			label = strconv.FormatInt(id, 10)
		}
		row := model.ShareRow{ClientID: data.ClientID, TypeID: id, Service: label, Count: s.AppointmentCounts[id]}
		if s.AppointmentPct != nil {
			row.SharePct = s.AppointmentPct[id]
		}
		rows = append(rows, row)
	}
	return rows
}
