package model

// DedupeServiceTypes keeps one row per TypeID: the one with the latest
// LoadedAt, or the first seen on ties. Survivors keep their input order.
func DedupeServiceTypes(rows []ServiceType) []ServiceType {
	best := make(map[int64]int, len(rows))
	for i := range rows {
		j, seen := best[rows[i].TypeID]
		if !seen || rows[i].LoadedAt.After(rows[j].LoadedAt) {
			best[rows[i].TypeID] = i
		}
	}
	out := make([]ServiceType, 0, len(best))
	for i := range rows {
		if best[rows[i].TypeID] == i {
			out = append(out, rows[i])
		}
	}
	return out
}

// AttachSalesMapping sets SalesMapping on each service type from the first
// lookup row whose ServiceType equals the description exactly.
func AttachSalesMapping(rows []ServiceType, lookup []RecurringLookup) {
	byDesc := make(map[string]RecurringLookup, len(lookup))
	for _, l := range lookup {
		if _, ok := byDesc[l.ServiceType]; !ok {
			byDesc[l.ServiceType] = l
		}
	}
	for i := range rows {
		if rows[i].Description == nil {
			continue
		}
		if l, ok := byDesc[*rows[i].Description]; ok {
			rows[i].SalesMapping = l.Value()
		}
	}
}
