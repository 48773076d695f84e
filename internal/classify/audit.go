package classify

import "github.com/gyeh/stclassify/internal/model"

// Mismatch is a catalog entry whose merged counterpart is missing or has a
// different description.
type Mismatch struct {
	TypeID            int64
	Description       *string
	MergedDescription *string
}

// AuditMerged compares the catalog against the merged service type table by
// TypeID. The first merged row per TypeID is used.
func AuditMerged(catalog []model.ServiceType, merged []model.MergedServiceType) []Mismatch {
	byID := make(map[int64]*string, len(merged))
	for _, m := range merged {
		if _, ok := byID[m.TypeID]; !ok {
			byID[m.TypeID] = m.Description
		}
	}
	var out []Mismatch
	for _, st := range catalog {
		md, ok := byID[st.TypeID]
		if !ok || md == nil || st.Description == nil || *md != *st.Description {
			out = append(out, Mismatch{TypeID: st.TypeID, Description: st.Description, MergedDescription: md})
		}
	}
	return out
}
