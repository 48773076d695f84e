package normalize

import (
	"math"
	"strconv"
	"strings"
)

// ParseTypeID accepts an integer id encoded as text. Integral floats such as
// "42.0" are accepted because some extracts store ids as FLOAT.
func ParseTypeID(raw string) (int64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

// MatchesTypeID reports whether raw refers to id, comparing either as an
// integer or as the exact decimal string.
func MatchesTypeID(raw string, id int64) bool {
	if raw == strconv.FormatInt(id, 10) {
		return true
	}
	n, ok := ParseTypeID(raw)
	return ok && n == id
}
