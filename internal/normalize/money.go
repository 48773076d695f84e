package normalize

import (
	"strings"

	"github.com/shopspring/decimal"
)

var currencyStripper = strings.NewReplacer("$", "", ",", "")

// ParseCurrency cleans a currency string such as "$1,200.50" or "(1,200.00)"
// and returns its value. Parenthesized amounts are negative. ok is false for
// nil, empty, or unparseable input; callers drop those entries rather than
// treating them as zero.
func ParseCurrency(v *string) (d decimal.Decimal, ok bool) {
	if v == nil {
		return decimal.Zero, false
	}
	s := currencyStripper.Replace(strings.TrimSpace(*v))
	negative := false
	if len(s) >= 2 && strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
	}
	s = strings.TrimSpace(strings.NewReplacer("(", "", ")", "").Replace(s))
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Abs().Neg()
	}
	return d, true
}

// SharePct returns part/total as a percentage rounded to two decimals.
// ok is false when total is not positive.
func SharePct(part, total decimal.Decimal) (pct float64, ok bool) {
	if !total.IsPositive() {
		return 0, false
	}
	f, _ := part.Mul(decimal.NewFromInt(100)).Div(total).Round(2).Float64()
	return f, true
}
