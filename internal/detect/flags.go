package detect

import (
	"github.com/gyeh/stclassify/internal/config"
	"github.com/gyeh/stclassify/internal/model"
	"github.com/gyeh/stclassify/internal/signal"
)

// FlagDecoder applies the vendor flag rule table. Rules run in table order;
// a known result overwrites any earlier value for the same attribute.
type FlagDecoder struct {
	rules []boundRule
}

type boundRule struct {
	config.FlagRule
	flag model.VendorFlag
}

// NewFlagDecoder binds each rule to its flag accessor. Rules naming an
// unknown flag are skipped; Rules.Validate rejects them at load time.
func NewFlagDecoder(rules []config.FlagRule) *FlagDecoder {
	d := &FlagDecoder{}
	for _, r := range rules {
		vf, ok := model.VendorFlagByName(r.Flag)
		if !ok {
			continue
		}
		d.rules = append(d.rules, boundRule{FlagRule: r, flag: vf})
	}
	return d
}

// Decode evaluates every rule against flags. Unpopulated flags count as 0.
func (d *FlagDecoder) Decode(flags model.VendorFlags) signal.Set {
	var out signal.Set
	for _, r := range d.rules {
		if v := r.Eval(r.flag.Value(flags)); v.Known() {
			out = out.With(r.Attribute, v)
		}
	}
	return out
}
