package model

// VendorFlags are the integer-coded flags exported by the vendor API.
// A nil flag was not populated and counts as 0.
type VendorFlags struct {
	Frequency      *int64
	Reservice      *int64
	DefaultLength  *int64
	RegularService *int64
	InitialID      *int64
	Initial        *int64
}

// VendorFlag describes one vendor flag column.
type VendorFlag struct {
	Name   string // rule-file name, e.g. "frequency"
	Column string // warehouse/parquet column, e.g. "frequency"
	Header string // report header, e.g. "API FREQUENCY FLAG"
	get    func(VendorFlags) *int64
}

// AllVendorFlags lists the vendor flags in rule evaluation order.
var AllVendorFlags = []VendorFlag{
	{Name: "frequency", Column: "frequency", Header: "API FREQUENCY FLAG", get: func(f VendorFlags) *int64 { return f.Frequency }},
	{Name: "reservice", Column: "reservice", Header: "API RESERVICE FLAG", get: func(f VendorFlags) *int64 { return f.Reservice }},
	{Name: "defaultLength", Column: "default_length", Header: "API DEFAULT_LENGTH FLAG", get: func(f VendorFlags) *int64 { return f.DefaultLength }},
	{Name: "regularService", Column: "regular_service", Header: "API REGULAR_SERVICE FLAG", get: func(f VendorFlags) *int64 { return f.RegularService }},
	{Name: "initialId", Column: "initial_id", Header: "API INITIAL ID FLAG", get: func(f VendorFlags) *int64 { return f.InitialID }},
	{Name: "initial", Column: "initial", Header: "API INITIAL FLAG", get: func(f VendorFlags) *int64 { return f.Initial }},
}

// VendorFlagByName returns the VendorFlag for the given rule-file name, or ok=false.
func VendorFlagByName(name string) (VendorFlag, bool) {
	for _, vf := range AllVendorFlags {
		if vf.Name == name {
			return vf, true
		}
	}
	return VendorFlag{}, false
}

// VendorFlagColumns returns just the column names for all vendor flags.
func VendorFlagColumns() []string {
	cols := make([]string, len(AllVendorFlags))
	for i, vf := range AllVendorFlags {
		cols[i] = vf.Column
	}
	return cols
}

// Value returns the flag's value in f, defaulting to 0 when unpopulated.
func (vf VendorFlag) Value(f VendorFlags) int64 {
	if p := vf.get(f); p != nil {
		return *p
	}
	return 0
}
