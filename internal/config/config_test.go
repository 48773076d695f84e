package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/gyeh/stclassify/internal/signal"
)

func writeRules(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write rules: %v", err)
	}
	return path
}

func TestDefaultRules_Valid(t *testing.T) {
	if err := DefaultRules().Validate(); err != nil {
		t.Fatalf("default rules invalid: %v", err)
	}
}

func TestLoadRules_EmptyPathDefaults(t *testing.T) {
	r, err := LoadRules("")
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if len(r.FlagRules) != 12 {
		t.Errorf("expected 12 default flag rules, got %d", len(r.FlagRules))
	}
}

func TestLoadRules_OverridesSection(t *testing.T) {
	path := writeRules(t, `
keywords:
  recurring: [subscription]
recurrence:
  min_visits: 4
  strong_ratio: 0.5
  bands:
    - {name: monthly, low: 25, high: 35}
priorities:
  isRervice: [Word, API]
`)
	r, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if len(r.Keywords.Recurring) != 1 || r.Keywords.Recurring[0] != "subscription" {
		t.Errorf("unexpected recurring keywords: %v", r.Keywords.Recurring)
	}
	if len(r.Keywords.Reservice) == 0 {
		t.Error("reservice keywords should keep defaults")
	}
	if r.Recurrence.MinVisits != 4 || len(r.Recurrence.Bands) != 1 {
		t.Errorf("unexpected recurrence: %+v", r.Recurrence)
	}
	if r.Priorities.Reservice[0] != signal.SourceWord {
		t.Errorf("unexpected isRervice priorities: %v", r.Priorities.Reservice)
	}
	if r.Priorities.Recurring[0] != signal.SourceSalesMapping {
		t.Errorf("isRecurring priorities should keep defaults: %v", r.Priorities.Recurring)
	}
}

func TestLoadRules_FlagRuleAliases(t *testing.T) {
	path := writeRules(t, `
flag_rules:
  - {flag: frequency, attribute: recurring, op: ">", operand: 0, then: true, else: false}
`)
	r, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	fr := r.FlagRules[0]
	if fr.Attribute != signal.AttrRecurring {
		t.Errorf("attribute = %q", fr.Attribute)
	}
	if fr.Eval(2) != signal.True || fr.Eval(0) != signal.False {
		t.Errorf("unexpected eval results")
	}
}

func TestLoadRules_Invalid(t *testing.T) {
	tests := map[string]string{
		"unknown flag":      "flag_rules:\n  - {flag: color, attribute: recurring, op: '>', operand: 0, then: true}\n",
		"unknown attribute": "flag_rules:\n  - {flag: frequency, attribute: size, op: '>', operand: 0, then: true}\n",
		"unknown op":        "flag_rules:\n  - {flag: frequency, attribute: recurring, op: '~', operand: 0, then: true}\n",
		"inverted band":     "recurrence:\n  bands:\n    - {name: bad, low: 10, high: 5}\n",
		"zero ratio":        "recurrence:\n  strong_ratio: 0\n",
		"unknown source":    "priorities:\n  isRecurring: [Oracle]\n",
		"duplicate source":  "priorities:\n  isRecurring: [API, API]\n",
		"bad table":         "tables:\n  results: \"results; drop table x\"\n",
		"zero top-n":        "escalation:\n  top_revenue: 0\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadRules(writeRules(t, body)); err == nil {
				t.Fatalf("expected error for %s", name)
			}
		})
	}
}

func TestLoadRules_MissingFile(t *testing.T) {
	if _, err := LoadRules("/nonexistent/rules.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFlagRule_Eval(t *testing.T) {
	fr := FlagRule{Op: "==", Operand: 1, Then: signal.True}
	if fr.Eval(1) != signal.True {
		t.Error("expected true on match")
	}
	if fr.Eval(0) != signal.Unknown {
		t.Error("expected unknown else branch by default")
	}
}

func TestExpandClient(t *testing.T) {
	r := DefaultRules()
	if got := r.ExpandClient("ACCEL"); len(got) != 4 || got[0] != "ACCEL_OFFICE_1" {
		t.Errorf("ExpandClient(ACCEL) = %v", got)
	}
	if got := r.ExpandClient("ACME"); len(got) != 1 || got[0] != "ACME" {
		t.Errorf("ExpandClient(ACME) = %v", got)
	}
}

func TestLogicalClients(t *testing.T) {
	r := DefaultRules()
	got := r.LogicalClients([]string{"ZETA", "ACCEL_OFFICE_2", "ACME", "ACCEL_OFFICE_1"})
	want := []string{"ACCEL", "ACME", "ZETA"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LogicalClients = %v, want %v", got, want)
	}
}

func TestParseClients(t *testing.T) {
	got := ParseClients(" A, ,B ,")
	if len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Errorf("ParseClients = %v", got)
	}
	if ParseClients("") != nil {
		t.Error("expected nil for empty input")
	}
}

func TestConfig_ValidateSource(t *testing.T) {
	base := Config{LogFormat: "text", OutDir: t.TempDir(), AsOf: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}

	c := base
	if err := c.ValidateSource(); err == nil {
		t.Error("expected error without dsn or snapshot")
	}

	c = base
	c.SnapshotDir = t.TempDir()
	if err := c.ValidateSource(); err != nil {
		t.Errorf("snapshot source: %v", err)
	}

	c = base
	c.DSN = "postgres://localhost/x"
	if err := c.ValidateSource(); err != nil {
		t.Errorf("dsn source: %v", err)
	}
	if !c.WritesWarehouse() {
		t.Error("expected warehouse output with dsn")
	}
	c.NoWarehouseOutput = true
	if c.WritesWarehouse() {
		t.Error("expected warehouse output disabled")
	}

	c = base
	c.LogFormat = "xml"
	if err := c.Validate(); err == nil {
		t.Error("expected error for bad log format")
	}
}
