package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all runtime configuration for a stclassify run.
type Config struct {
	DSN               string
	SnapshotDir       string   // read inputs from Parquet files instead of the warehouse
	Clients           []string // explicit client list; empty means CLIENT_IDS or all
	RulesPath         string
	OutDir            string
	AsOf              time.Time
	RunID             string
	LogFormat         string // "text" or "json"
	LogLevel          string
	NoWarehouseOutput bool
	ParquetOut        string
}

// ParseClients splits a comma-separated client list, dropping blanks.
func ParseClients(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks fields that do not depend on the input source.
func (c *Config) Validate() error {
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("--log-format must be text or json, got %q", c.LogFormat)
	}
	if c.OutDir == "" {
		return fmt.Errorf("--out-dir is required")
	}
	if c.AsOf.IsZero() {
		return fmt.Errorf("--as-of is required")
	}
	return nil
}

// ValidateSource checks that exactly one readable input source is configured.
func (c *Config) ValidateSource() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.SnapshotDir != "" {
		stat, err := os.Stat(c.SnapshotDir)
		if err != nil {
			return fmt.Errorf("snapshot dir not accessible: %w", err)
		}
		if !stat.IsDir() {
			return fmt.Errorf("snapshot path %s is not a directory", c.SnapshotDir)
		}
		return nil
	}
	if c.DSN == "" {
		return fmt.Errorf("--dsn or WAREHOUSE_DSN is required when --snapshot is not set")
	}
	return nil
}

// WritesWarehouse reports whether results should be copied into the warehouse.
func (c *Config) WritesWarehouse() bool {
	return c.DSN != "" && !c.NoWarehouseOutput
}
