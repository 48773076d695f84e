package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gyeh/stclassify/internal/config"
)

var (
	cfg config.Config
	env = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "stclassify",
	Short: "Service type classification engine",
	Long: "Classifies each client's service types as recurring, reservice, zero visit time and has-reservice " +
		"from vendor flags, keywords, the sales mapping and appointment history, and flags the ones that need client review.",
	PersistentPreRunE: loadConfig,
	SilenceUsage:      true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("dsn", "", "Warehouse connection string (or set WAREHOUSE_DSN)")
	pf.String("snapshot", "", "Read inputs from a Parquet snapshot directory instead of the warehouse")
	pf.String("clients", "", "Comma-separated client ids (or set CLIENT_IDS); default every client")
	pf.String("rules", "", "YAML file overriding the built-in classification rules")
	pf.String("out-dir", "output", "Directory for spreadsheet output")
	pf.String("as-of", "", "Reference date (YYYY-MM-DD) for lookback windows; default today")
	pf.String("log-format", "text", "Log format: text or json")
	pf.String("log-level", "info", "Log level: debug, info, warn, error")

	_ = env.BindPFlags(pf)
	env.SetEnvPrefix("STCLASSIFY")
	env.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	env.AutomaticEnv()
	_ = env.BindEnv("dsn", "STCLASSIFY_DSN", "WAREHOUSE_DSN")
	_ = env.BindEnv("clients", "STCLASSIFY_CLIENTS", "CLIENT_IDS")
}

// loadConfig fills cfg from flags, then the environment, then an optional
// .env file in the working directory.
func loadConfig(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg.DSN = env.GetString("dsn")
	cfg.SnapshotDir = env.GetString("snapshot")
	cfg.Clients = config.ParseClients(env.GetString("clients"))
	cfg.RulesPath = env.GetString("rules")
	cfg.OutDir = env.GetString("out-dir")
	cfg.LogFormat = env.GetString("log-format")
	cfg.LogLevel = env.GetString("log-level")

	asOf, err := parseAsOf(env.GetString("as-of"), time.Now())
	if err != nil {
		return err
	}
	cfg.AsOf = asOf
	return nil
}

// parseAsOf returns midnight UTC of s, or of now when s is empty.
func parseAsOf(s string, now time.Time) (time.Time, error) {
	if s == "" {
		now = now.UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("--as-of must be YYYY-MM-DD, got %q", s)
	}
	return t, nil
}
