package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/stclassify/internal/exitcode"
	"github.com/gyeh/stclassify/internal/logging"
	"github.com/gyeh/stclassify/internal/warehouse"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the warehouse source and results tables if missing",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx := cmd.Context()

	if cfg.DSN == "" {
		log.Error().Msg("--dsn or WAREHOUSE_DSN is required")
		os.Exit(exitcode.UsageError)
	}

	pool, err := warehouse.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	if err := warehouse.ApplyMigrations(ctx, pool, log); err != nil {
		log.Error().Err(err).Msg("migration failed")
		os.Exit(exitcode.ExportError)
	}

	log.Info().Msg("all migrations applied successfully")
	return nil
}
