package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gyeh/stclassify/internal/classify"
	"github.com/gyeh/stclassify/internal/exitcode"
	"github.com/gyeh/stclassify/internal/export"
	"github.com/gyeh/stclassify/internal/logging"
	"github.com/gyeh/stclassify/internal/snapshot"
	"github.com/gyeh/stclassify/internal/warehouse"
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify every client's service types and write the results",
	RunE:  runClassify,
}

func init() {
	f := classifyCmd.Flags()
	f.BoolVar(&cfg.NoWarehouseOutput, "no-warehouse-output", false, "Do not write results tables to the warehouse")
	f.StringVar(&cfg.ParquetOut, "parquet-out", "", "Also write every result row to this Parquet file")
	f.StringVar(&cfg.RunID, "run-id", "", "Run id stamped on every row (default: random UUID)")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx := cmd.Context()

	if err := cfg.ValidateSource(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	rules, ok := loadRules(log)
	if !ok {
		os.Exit(exitcode.ValidationError)
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}

	src, pool, code, err := openSource(ctx, log, rules)
	if err != nil {
		log.Error().Err(err).Msg("open input source failed")
		os.Exit(code)
	}
	if pool == nil && cfg.WritesWarehouse() {
		if pool, err = warehouse.NewPool(ctx, cfg.DSN); err != nil {
			log.Error().Err(err).Msg("database connection failed")
			os.Exit(exitcode.DBConnError)
		}
	}
	if pool != nil {
		defer pool.Close()
	}

	sinks := export.Fanout{export.NewWorkbook(cfg.OutDir, log)}
	if cfg.WritesWarehouse() {
		sinks = append(sinks, warehouse.NewResultWriter(pool, rules.Tables, log))
	}
	if cfg.ParquetOut != "" {
		sinks = append(sinks, snapshot.NewResultWriter(cfg.ParquetOut, log))
	}

	opts := classify.Options{Clients: cfg.Clients, AsOf: cfg.AsOf, RunID: cfg.RunID}
	log.Info().
		Str("as_of", cfg.AsOf.Format("2006-01-02")).
		Int("sinks", len(sinks)).
		Msg("configuration loaded")

	summary, err := classify.Run(ctx, src, sinks, classify.NewAnalyzer(rules), opts, log)
	if err != nil {
		var pe *classify.PipelineError
		if errors.As(err, &pe) {
			log.Error().Err(pe.Err).Str("phase", pe.Phase).Msg("classification failed")
			switch pe.Phase {
			case classify.PhaseClients, classify.PhaseLoad:
				os.Exit(exitcode.LoadError)
			default:
				os.Exit(exitcode.ExportError)
			}
		}
		log.Error().Err(err).Msg("classification failed")
		os.Exit(exitcode.LoadError)
	}

	fmt.Printf("Classification complete: %d/%d clients, %d service types, %d for client review (%.1fs)\n",
		summary.ClientsProcessed, summary.ClientsRequested, summary.ServiceTypes,
		summary.RowsAskClient, summary.DurationTotal.Seconds())

	if len(summary.ClientsFailed) > 0 {
		log.Warn().Strs("clients", summary.ClientsFailed).Msg("some clients failed")
		os.Exit(exitcode.PartialSuccess)
	}
	return nil
}
