package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/stclassify/internal/classify"
	"github.com/gyeh/stclassify/internal/exitcode"
	"github.com/gyeh/stclassify/internal/logging"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Dry-run: per-client input counts and share totals (no writes)",
	RunE:  runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx := cmd.Context()

	if cfg.SnapshotDir == "" && cfg.DSN == "" {
		log.Error().Msg("--snapshot or --dsn is required")
		os.Exit(exitcode.UsageError)
	}
	rules, ok := loadRules(log)
	if !ok {
		os.Exit(exitcode.ValidationError)
	}

	src, pool, code, err := openSource(ctx, log, rules)
	if err != nil {
		log.Error().Err(err).Msg("open input source failed")
		os.Exit(code)
	}
	if pool != nil {
		defer pool.Close()
	}

	clients, err := resolveClients(ctx, src)
	if err != nil {
		log.Error().Err(err).Msg("list clients failed")
		os.Exit(exitcode.LoadError)
	}

	fmt.Println("=== stclassify plan ===")
	fmt.Printf("As of:    %s\n", cfg.AsOf.Format("2006-01-02"))
	fmt.Printf("Clients:  %d\n", len(clients))
	fmt.Println()
	fmt.Printf("%-20s %8s %8s %8s %8s %8s %14s\n",
		"client", "types", "dupes", "lookup", "appts", "subs", "revenue")

	var totalTypes, failed int
	for _, clientID := range clients {
		data, err := src.Load(ctx, clientID)
		if err != nil {
			log.Error().Err(err).Str("client", clientID).Msg("load failed")
			failed++
			continue
		}
		raw := len(data.ServiceTypes)
		classify.Prepare(data)
		shares := classify.ComputeShares(data, rules.Escalation)
		totalTypes += len(data.ServiceTypes)

		fmt.Printf("%-20s %8d %8d %8d %8d %8d %14s\n",
			clientID, len(data.ServiceTypes), raw-len(data.ServiceTypes), len(data.Lookup),
			shares.AppointmentTotal, len(data.Subscriptions), shares.RevenueTotal.StringFixed(2))
		if m := classify.AuditMerged(data.ServiceTypes, data.MergedTypes); len(m) > 0 {
			log.Warn().Str("client", clientID).Int("count", len(m)).Msg("merged service type mismatches")
		}
	}

	fmt.Printf("\nService types to classify: %d\n", totalTypes)
	if failed > 0 {
		fmt.Printf("Clients failing to load:   %d\n", failed)
		os.Exit(exitcode.PartialSuccess)
	}
	return nil
}
