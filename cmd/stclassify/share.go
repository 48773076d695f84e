package main

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/gyeh/stclassify/internal/classify"
	"github.com/gyeh/stclassify/internal/exitcode"
	"github.com/gyeh/stclassify/internal/export"
	"github.com/gyeh/stclassify/internal/logging"
	"github.com/gyeh/stclassify/internal/model"
)

var shareCmd = &cobra.Command{
	Use:   "share",
	Short: "Write the per-client appointment share report",
	RunE:  runShare,
}

func init() {
	rootCmd.AddCommand(shareCmd)
}

func runShare(cmd *cobra.Command, args []string) error {
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

	var rows []model.ShareRow
	var failed []string
	for _, clientID := range clients {
		data, err := src.Load(ctx, clientID)
		if err != nil {
			log.Error().Err(err).Str("client", clientID).Msg("load failed, skipping")
			failed = append(failed, clientID)
			continue
		}
		classify.Prepare(data)
		shares := classify.ComputeShares(data, rules.Escalation)
		if shares.AppointmentTotal == 0 {
			log.Warn().Str("client", clientID).Msg("no appointments; client left out of share report")
			continue
		}
		rows = append(rows, classify.AppointmentShareRows(data, &shares)...)
	}

	// Per-client rows are already count-descending.
	slices.SortStableFunc(rows, func(a, b model.ShareRow) int {
		return cmp.Compare(a.ClientID, b.ClientID)
	})

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		log.Error().Err(err).Msg("create output dir failed")
		os.Exit(exitcode.ExportError)
	}
	path := filepath.Join(cfg.OutDir, export.ShareFile)
	if err := export.WriteShareReport(path, rows); err != nil {
		log.Error().Err(err).Msg("write share report failed")
		os.Exit(exitcode.ExportError)
	}

	fmt.Printf("Appointment share report: %d rows across %d clients -> %s\n", len(rows), len(clients)-len(failed), path)
	if len(failed) > 0 {
		log.Warn().Strs("clients", failed).Msg("some clients failed")
		os.Exit(exitcode.PartialSuccess)
	}
	return nil
}
