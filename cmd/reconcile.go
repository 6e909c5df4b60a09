package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arc-research/harvest-cli/internal/corpus"
	"github.com/arc-research/harvest-cli/internal/reconcile"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Extract downloads and classify every corpus record",
	Long: `Extract every downloaded archive, join the tracker logs to the files on
disk, and classify each reference-corpus record as acquired, unavailable,
skipped, or too large. Repeated runs are idempotent: existing folders and
previously appended rows are left alone.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		records, err := corpus.Load(ctx, cfg.Corpus)
		if err != nil {
			return err
		}

		zap.L().Info("extracting archives", zap.String("zips", cfg.Reconcile.ZipsDir))
		if err := reconcile.Unzip(ctx, cfg.Reconcile); err != nil {
			return eris.Wrap(err, "reconcile: unzip")
		}

		zap.L().Info("building metadata")
		if err := reconcile.BuildMetadata(ctx, store, cfg.Reconcile); err != nil {
			return eris.Wrap(err, "reconcile: metadata")
		}

		zap.L().Info("validating matches", zap.Int("records", len(records)))
		if err := reconcile.ValidateMatches(ctx, store, records, cfg.Reconcile); err != nil {
			return eris.Wrap(err, "reconcile: matching")
		}

		zap.L().Info("reconciliation complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}
