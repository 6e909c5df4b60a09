package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arc-research/harvest-cli/internal/reconcile"
)

var promoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Copy found firms' folders into the matched directory",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		rows, err := store.Matching(ctx)
		if err != nil {
			return err
		}
		found := reconcile.FoundReport(rows)

		copied, err := reconcile.CopyFound(found, cfg.Reconcile)
		if err != nil {
			return err
		}

		zap.L().Info("promotion complete",
			zap.Int("found_firms", len(found)),
			zap.Int("folders_copied", copied),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(promoteCmd)
}
