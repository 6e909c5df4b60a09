package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arc-research/harvest-cli/internal/acquire"
	"github.com/arc-research/harvest-cli/internal/governor"
	"github.com/arc-research/harvest-cli/internal/model"
	"github.com/arc-research/harvest-cli/internal/reconcile"
)

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Re-search firms with gap years across every document type",
	Long: `Find firms that were acquired but are missing files for expected filing
years, then re-search each one with the document-type filter off, selecting
only rows for the missing years. Run reconcile first to populate the
matching log, and again afterwards to fold in the recovered files.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		gapEntities, err := reconcile.GapYears(ctx, store)
		if err != nil {
			return err
		}
		if len(gapEntities) == 0 {
			zap.L().Info("no gap years to recover")
			return nil
		}

		nav, err := initNavigator()
		if err != nil {
			return err
		}
		machine := acquire.NewMachine(nav, store, governor.New(cfg.Acquire.VolumeCapKB, cfg.Acquire.Cooldown()), cfg.Acquire)

		gaps := make([]acquire.Gap, 0, len(gapEntities))
		for _, g := range gapEntities {
			gaps = append(gaps, acquire.Gap{
				Entity: model.Entity{Key: g.Key, DisplayName: g.Name},
				Years:  g.Years,
			})
		}

		zap.L().Info("starting gap-year recovery", zap.Int("entities", len(gaps)))
		if err := machine.RunRecovery(ctx, gaps); err != nil {
			return eris.Wrap(err, "recover")
		}

		zap.L().Info("gap-year recovery complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recoverCmd)
}
