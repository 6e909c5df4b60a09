package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arc-research/harvest-cli/internal/acquire"
	"github.com/arc-research/harvest-cli/internal/corpus"
	"github.com/arc-research/harvest-cli/internal/governor"
)

var acquireCmd = &cobra.Command{
	Use:   "acquire",
	Short: "Search and bulk-download filings for a range of corpus entities",
	Long: `Search the archive for each corpus entity and bulk-download its result
pages under the hourly volume cap. Progress is logged to the tracker store
and a resume cursor advances after each completed entity.

Use --start/--end to bound the 1-based entity range, or --continue to resume
from the stored cursor.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		start, _ := cmd.Flags().GetInt("start")
		end, _ := cmd.Flags().GetInt("end")
		fromCursor, _ := cmd.Flags().GetBool("continue")

		store, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		records, err := corpus.Load(ctx, cfg.Corpus)
		if err != nil {
			return err
		}
		entities := corpus.Entities(records)

		nav, err := initNavigator()
		if err != nil {
			return err
		}

		machine := acquire.NewMachine(nav, store, governor.New(cfg.Acquire.VolumeCapKB, cfg.Acquire.Cooldown()), cfg.Acquire)

		zap.L().Info("starting acquisition",
			zap.Int("entities", len(entities)),
			zap.Int("start", start),
			zap.Int("end", end),
			zap.Bool("continue", fromCursor),
		)

		if err := machine.Run(ctx, entities, start, end, fromCursor); err != nil {
			return eris.Wrap(err, "acquire")
		}

		zap.L().Info("acquisition complete")
		return nil
	},
}

func init() {
	acquireCmd.Flags().Int("start", 1, "1-based ordinal of the first entity to acquire")
	acquireCmd.Flags().Int("end", 0, "1-based ordinal of the last entity to acquire (0 = all)")
	acquireCmd.Flags().Bool("continue", false, "resume from the stored cursor instead of --start")
	rootCmd.AddCommand(acquireCmd)
}
