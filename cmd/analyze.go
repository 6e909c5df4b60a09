package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/arc-research/harvest-cli/internal/reconcile"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Report missing and found firms from the matching log",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		missingOut, _ := cmd.Flags().GetString("missing-out")
		foundOut, _ := cmd.Flags().GetString("found-out")

		store, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		rows, err := store.Matching(ctx)
		if err != nil {
			return err
		}

		missing, missingCount, gapCount := reconcile.MissingReport(rows)
		found := reconcile.FoundReport(rows)
		counts := reconcile.CountFirms(rows)

		if err := reconcile.WriteReport(missingOut,
			[]string{"Entity Key", "Name", "Year", "Data Date", "Status"}, missing); err != nil {
			return err
		}
		if err := reconcile.WriteReport(foundOut,
			[]string{"Entity Key", "Name", "Year", "Data Date", "File Count"}, found); err != nil {
			return err
		}

		cmd.Printf("Total entries: %d\n", len(found)+missingCount)
		cmd.Printf("Verified entries: %d\n", len(found))
		cmd.Printf("Entries missing or without a year match: %d\n", missingCount)
		cmd.Printf("Gap-year entries: %d\n", gapCount)
		cmd.Printf("Firms with complete entries: %d / %d\n", counts.Complete, counts.Total)
		cmd.Printf("Firms returned completely NA: %d / %d\n", counts.AllNA, counts.Total)

		return nil
	},
}

func init() {
	analyzeCmd.Flags().String("missing-out", "missing_firms.csv", "path for the missing-firms report")
	analyzeCmd.Flags().String("found-out", "found_firms.csv", "path for the found-firms report")
	rootCmd.AddCommand(analyzeCmd)
}
