package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arc-research/harvest-cli/internal/corpus"
	"github.com/arc-research/harvest-cli/internal/extract"
	"github.com/arc-research/harvest-cli/internal/verify"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Fuzzy-verify acquired documents against the corpus",
	Long: `Extract text from every located artifact and fuzzy-match its document
type, firm name, and filing year against the reference corpus. Each verified
artifact is resolved to a unique corpus row; the summary reports how many
fields could be confirmed.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		refs, err := corpus.Load(ctx, cfg.Corpus)
		if err != nil {
			return err
		}

		engine := verify.NewEngine(store, extract.NewPdfToText(cfg.Verify.PdfToTextPath), refs, cfg.Verify)

		zap.L().Info("starting verification")
		run, err := engine.Run(ctx)
		if err != nil {
			return eris.Wrap(err, "verify")
		}

		stats, err := verify.Summarize(ctx, store)
		if err != nil {
			return err
		}

		cmd.Printf("%.1f%% of documents could be opened and read\n", verify.Pct(run.Opened, run.Scanned))
		cmd.Printf("%.1f%% have all three fields verified\n", verify.Pct(stats.AllThree, stats.Scanned))
		cmd.Printf("%.1f%% of files are annual reports\n", verify.Pct(stats.DocConfirmed, stats.Scanned))
		cmd.Printf("%.1f%% of files have verified similar names\n", verify.Pct(stats.NameConfirmed, stats.Scanned))
		cmd.Printf("%.1f%% of names are exact\n", verify.Pct(stats.NameExact, stats.NameConfirmed))
		cmd.Printf("%.1f%% of files have verified similar years\n", verify.Pct(stats.YearConfirmed, stats.Scanned))
		cmd.Printf("%.1f%% of years are exact\n", verify.Pct(stats.YearExact, stats.YearConfirmed))
		cmd.Printf("%d of %d documents matched to unique corpus rows\n", stats.Matched, stats.Scanned)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
