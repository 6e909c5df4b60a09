// Package reconcile relates what was acquired to what the reference corpus
// expects: it extracts the downloaded archives, joins tracker logs to files
// on disk, classifies every reference record, and derives the gap-year and
// firm-level reports.
package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arc-research/harvest-cli/internal/config"
	"github.com/arc-research/harvest-cli/internal/fetcher"
)

// Unzip extracts every archive under the zips directory into a same-named
// folder under the folders directory. An archive whose folder already exists
// is skipped, so repeated passes only touch new downloads. Corrupt archives
// are logged and skipped rather than failing the pass.
func Unzip(ctx context.Context, cfg config.ReconcileConfig) error {
	if err := os.MkdirAll(cfg.FoldersDir, 0o755); err != nil {
		return err
	}

	entries, err := os.ReadDir(cfg.ZipsDir)
	if err != nil {
		return err
	}

	workers := cfg.UnzipWorkers
	if workers < 1 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".zip") {
			continue
		}
		name := e.Name()
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			dest := filepath.Join(cfg.FoldersDir, strings.TrimSuffix(name, filepath.Ext(name)))
			if _, err := os.Stat(dest); err == nil {
				return nil
			}
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return err
			}

			if _, err := fetcher.ExtractZIP(filepath.Join(cfg.ZipsDir, name), dest); err != nil {
				zap.L().Warn("skipping corrupt archive",
					zap.String("zip", name),
					zap.Error(err),
				)
			}
			return nil
		})
	}

	return g.Wait()
}
