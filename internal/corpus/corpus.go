// Package corpus loads the reference dataset of entities and filing years
// that acquisition targets and verification resolves against.
package corpus

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/arc-research/harvest-cli/internal/config"
	"github.com/arc-research/harvest-cli/internal/fetcher"
	"github.com/arc-research/harvest-cli/internal/model"
)

// Record is one reference-corpus row: an entity expected to have a filing
// for a specific year.
type Record struct {
	Key      string
	Name     string
	DataDate string
	Year     string
}

// Load reads the reference corpus from a CSV or XLSX file, selected by
// extension. Column positions come from configuration; rows too short to
// hold all configured columns are skipped.
func Load(ctx context.Context, cfg config.CorpusConfig) ([]Record, error) {
	if cfg.Path == "" {
		return nil, eris.New("corpus: path not configured")
	}

	var rows [][]string
	var err error
	if strings.EqualFold(filepath.Ext(cfg.Path), ".xlsx") {
		skip := 0
		if cfg.HasHeader {
			skip = 1
		}
		rows, err = fetcher.ReadXLSX(cfg.Path, fetcher.XLSXOptions{SkipRows: skip})
		if err != nil {
			return nil, err
		}
	} else {
		rows, err = readCSV(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	maxCol := cfg.KeyCol
	for _, c := range []int{cfg.NameCol, cfg.DateCol, cfg.YearCol} {
		if c > maxCol {
			maxCol = c
		}
	}

	var out []Record
	for _, row := range rows {
		if len(row) <= maxCol {
			continue
		}
		out = append(out, Record{
			Key:      row[cfg.KeyCol],
			Name:     row[cfg.NameCol],
			DataDate: firstField(row[cfg.DateCol]),
			Year:     row[cfg.YearCol],
		})
	}
	return out, nil
}

// Entities collapses corpus records into the entity list acquisition
// iterates: one entry per key, in first-seen order, the display name taken
// from the last record carrying the key.
func Entities(records []Record) []model.Entity {
	index := make(map[string]int, len(records))
	var out []model.Entity
	for _, r := range records {
		if i, ok := index[r.Key]; ok {
			out[i].DisplayName = r.Name
			continue
		}
		index[r.Key] = len(out)
		out = append(out, model.Entity{Key: r.Key, DisplayName: r.Name})
	}
	return out
}

func readCSV(ctx context.Context, cfg config.CorpusConfig) ([][]string, error) {
	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, eris.Wrap(err, "corpus: open")
	}
	defer f.Close() //nolint:errcheck

	rowCh, errCh := fetcher.StreamCSV(ctx, f, fetcher.CSVOptions{
		HasHeader:  cfg.HasHeader,
		LazyQuotes: true,
	})

	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return rows, nil
}

// firstField returns the date portion of a "date time" cell.
func firstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
