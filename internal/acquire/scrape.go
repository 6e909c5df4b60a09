package acquire

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/arc-research/harvest-cli/internal/model"
)

// ParseSizeKB converts a result-row size cell to kilobytes. The cell is a
// number followed by a two-letter unit suffix ("482 KB", "1.2 MB"); MB and
// GB scale decimally. Malformed cells contribute zero.
func ParseSizeKB(text string) float64 {
	if len(text) < 2 {
		return 0
	}
	unit := text[len(text)-2:]
	value := strings.TrimSpace(text[:len(text)-2])
	if value == "" || unit == "" || unit == " " {
		return 0
	}
	n, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	switch unit {
	case "MB":
		n *= 1000
	case "GB":
		n *= 1_000_000
	}
	return n
}

// filingYear returns the last four characters of a filing-date cell, the
// year for dates formatted "MM/DD/YYYY".
func filingYear(date string) string {
	if len(date) < 4 {
		return date
	}
	return date[len(date)-4:]
}

// scrapePage reads the current results table, appends an artifact record for
// every data row carrying a filing year, and sums the page's sizes. Years
// are appended to dateValues in table order (newest filing first). In
// search-all mode rows outside the document-type allowlist are ignored, rows
// outside the requested years are left unselected, and kept rows are checked
// for the bulk download as they are scraped.
func (m *Machine) scrapePage(ctx context.Context, page ResultsPage, entity model.Entity, pageNum int, searchAll bool, years, dateValues []string) ([]string, float64, error) {
	rows, err := page.Rows(ctx)
	if err != nil {
		return dateValues, 0, err
	}

	wanted := make(map[string]bool, len(years))
	for _, y := range years {
		wanted[y] = true
	}

	token := model.PageToken(strconv.Itoa(pageNum))
	var pageSizeKB float64
	// count numbers the logged artifacts; it does not advance past rows the
	// year filter drops, so it can trail the physical table position. Row
	// selection always targets the physical row.
	count := 1
	for i, row := range rows {
		if !searchAll || m.allow[row.DocType] {
			year := filingYear(row.FilingDate)

			if searchAll {
				if len(years) > 0 && !wanted[year] {
					continue
				}
				if err := page.SelectRow(ctx, i+1); err != nil {
					zap.L().Warn("row selection failed",
						zap.String("key", entity.Key),
						zap.Int("row", i+1),
						zap.Error(err),
					)
					continue
				}
			}

			pageSizeKB += ParseSizeKB(row.SizeText)

			if year != "" && year != " " {
				dateValues = append(dateValues, year)
				if _, err := m.store.AppendArtifact(ctx, model.Artifact{
					EntityKey:   entity.Key,
					DisplayName: row.Name,
					RowNumber:   count,
					PageToken:   token,
					FilingDate:  row.FilingDate,
					DocType:     row.DocType,
				}); err != nil {
					return dateValues, pageSizeKB, err
				}
			}
		}
		count++
	}

	return dateValues, pageSizeKB, nil
}
