package reconcile

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/arc-research/harvest-cli/internal/model"
)

// ReportRow is one line of the missing/found firm reports. Detail carries a
// status code for missing rows and a file count for found rows.
type ReportRow struct {
	EntityKey string
	Name      string
	Year      string
	DataDate  string
	Detail    string
}

// MissingReport lists reference records that produced no usable file: NA
// records, and acquired records whose expected year has no download (gap
// years). Returns the rows plus the missing and gap-year counts.
func MissingReport(rows []model.MatchingRow) ([]ReportRow, int, int) {
	var out []ReportRow
	missing := 0
	gaps := 0
	for _, r := range rows {
		switch {
		case r.Status == model.StatusNA:
			out = append(out, ReportRow{r.EntityKey, r.Name, r.Year, r.DataDate, "NA"})
			missing++
		case r.YearMatch == "N":
			out = append(out, ReportRow{r.EntityKey, r.Name, r.Year, r.DataDate, "N"})
			gaps++
			missing++
		}
	}
	return out, missing, gaps
}

// FoundReport lists reference records satisfied by at least one downloaded
// file with a matching filing year.
func FoundReport(rows []model.MatchingRow) []ReportRow {
	var out []ReportRow
	for _, r := range rows {
		if r.Status == model.StatusOK && r.YearMatch == "Y" && r.FileCount > 0 {
			out = append(out, ReportRow{r.EntityKey, r.Name, r.Year, r.DataDate, strconv.Itoa(r.FileCount)})
		}
	}
	return out
}

// FirmCounts summarizes matching rows at the firm level.
type FirmCounts struct {
	// Complete firms have every reference record satisfied by a
	// year-matched file.
	Complete int
	// Total is the number of distinct firms in the matching log.
	Total int
	// AllNA firms returned nothing from the archive at all.
	AllNA int
}

// CountFirms folds the per-record matching rows into per-firm completeness
// counts.
func CountFirms(rows []model.MatchingRow) FirmCounts {
	entries := make(map[string]int)
	for _, r := range rows {
		entries[r.EntityKey]++
	}

	verified := make(map[string]int)
	for _, r := range rows {
		switch {
		case r.YearMatch == "Y" && r.FileCount > 0:
			verified[r.EntityKey]++
		case r.Status == model.StatusNA:
			if _, ok := verified[r.EntityKey]; !ok {
				verified[r.EntityKey] = 0
			}
		}
	}

	var counts FirmCounts
	counts.Total = len(entries)
	for key, v := range verified {
		total, ok := entries[key]
		if !ok {
			continue
		}
		if v == total {
			counts.Complete++
		} else if v == 0 {
			counts.AllNA++
		}
	}
	return counts
}

// WriteReport writes report rows as a CSV file with the given header.
func WriteReport(path string, header []string, rows []ReportRow) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "reconcile: create report")
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return eris.Wrap(err, "reconcile: write report header")
	}
	for _, r := range rows {
		if err := w.Write([]string{r.EntityKey, r.Name, r.Year, r.DataDate, r.Detail}); err != nil {
			return eris.Wrap(err, "reconcile: write report row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "reconcile: flush report")
	}
	return nil
}
