// Package acquire drives the per-entity, per-page acquisition loop against
// the archive: search, page-count discovery, row scraping, throttling, bulk
// download, and progress bookkeeping. The browser mechanics live behind the
// Navigator contract; this package owns the protocol, not the DOM.
package acquire

import (
	"context"

	"github.com/arc-research/harvest-cli/internal/model"
)

// Row is one result-table row with enough populated columns to carry data.
type Row struct {
	Name       string
	FilingDate string
	DocType    string
	SizeText   string
}

// ResultsPage exposes one entity's search results. Implementations wrap a
// live results view: page navigation mutates the view in place.
type ResultsPage interface {
	// PageCount returns the total result-page count. Implementations may
	// fail when the count element is absent; callers default to one page.
	PageCount(ctx context.Context) (int, error)

	// ReportCount returns the total report count across pages.
	ReportCount(ctx context.Context) (int, error)

	// Rows returns the current page's data rows in table order.
	Rows(ctx context.Context) ([]Row, error)

	// SelectRow checks the nth (1-based) row for inclusion in a bulk
	// download. Used in search-all mode, where rows are chosen individually.
	SelectRow(ctx context.Context, n int) error

	// SelectAll checks every row on the current page.
	SelectAll(ctx context.Context) error

	// BulkDownload triggers the archive's bulk download of selected rows.
	BulkDownload(ctx context.Context) error

	// GotoPage navigates to the given 1-based result page and waits for the
	// table to reload.
	GotoPage(ctx context.Context, n int) error
}

// Navigator reaches a results page for an entity. searchAll disables the
// document-type filter (used by the zero-result fallback and gap-year
// recovery).
type Navigator interface {
	Search(ctx context.Context, entity model.Entity, searchAll bool) (ResultsPage, error)
	BackToSearch(ctx context.Context) error
}
