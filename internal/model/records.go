// Package model defines the record types shared across the acquisition,
// reconciliation, and verification stages.
package model

import "strings"

// Entity is one reference-corpus organization, identified by a stable key.
type Entity struct {
	Key         string `json:"key"`
	DisplayName string `json:"display_name"`
}

// PageToken is the outcome of searching one result page for an entity.
// It is either a 1-based page number ("1".."N") or a terminal code.
type PageToken string

const (
	// PageNA marks an entity with no results in the archive.
	PageNA PageToken = "NA"
	// PageTL marks a result set that exceeded the volume cap and was skipped.
	PageTL PageToken = "TL"
	// PageSK marks a page that failed to load after retry.
	PageSK PageToken = "SK"
)

// Terminal reports whether the token is a terminal failure code rather than
// a successfully acquired page number.
func (t PageToken) Terminal() bool {
	return t == PageNA || t == PageTL || t == PageSK
}

// Attempt records the outcome of searching one entity's one result page.
// Attempts are append-only; they are never mutated or deleted.
type Attempt struct {
	EntityKey   string    `json:"entity_key"`
	DisplayName string    `json:"display_name"`
	PageToken   PageToken `json:"page_token"`
}

// Artifact records one row scraped off a results page, i.e. one file that
// will be present inside the page's bulk-download archive.
type Artifact struct {
	EntityKey   string    `json:"entity_key"`
	DisplayName string    `json:"display_name"`
	RowNumber   int       `json:"row_number"`
	PageToken   PageToken `json:"page_token"`
	FilingDate  string    `json:"filing_date"`
	DocType     string    `json:"doc_type"`
}

// FilingYear returns the year component of the filing date, the segment
// after the last slash ("07/15/1996" -> "1996").
func (a Artifact) FilingYear() string {
	parts := strings.Split(a.FilingDate, "/")
	return parts[len(parts)-1]
}

// MetadataRow joins an Artifact with its extracted file on disk.
type MetadataRow struct {
	FileName      string `json:"file_name"`
	EntityKey     string `json:"entity_key"`
	ReferenceName string `json:"reference_name"`
	SourceName    string `json:"source_name"`
	Year          string `json:"year"`
	Date          string `json:"date"`
	DocType       string `json:"doc_type"`
	DiskPath      string `json:"disk_path"`
}

// Status classifies a reference-corpus record's acquisition outcome.
type Status string

const (
	StatusOK Status = "OK"
	StatusNA Status = "NA"
	StatusTL Status = "TL"
	StatusSK Status = "SK"
)

// MatchingRow is the per-reference-record acquisition classification.
type MatchingRow struct {
	EntityKey string `json:"entity_key"`
	Name      string `json:"name"`
	Year      string `json:"year"`
	DataDate  string `json:"data_date"`
	Status    Status `json:"status"`
	YearMatch string `json:"year_match"` // "Y" or "N"
	FileCount int    `json:"file_count"`
}

// Unconfirmed is the value of a verification field that was never matched.
const Unconfirmed = "None"

// IndexUnassigned is the reference-index value when no corpus row remains.
const IndexUnassigned = "NA"

// VerificationRecord holds the fuzzy-verification outcome for one artifact.
// ReferenceIndex is a decimal corpus index or IndexUnassigned.
type VerificationRecord struct {
	DiskPath         string `json:"disk_path"`
	EntityKey        string `json:"entity_key"`
	ReferenceName    string `json:"reference_name"`
	SourceName       string `json:"source_name"`
	Year             string `json:"year"`
	DocTypeConfirmed string `json:"doc_type_confirmed"`
	NameConfirmed    string `json:"name_confirmed"`
	YearConfirmed    string `json:"year_confirmed"`
	ReferenceIndex   string `json:"reference_index"`
}
