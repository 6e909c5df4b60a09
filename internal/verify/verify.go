package verify

import (
	"context"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/arc-research/harvest-cli/internal/config"
	"github.com/arc-research/harvest-cli/internal/corpus"
	"github.com/arc-research/harvest-cli/internal/extract"
	"github.com/arc-research/harvest-cli/internal/model"
	"github.com/arc-research/harvest-cli/internal/tracker"
)

// Engine runs the verification pass over the metadata log.
type Engine struct {
	store  tracker.Store
	opener extract.Opener
	refs   []corpus.Record
	cfg    config.VerifyConfig
}

// NewEngine assembles a verification engine over the given corpus records.
func NewEngine(store tracker.Store, opener extract.Opener, refs []corpus.Record, cfg config.VerifyConfig) *Engine {
	return &Engine{store: store, opener: opener, refs: refs, cfg: cfg}
}

// RunStats counts the artifacts touched by one verification pass.
type RunStats struct {
	Scanned int
	Opened  int
}

// Run verifies every metadata row with a resolved disk path: the artifact's
// pages are scanned until document type, name, and year are all confirmed
// or pages run out, then the artifact is resolved to an unclaimed corpus
// row and a verification record is appended. Unreadable artifacts are
// logged and skipped.
func (e *Engine) Run(ctx context.Context) (RunStats, error) {
	rows, err := e.store.Metadata(ctx)
	if err != nil {
		return RunStats{}, err
	}

	var stats RunStats
	occupied := make(map[int]bool)

	for _, row := range rows {
		if row.DiskPath == "" {
			continue
		}
		stats.Scanned++

		doc, err := e.opener.Open(ctx, row.DiskPath)
		if err != nil {
			if extract.IsUnreadable(err) {
				zap.L().Warn("unreadable artifact",
					zap.String("path", row.DiskPath),
					zap.Error(err),
				)
				continue
			}
			return stats, err
		}
		stats.Opened++

		docType, name, year, err := e.scanDocument(ctx, doc, row)
		doc.Close() //nolint:errcheck
		if err != nil {
			if extract.IsUnreadable(err) {
				zap.L().Warn("artifact failed mid-read",
					zap.String("path", row.DiskPath),
					zap.Error(err),
				)
				continue
			}
			return stats, err
		}

		ref := model.IndexUnassigned
		if idx := e.resolveIndex(row.EntityKey, row.ReferenceName, row.Date, occupied); idx >= 0 {
			occupied[idx] = true
			ref = strconv.Itoa(idx)
		}

		if _, err := e.store.AppendVerification(ctx, model.VerificationRecord{
			DiskPath:         row.DiskPath,
			EntityKey:        row.EntityKey,
			ReferenceName:    row.ReferenceName,
			SourceName:       row.SourceName,
			Year:             row.Year,
			DocTypeConfirmed: docType,
			NameConfirmed:    name,
			YearConfirmed:    year,
			ReferenceIndex:   ref,
		}); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// scanDocument walks the artifact's pages until all three fields are
// confirmed or the document ends.
func (e *Engine) scanDocument(ctx context.Context, doc extract.Document, row model.MetadataRow) (string, string, string, error) {
	docType := model.Unconfirmed
	name := model.Unconfirmed
	year := model.Unconfirmed

	for docType == model.Unconfirmed || name == model.Unconfirmed || year == model.Unconfirmed {
		tokens, err := doc.NextPage(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return docType, name, year, err
		}
		docType, name, year = e.verifyAppearances(tokens, row.ReferenceName, row.Year, docType, name, year)
	}
	return docType, name, year, nil
}

// verifyAppearances checks one page's tokens for the three fields. Each
// token feeds at most one check: the document-type check while unconfirmed,
// then the name check, then the year check. Name candidates collect across
// the page and resolve to the lexicographically greatest match.
func (e *Engine) verifyAppearances(tokens []string, name, year, docTypeConfirmed, nameConfirmed, yearConfirmed string) (string, string, string) {
	candidates := make(map[string]bool)

	for _, tok := range tokens {
		word := strings.TrimSpace(tok)

		switch {
		case docTypeConfirmed == model.Unconfirmed && Ratio(strings.ToLower(word), e.cfg.DocTypePhrase) >= e.cfg.DocTypeThreshold:
			docTypeConfirmed = word
		case nameConfirmed == model.Unconfirmed:
			if Ratio(strings.ToLower(word), strings.ToLower(name)) >= e.cfg.NameThreshold {
				candidates[word] = true
			}
		case yearConfirmed == model.Unconfirmed && utf8.RuneCountInString(word) == 4 && Ratio(word, year) >= e.cfg.YearThreshold:
			yearConfirmed = word
		}
	}

	if nameConfirmed == model.Unconfirmed && len(candidates) > 0 {
		best := ""
		for w := range candidates {
			if w > best {
				best = w
			}
		}
		nameConfirmed = best
	}
	return docTypeConfirmed, nameConfirmed, yearConfirmed
}

// resolveIndex finds the first unclaimed corpus row whose expected year
// matches the artifact's filing year and whose key or reference name
// matches. Returns -1 when nothing is available.
func (e *Engine) resolveIndex(key, refName, date string, occupied map[int]bool) int {
	year := date
	if len(year) >= 4 {
		year = year[len(year)-4:]
	}
	for i, rec := range e.refs {
		if rec.Year != year {
			continue
		}
		if rec.Key != key && rec.Name != refName {
			continue
		}
		if occupied[i] {
			continue
		}
		return i
	}
	return -1
}
