package verify

import (
	"context"

	"github.com/arc-research/harvest-cli/internal/model"
	"github.com/arc-research/harvest-cli/internal/tracker"
)

// Stats aggregates the verification log. Exact counts compare the confirmed
// value against the expected one character for character.
type Stats struct {
	Scanned       int
	DocConfirmed  int
	NameConfirmed int
	NameExact     int
	YearConfirmed int
	YearExact     int
	AllThree      int
	Matched       int
}

// Summarize folds every verification record into aggregate counts.
func Summarize(ctx context.Context, store tracker.Store) (Stats, error) {
	records, err := store.Verifications(ctx)
	if err != nil {
		return Stats{}, err
	}

	var s Stats
	for _, r := range records {
		all := true

		if r.DocTypeConfirmed != model.Unconfirmed {
			s.DocConfirmed++
		} else {
			all = false
		}

		if r.NameConfirmed != model.Unconfirmed {
			s.NameConfirmed++
			if r.NameConfirmed == r.SourceName {
				s.NameExact++
			}
		} else {
			all = false
		}

		if r.YearConfirmed != model.Unconfirmed {
			s.YearConfirmed++
			if r.YearConfirmed == r.Year {
				s.YearExact++
			}
		} else {
			all = false
		}

		if all {
			s.AllThree++
		}
		if r.ReferenceIndex != model.IndexUnassigned {
			s.Matched++
		}
		s.Scanned++
	}
	return s, nil
}

// Pct is a safe percentage helper for reporting: zero denominators yield
// zero instead of NaN.
func Pct(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d) * 100
}
