package reconcile

import (
	"context"

	"github.com/arc-research/harvest-cli/internal/config"
	"github.com/arc-research/harvest-cli/internal/corpus"
	"github.com/arc-research/harvest-cli/internal/model"
	"github.com/arc-research/harvest-cli/internal/tracker"
)

// ValidateMatches classifies every reference-corpus record against the
// acquisition logs and appends the result as a matching row.
//
// A record is OK when any of its entity's attempts reached a result page;
// otherwise its status is the last terminal code logged for the entity, or
// NA when the entity was never attempted. OK records are then checked for a
// downloaded file (of an accepted document type) whose filing year equals
// the record's expected year.
func ValidateMatches(ctx context.Context, store tracker.Store, records []corpus.Record, cfg config.ReconcileConfig) error {
	attempts, err := store.Attempts(ctx)
	if err != nil {
		return err
	}
	artifacts, err := store.Artifacts(ctx)
	if err != nil {
		return err
	}

	valid := make(map[string]bool, len(cfg.ValidDocTypes))
	for _, t := range cfg.ValidDocTypes {
		valid[t] = true
	}
	var downloaded []model.Artifact
	for _, ar := range artifacts {
		if valid[ar.DocType] {
			downloaded = append(downloaded, ar)
		}
	}

	for _, rec := range records {
		status := model.StatusNA
		yearMatch := "N"
		fileCount := 0

		for _, at := range attempts {
			if at.EntityKey != rec.Key {
				continue
			}
			if !at.PageToken.Terminal() {
				status = model.StatusOK
			}
			if status != model.StatusOK {
				status = model.Status(at.PageToken)
			}
		}

		if status == model.StatusOK {
			for _, ar := range downloaded {
				if ar.FilingYear() == rec.Year && ar.EntityKey == rec.Key {
					yearMatch = "Y"
					fileCount++
				}
			}
		}

		if _, err := store.AppendMatching(ctx, model.MatchingRow{
			EntityKey: rec.Key,
			Name:      rec.Name,
			Year:      rec.Year,
			DataDate:  rec.DataDate,
			Status:    status,
			YearMatch: yearMatch,
			FileCount: fileCount,
		}); err != nil {
			return err
		}
	}
	return nil
}
