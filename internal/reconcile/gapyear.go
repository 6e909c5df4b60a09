package reconcile

import (
	"context"

	"github.com/arc-research/harvest-cli/internal/model"
	"github.com/arc-research/harvest-cli/internal/tracker"
)

// GapEntity is a firm that was found in the archive but is missing files
// for specific expected filing years.
type GapEntity struct {
	Key   string
	Name  string
	Years []string
}

// GapYears lists entities whose matching rows are OK but carry no file for
// the expected year, grouped per entity in first-seen order. The result
// feeds the recovery pass, which re-searches each entity across every
// document type restricted to the missing years.
func GapYears(ctx context.Context, store tracker.Store) ([]GapEntity, error) {
	rows, err := store.Matching(ctx)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	var out []GapEntity
	for _, r := range rows {
		if r.Status != model.StatusOK || r.YearMatch != "N" {
			continue
		}
		if i, ok := index[r.EntityKey]; ok {
			out[i].Years = append(out[i].Years, r.Year)
			continue
		}
		index[r.EntityKey] = len(out)
		out = append(out, GapEntity{Key: r.EntityKey, Name: r.Name, Years: []string{r.Year}})
	}
	return out, nil
}
