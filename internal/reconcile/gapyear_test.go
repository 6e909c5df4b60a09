package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-research/harvest-cli/internal/model"
)

func TestGapYears_GroupsPerEntity(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	rows := []model.MatchingRow{
		{EntityKey: "123", Name: "Acme Inc", Year: "1995", DataDate: "d", Status: model.StatusOK, YearMatch: "N"},
		{EntityKey: "456", Name: "Other Co", Year: "1996", DataDate: "d", Status: model.StatusOK, YearMatch: "N"},
		{EntityKey: "123", Name: "Acme Inc", Year: "1997", DataDate: "d", Status: model.StatusOK, YearMatch: "N"},
		// Satisfied and terminal rows are not gaps.
		{EntityKey: "123", Name: "Acme Inc", Year: "1998", DataDate: "d", Status: model.StatusOK, YearMatch: "Y", FileCount: 1},
		{EntityKey: "789", Name: "Ghost Co", Year: "1995", DataDate: "d", Status: model.StatusNA, YearMatch: "N"},
	}
	for _, r := range rows {
		_, err := st.AppendMatching(ctx, r)
		require.NoError(t, err)
	}

	gaps, err := GapYears(ctx, st)
	require.NoError(t, err)

	require.Len(t, gaps, 2)
	assert.Equal(t, "123", gaps[0].Key)
	assert.Equal(t, []string{"1995", "1997"}, gaps[0].Years)
	assert.Equal(t, "456", gaps[1].Key)
	assert.Equal(t, []string{"1996"}, gaps[1].Years)
}

func TestGapYears_Empty(t *testing.T) {
	gaps, err := GapYears(context.Background(), newTestStore(t))
	require.NoError(t, err)
	assert.Empty(t, gaps)
}
