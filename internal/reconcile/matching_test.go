package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-research/harvest-cli/internal/config"
	"github.com/arc-research/harvest-cli/internal/corpus"
	"github.com/arc-research/harvest-cli/internal/model"
	"github.com/arc-research/harvest-cli/internal/tracker"
)

func reconcileConfig() config.ReconcileConfig {
	return config.ReconcileConfig{
		ValidDocTypes: []string{"10K or Int'l Equivalent", "Annual/10K Report", "Annual Report"},
	}
}

func appendAttempts(t *testing.T, st tracker.Store, key string, tokens ...model.PageToken) {
	t.Helper()
	for _, tok := range tokens {
		_, err := st.AppendAttempt(context.Background(), model.Attempt{
			EntityKey: key, DisplayName: "Acme Inc", PageToken: tok,
		})
		require.NoError(t, err)
	}
}

func singleMatch(t *testing.T, st tracker.Store) model.MatchingRow {
	t.Helper()
	rows, err := st.Matching(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	return rows[0]
}

func TestValidateMatches_OKStickyOverTerminal(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	appendAttempts(t, st, "123", "3", model.PageTL)

	records := []corpus.Record{{Key: "123", Name: "Acme Inc", Year: "1996", DataDate: "07/15/1996"}}
	require.NoError(t, ValidateMatches(ctx, st, records, reconcileConfig()))

	assert.Equal(t, model.StatusOK, singleMatch(t, st).Status)
}

func TestValidateMatches_LaterPageLiftsTerminal(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	appendAttempts(t, st, "123", model.PageNA, "3")

	records := []corpus.Record{{Key: "123", Name: "Acme Inc", Year: "1996", DataDate: "07/15/1996"}}
	require.NoError(t, ValidateMatches(ctx, st, records, reconcileConfig()))

	assert.Equal(t, model.StatusOK, singleMatch(t, st).Status)
}

func TestValidateMatches_TerminalOnly(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	appendAttempts(t, st, "123", model.PageTL)

	records := []corpus.Record{{Key: "123", Name: "Acme Inc", Year: "1996", DataDate: "07/15/1996"}}
	require.NoError(t, ValidateMatches(ctx, st, records, reconcileConfig()))

	row := singleMatch(t, st)
	assert.Equal(t, model.StatusTL, row.Status)
	assert.Equal(t, "N", row.YearMatch)
	assert.Equal(t, 0, row.FileCount)
}

func TestValidateMatches_NeverAttemptedIsNA(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	records := []corpus.Record{{Key: "999", Name: "Ghost Co", Year: "1996", DataDate: "07/15/1996"}}
	require.NoError(t, ValidateMatches(ctx, st, records, reconcileConfig()))

	assert.Equal(t, model.StatusNA, singleMatch(t, st).Status)
}

func TestValidateMatches_YearMatchCountsValidDocTypes(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	appendAttempts(t, st, "123", "1")

	artifacts := []model.Artifact{
		{EntityKey: "123", DisplayName: "Acme Inc", RowNumber: 1, PageToken: "1", FilingDate: "07/15/1996", DocType: "Annual/10K Report"},
		{EntityKey: "123", DisplayName: "Acme Inc", RowNumber: 2, PageToken: "1", FilingDate: "08/20/1996", DocType: "Annual Report"},
		// Wrong year and an unaccepted document type both fall out.
		{EntityKey: "123", DisplayName: "Acme Inc", RowNumber: 3, PageToken: "1", FilingDate: "07/15/1994", DocType: "Annual/10K Report"},
		{EntityKey: "123", DisplayName: "Acme Inc", RowNumber: 4, PageToken: "1", FilingDate: "07/15/1996", DocType: "Press Release"},
	}
	for _, ar := range artifacts {
		_, err := st.AppendArtifact(ctx, ar)
		require.NoError(t, err)
	}

	records := []corpus.Record{{Key: "123", Name: "Acme Inc", Year: "1996", DataDate: "07/15/1996"}}
	require.NoError(t, ValidateMatches(ctx, st, records, reconcileConfig()))

	row := singleMatch(t, st)
	assert.Equal(t, model.StatusOK, row.Status)
	assert.Equal(t, "Y", row.YearMatch)
	assert.Equal(t, 2, row.FileCount)
}

func TestValidateMatches_OKWithoutYearFileIsGap(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	appendAttempts(t, st, "123", "1")

	_, err := st.AppendArtifact(ctx, model.Artifact{
		EntityKey: "123", DisplayName: "Acme Inc", RowNumber: 1,
		PageToken: "1", FilingDate: "07/15/1994", DocType: "Annual/10K Report",
	})
	require.NoError(t, err)

	records := []corpus.Record{{Key: "123", Name: "Acme Inc", Year: "1996", DataDate: "07/15/1996"}}
	require.NoError(t, ValidateMatches(ctx, st, records, reconcileConfig()))

	row := singleMatch(t, st)
	assert.Equal(t, model.StatusOK, row.Status)
	assert.Equal(t, "N", row.YearMatch)
	assert.Equal(t, 0, row.FileCount)
}
