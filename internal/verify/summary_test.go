package verify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-research/harvest-cli/internal/model"
)

func TestSummarize(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	records := []model.VerificationRecord{
		{
			DiskPath: "a.pdf", EntityKey: "123", SourceName: "ACME INC", Year: "1996",
			DocTypeConfirmed: "annual report", NameConfirmed: "ACME INC",
			YearConfirmed: "1996", ReferenceIndex: "0",
		},
		{
			DiskPath: "b.pdf", EntityKey: "123", SourceName: "ACME INC", Year: "1996",
			DocTypeConfirmed: "annual report", NameConfirmed: "Acme Incorporated",
			YearConfirmed: "1995", ReferenceIndex: "1",
		},
		{
			DiskPath: "c.pdf", EntityKey: "456", SourceName: "Other Co", Year: "1994",
			DocTypeConfirmed: model.Unconfirmed, NameConfirmed: model.Unconfirmed,
			YearConfirmed: model.Unconfirmed, ReferenceIndex: model.IndexUnassigned,
		},
	}
	for _, r := range records {
		_, err := st.AppendVerification(ctx, r)
		require.NoError(t, err)
	}

	s, err := Summarize(ctx, st)
	require.NoError(t, err)

	assert.Equal(t, 3, s.Scanned)
	assert.Equal(t, 2, s.DocConfirmed)
	assert.Equal(t, 2, s.NameConfirmed)
	assert.Equal(t, 1, s.NameExact)
	assert.Equal(t, 2, s.YearConfirmed)
	assert.Equal(t, 1, s.YearExact)
	assert.Equal(t, 2, s.AllThree)
	assert.Equal(t, 2, s.Matched)
}

func TestSummarize_Empty(t *testing.T) {
	s, err := Summarize(context.Background(), newTestStore(t))
	require.NoError(t, err)
	assert.Equal(t, Stats{}, s)
}

func TestPct(t *testing.T) {
	assert.InDelta(t, 50, Pct(1, 2), 0.001)
	assert.InDelta(t, 0, Pct(0, 0), 0.001)
	assert.InDelta(t, 100, Pct(3, 3), 0.001)
}
