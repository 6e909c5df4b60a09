package verify

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-research/harvest-cli/internal/config"
	"github.com/arc-research/harvest-cli/internal/corpus"
	"github.com/arc-research/harvest-cli/internal/extract"
	"github.com/arc-research/harvest-cli/internal/model"
	"github.com/arc-research/harvest-cli/internal/tracker"
)

type fakeDoc struct {
	pages   [][]string
	idx     int
	readErr error
	closed  bool
}

func (d *fakeDoc) NextPage(context.Context) ([]string, error) {
	if d.idx >= len(d.pages) {
		if d.readErr != nil {
			return nil, d.readErr
		}
		return nil, io.EOF
	}
	p := d.pages[d.idx]
	d.idx++
	return p, nil
}

func (d *fakeDoc) Close() error {
	d.closed = true
	return nil
}

type fakeOpener struct {
	docs    map[string]*fakeDoc
	openErr map[string]error
}

func (o *fakeOpener) Open(_ context.Context, path string) (extract.Document, error) {
	if err := o.openErr[path]; err != nil {
		return nil, err
	}
	d, ok := o.docs[path]
	if !ok {
		return nil, extract.ErrUnreadable
	}
	return d, nil
}

func newTestStore(t *testing.T) tracker.Store {
	t.Helper()
	st, err := tracker.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func verifyConfig() config.VerifyConfig {
	return config.VerifyConfig{
		DocTypePhrase:    "annual report",
		DocTypeThreshold: 70,
		NameThreshold:    80,
		YearThreshold:    80,
	}
}

func metaRow(path string) model.MetadataRow {
	return model.MetadataRow{
		FileName:      filepath.Base(path),
		EntityKey:     "123",
		ReferenceName: "Acme Inc",
		SourceName:    "ACME INCORPORATED",
		Year:          "1996",
		Date:          "07/15/1996",
		DocType:       "Annual/10K Report",
		DiskPath:      path,
	}
}

func TestEngine_ConfirmsAllFields(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	_, err := st.AppendMetadata(ctx, metaRow("a.pdf"))
	require.NoError(t, err)

	// The year can only confirm on a page read after the name confirmed,
	// since unconfirmed-name pages route every remaining token to the name
	// check.
	opener := &fakeOpener{docs: map[string]*fakeDoc{
		"a.pdf": {pages: [][]string{
			{"annual report", "Acme Inc"},
			{"1996"},
		}},
	}}
	refs := []corpus.Record{{Key: "123", Name: "Acme Inc", Year: "1996", DataDate: "07/15/1996"}}

	stats, err := NewEngine(st, opener, refs, verifyConfig()).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, RunStats{Scanned: 1, Opened: 1}, stats)

	recs, err := st.Verifications(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "annual report", recs[0].DocTypeConfirmed)
	assert.Equal(t, "Acme Inc", recs[0].NameConfirmed)
	assert.Equal(t, "1996", recs[0].YearConfirmed)
	assert.Equal(t, "0", recs[0].ReferenceIndex)
	assert.True(t, opener.docs["a.pdf"].closed)
}

func TestEngine_YearTokenSwallowedWhileNameUnconfirmed(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	_, err := st.AppendMetadata(ctx, metaRow("a.pdf"))
	require.NoError(t, err)

	// Name never appears, so the single page's year token feeds the name
	// check instead and the year stays unconfirmed.
	opener := &fakeOpener{docs: map[string]*fakeDoc{
		"a.pdf": {pages: [][]string{{"annual report", "1996"}}},
	}}

	_, err = NewEngine(st, opener, nil, verifyConfig()).Run(ctx)
	require.NoError(t, err)

	recs, err := st.Verifications(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "annual report", recs[0].DocTypeConfirmed)
	assert.Equal(t, model.Unconfirmed, recs[0].NameConfirmed)
	assert.Equal(t, model.Unconfirmed, recs[0].YearConfirmed)
}

func TestEngine_NameCandidatesResolveLexicographically(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	_, err := st.AppendMetadata(ctx, metaRow("a.pdf"))
	require.NoError(t, err)

	opener := &fakeOpener{docs: map[string]*fakeDoc{
		"a.pdf": {pages: [][]string{{"ACME INC", "Acme Inc"}}},
	}}

	_, err = NewEngine(st, opener, nil, verifyConfig()).Run(ctx)
	require.NoError(t, err)

	recs, err := st.Verifications(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Acme Inc", recs[0].NameConfirmed)
}

func TestEngine_OccupancyAssignsUniqueIndices(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	for _, p := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		_, err := st.AppendMetadata(ctx, metaRow(p))
		require.NoError(t, err)
	}

	opener := &fakeOpener{docs: map[string]*fakeDoc{
		"a.pdf": {},
		"b.pdf": {},
		"c.pdf": {},
	}}
	// Two corpus rows fit every artifact; the third artifact finds none left.
	refs := []corpus.Record{
		{Key: "123", Name: "Acme Inc", Year: "1996", DataDate: "07/15/1996"},
		{Key: "123", Name: "Acme Inc", Year: "1996", DataDate: "07/15/1996"},
	}

	_, err := NewEngine(st, opener, refs, verifyConfig()).Run(ctx)
	require.NoError(t, err)

	recs, err := st.Verifications(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "0", recs[0].ReferenceIndex)
	assert.Equal(t, "1", recs[1].ReferenceIndex)
	assert.Equal(t, model.IndexUnassigned, recs[2].ReferenceIndex)
}

func TestEngine_ResolveIndexMatchesKeyOrName(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	_, err := st.AppendMetadata(ctx, metaRow("a.pdf"))
	require.NoError(t, err)

	opener := &fakeOpener{docs: map[string]*fakeDoc{"a.pdf": {}}}
	// Key differs but the reference name matches.
	refs := []corpus.Record{
		{Key: "999", Name: "Other Co", Year: "1996", DataDate: "07/15/1996"},
		{Key: "999", Name: "Acme Inc", Year: "1996", DataDate: "07/15/1996"},
	}

	_, err = NewEngine(st, opener, refs, verifyConfig()).Run(ctx)
	require.NoError(t, err)

	recs, err := st.Verifications(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "1", recs[0].ReferenceIndex)
}

func TestEngine_UnreadableArtifactSkipped(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	_, err := st.AppendMetadata(ctx, metaRow("bad.pdf"))
	require.NoError(t, err)
	_, err = st.AppendMetadata(ctx, metaRow("good.pdf"))
	require.NoError(t, err)

	opener := &fakeOpener{
		docs:    map[string]*fakeDoc{"good.pdf": {}},
		openErr: map[string]error{"bad.pdf": extract.ErrUnreadable},
	}

	stats, err := NewEngine(st, opener, nil, verifyConfig()).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, RunStats{Scanned: 2, Opened: 1}, stats)

	recs, err := st.Verifications(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestEngine_MidReadUnreadableSkipsRecord(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	_, err := st.AppendMetadata(ctx, metaRow("a.pdf"))
	require.NoError(t, err)

	opener := &fakeOpener{docs: map[string]*fakeDoc{
		"a.pdf": {pages: [][]string{{"annual report"}}, readErr: extract.ErrUnreadable},
	}}

	stats, err := NewEngine(st, opener, nil, verifyConfig()).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, RunStats{Scanned: 1, Opened: 1}, stats)

	recs, err := st.Verifications(ctx)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestEngine_SkipsRowsWithoutDiskPath(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	row := metaRow("")
	row.FileName = "unlocated.pdf"
	_, err := st.AppendMetadata(ctx, row)
	require.NoError(t, err)

	opener := &fakeOpener{}
	stats, err := NewEngine(st, opener, nil, verifyConfig()).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, RunStats{}, stats)
}
