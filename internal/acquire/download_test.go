package acquire

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDownloader(t *testing.T) (*Downloader, string) {
	t.Helper()
	dir := t.TempDir()
	d := NewDownloader(dir, 2*time.Second)
	d.poll = 10 * time.Millisecond
	return d, dir
}

func TestCompleteAndRename_SettledFile(t *testing.T) {
	d, dir := newTestDownloader(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bulk_download"), make([]byte, 2048), 0o644))

	size, err := d.CompleteAndRename(context.Background(), "1001_Acme-Corp_1995_1997_1")
	require.NoError(t, err)
	assert.Equal(t, 2.0, size)

	_, err = os.Stat(filepath.Join(dir, "1001_Acme-Corp_1995_1997_1.zip"))
	assert.NoError(t, err)
}

func TestCompleteAndRename_WaitsForProvisionalFile(t *testing.T) {
	d, dir := newTestDownloader(t)
	provisional := filepath.Join(dir, "bulk.crdownload")
	require.NoError(t, os.WriteFile(provisional, []byte("partial"), 0o644))

	go func() {
		time.Sleep(30 * time.Millisecond)
		_ = os.Rename(provisional, filepath.Join(dir, "bulk"))
	}()

	size, err := d.CompleteAndRename(context.Background(), "final")
	require.NoError(t, err)
	assert.Greater(t, size, 0.0)

	_, err = os.Stat(filepath.Join(dir, "final.zip"))
	assert.NoError(t, err)
}

func TestCompleteAndRename_BlankFilename(t *testing.T) {
	d, _ := newTestDownloader(t)

	size, err := d.CompleteAndRename(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 0.0, size)
}

func TestCompleteAndRename_EmptyDirectory(t *testing.T) {
	d, _ := newTestDownloader(t)

	size, err := d.CompleteAndRename(context.Background(), "name")
	require.NoError(t, err)
	assert.Equal(t, 0.0, size)
}

func TestCompleteAndRename_TimesOutOnStuckDownload(t *testing.T) {
	dir := t.TempDir()
	d := NewDownloader(dir, 30*time.Millisecond)
	d.poll = 10 * time.Millisecond
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stuck.tmp"), []byte("partial"), 0o644))

	_, err := d.CompleteAndRename(context.Background(), "name")
	assert.Error(t, err)
}
