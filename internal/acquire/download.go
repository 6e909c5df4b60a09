package acquire

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/arc-research/harvest-cli/internal/resilience"
)

// errInFlight marks a download that has not settled yet: the most recent
// file in the download directory still carries a provisional extension.
var errInFlight = eris.New("acquire: download still in flight")

// Downloader watches the browser's download directory for the bulk archive
// and settles it under its final name. The browser writes through a
// provisional file (.crdownload or .tmp) and renames it on completion.
type Downloader struct {
	dir     string
	timeout time.Duration
	poll    time.Duration
}

// NewDownloader creates a Downloader for the given directory with the given
// ceiling on waiting for a download to settle.
func NewDownloader(dir string, timeout time.Duration) *Downloader {
	return &Downloader{dir: dir, timeout: timeout, poll: 2 * time.Second}
}

// CompleteAndRename waits for the most recent file in the download directory
// to finish downloading, renames it to filename plus a .zip extension, and
// returns its size in kilobytes. A blank filename or an empty directory
// yields zero without error.
func (d *Downloader) CompleteAndRename(ctx context.Context, filename string) (float64, error) {
	if filename == "" {
		return 0, nil
	}

	attempts := int(d.timeout / d.poll)
	if attempts < 1 {
		attempts = 1
	}

	return resilience.DoVal(ctx, resilience.RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: d.poll,
		MaxBackoff:     d.poll,
		Multiplier:     1,
		ShouldRetry: func(err error) bool {
			return errors.Is(err, errInFlight)
		},
	}, func(context.Context) (float64, error) {
		return d.settle(filename)
	})
}

func (d *Downloader) settle(filename string) (float64, error) {
	latest, err := d.mostRecent()
	if err != nil {
		return 0, err
	}
	if latest == "" {
		return 0, nil
	}
	if strings.HasSuffix(latest, ".crdownload") || strings.HasSuffix(latest, ".tmp") {
		return 0, errInFlight
	}

	info, err := os.Stat(latest)
	if err != nil {
		return 0, eris.Wrap(err, "acquire: stat download")
	}
	dest := filepath.Join(d.dir, filename+".zip")
	if err := os.Rename(latest, dest); err != nil {
		return 0, eris.Wrap(err, "acquire: rename download")
	}
	return float64(info.Size()) / 1024, nil
}

// mostRecent returns the newest regular file in the download directory by
// modification time, or "" when the directory is empty.
func (d *Downloader) mostRecent() (string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return "", eris.Wrap(err, "acquire: read download directory")
	}

	var latest string
	var latestMod time.Time
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestMod) {
			latest = filepath.Join(d.dir, e.Name())
			latestMod = info.ModTime()
		}
	}
	return latest, nil
}
