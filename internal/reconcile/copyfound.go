package reconcile

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/arc-research/harvest-cli/internal/config"
)

// CopyFound copies every extracted folder belonging to a found firm into
// the matched directory. Folders already present there are left alone.
// Returns the number of folders copied.
func CopyFound(found []ReportRow, cfg config.ReconcileConfig) (int, error) {
	keys := make(map[string]bool, len(found))
	for _, r := range found {
		keys[r.EntityKey] = true
	}

	if err := os.MkdirAll(cfg.MatchedDir, 0o755); err != nil {
		return 0, eris.Wrap(err, "reconcile: create matched directory")
	}

	folders, err := os.ReadDir(cfg.FoldersDir)
	if err != nil {
		return 0, eris.Wrap(err, "reconcile: read folders directory")
	}

	copied := 0
	for _, folder := range folders {
		if !folder.IsDir() {
			continue
		}
		if !keys[strings.Split(folder.Name(), "_")[0]] {
			continue
		}

		dest := filepath.Join(cfg.MatchedDir, folder.Name())
		if _, err := os.Stat(dest); err == nil {
			continue
		}
		src := filepath.Join(cfg.FoldersDir, folder.Name())
		if err := os.CopyFS(dest, os.DirFS(src)); err != nil {
			return copied, eris.Wrapf(err, "reconcile: copy %s", folder.Name())
		}
		copied++
	}
	return copied, nil
}
