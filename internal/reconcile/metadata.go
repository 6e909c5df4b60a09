package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/arc-research/harvest-cli/internal/config"
	"github.com/arc-research/harvest-cli/internal/model"
	"github.com/arc-research/harvest-cli/internal/tracker"
)

// BuildMetadata joins the acquisition logs to files on disk. For every
// non-terminal attempt it pairs the entity's artifact records with the
// extracted file carrying the matching row number and appends a metadata
// row. Each extracted file is claimed at most once across the whole pass.
func BuildMetadata(ctx context.Context, store tracker.Store, cfg config.ReconcileConfig) error {
	attempts, err := store.Attempts(ctx)
	if err != nil {
		return err
	}
	artifacts, err := store.Artifacts(ctx)
	if err != nil {
		return err
	}

	used := make(map[string]bool)
	for _, at := range attempts {
		if at.PageToken.Terminal() {
			continue
		}
		for _, ar := range artifacts {
			if ar.EntityKey != at.EntityKey {
				continue
			}

			name, path, err := locateFile(cfg.FoldersDir, at.EntityKey, at.PageToken, ar.RowNumber)
			if err != nil {
				return err
			}
			if name == "" || used[name] {
				continue
			}
			used[name] = true

			if _, err := store.AppendMetadata(ctx, model.MetadataRow{
				FileName:      name,
				EntityKey:     at.EntityKey,
				ReferenceName: at.DisplayName,
				SourceName:    ar.DisplayName,
				Year:          lastFour(ar.FilingDate),
				Date:          ar.FilingDate,
				DocType:       ar.DocType,
				DiskPath:      path,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// locateFile finds the extracted file for one artifact. Folder names encode
// the entity key and download page ("{key}_{name}_{years}_{page}", with an
// optional trailing "altreport" segment); within a matching folder, the file
// whose stem ends in the artifact's row number is the one. Returns empty
// strings when nothing matches.
func locateFile(foldersDir, key string, page model.PageToken, rowNumber int) (string, string, error) {
	folders, err := os.ReadDir(foldersDir)
	if err != nil {
		return "", "", err
	}
	row := strconv.Itoa(rowNumber)

	for _, folder := range folders {
		if !folder.IsDir() {
			continue
		}
		parts := strings.Split(folder.Name(), "_")

		folderPage := parts[len(parts)-1]
		if folderPage == "altreport" && len(parts) > 1 {
			folderPage = parts[len(parts)-2]
		}
		if parts[0] != key || folderPage != string(page) {
			continue
		}

		folderPath := filepath.Join(foldersDir, folder.Name())
		files, err := os.ReadDir(folderPath)
		if err != nil {
			return "", "", err
		}
		for _, f := range files {
			stem := strings.TrimSpace(f.Name())
			if ext := filepath.Ext(stem); ext != "" {
				stem = strings.TrimSpace(stem[:len(stem)-len(ext)])
			}
			if stem == "" {
				continue
			}
			if stem[len(stem)-1:] == row {
				return f.Name(), filepath.Join(folderPath, f.Name()), nil
			}
		}
	}
	return "", "", nil
}

// lastFour returns the year portion of a filing date, its last four
// characters.
func lastFour(s string) string {
	if len(s) < 4 {
		return s
	}
	return s[len(s)-4:]
}
