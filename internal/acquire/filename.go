package acquire

import (
	"os"
	"path/filepath"
	"strings"
)

// GenFileName builds the archive name for one results page:
// "{key}_{name}_{oldestYear}_{newestYear}_{page}", spaces replaced with
// hyphens, with an "_altreport" suffix in search-all mode. Returns "" when
// no filing years were scraped, or when the archive already exists under
// dir, which suppresses the download for the page.
func GenFileName(dir string, dateValues []string, key, name, page string, altReport bool) string {
	if len(dateValues) == 0 {
		return ""
	}

	newest := dateValues[0]
	oldest := dateValues[len(dateValues)-1]
	filename := key + "_" + name + "_" + oldest + "_" + newest + "_" + page
	if altReport {
		filename += "_altreport"
	}
	filename = strings.ReplaceAll(filename, " ", "-")

	if _, err := os.Stat(filepath.Join(dir, filename+".zip")); err == nil {
		return ""
	}
	return filename
}
