package acquire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSizeKB(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"plain kb", "482 KB", 482},
		{"fractional mb", "1.2 MB", 1200},
		{"gb", "2 GB", 2_000_000},
		{"small kb", "3 KB", 3},
		{"empty", "", 0},
		{"unit only", "KB", 0},
		{"garbage", "n/a", 0},
		{"blank cell", " ", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSizeKB(tt.text))
		})
	}
}

func TestFilingYear(t *testing.T) {
	assert.Equal(t, "1996", filingYear("07/15/1996"))
	assert.Equal(t, "2003", filingYear("2003"))
	assert.Equal(t, "96", filingYear("96"))
	assert.Equal(t, "", filingYear(""))
}
