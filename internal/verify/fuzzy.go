// Package verify fuzzy-checks extracted artifacts against the reference
// corpus: document type, entity name, and filing year are matched per page,
// and each verified artifact is resolved to a unique corpus row.
package verify

import (
	"unicode/utf8"

	"github.com/antzucaro/matchr"
	"golang.org/x/text/unicode/norm"
)

// Ratio scores the similarity of two strings on a 0..100 scale: Levenshtein
// distance normalized by the longer string's rune length. Inputs are
// NFKC-normalized first so ligatures and width variants common in extracted
// PDF text compare equal. Two empty strings score 100.
func Ratio(a, b string) float64 {
	a = norm.NFKC.String(a)
	b = norm.NFKC.String(b)

	longest := utf8.RuneCountInString(a)
	if lb := utf8.RuneCountInString(b); lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 100
	}

	d := matchr.Levenshtein(a, b)
	return (1 - float64(d)/float64(longest)) * 100
}
