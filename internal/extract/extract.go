// Package extract turns an acquired artifact into a lazy sequence of pages
// of text tokens. The extraction backend itself (pdftotext) is a thin
// collaborator; callers only see the Opener and Document contracts.
package extract

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
)

// ErrUnreadable marks an artifact that cannot be opened as a paged
// document: malformed container, unreadable encoding, empty or corrupt
// file. Callers treat it as an expected, recoverable condition.
var ErrUnreadable = eris.New("extract: unreadable document")

// IsUnreadable reports whether err stems from an unreadable artifact.
func IsUnreadable(err error) bool {
	return errors.Is(err, ErrUnreadable)
}

// Opener opens an artifact on disk as a paged document.
type Opener interface {
	Open(ctx context.Context, path string) (Document, error)
}

// Document is a finite sequence of pages, each a token slice.
type Document interface {
	// NextPage returns the next page's tokens, or io.EOF after the last page.
	NextPage(ctx context.Context) ([]string, error)
	Close() error
}
