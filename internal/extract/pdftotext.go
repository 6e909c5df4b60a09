package extract

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"

	"github.com/rotisserie/eris"
)

// PdfToText opens PDFs via the pdftotext CLI tool. The full document is
// extracted once on Open; pages are the form-feed-separated segments of the
// output.
type PdfToText struct {
	binPath string
}

// NewPdfToText creates a PdfToText opener. If binPath is empty, "pdftotext"
// is used.
func NewPdfToText(binPath string) *PdfToText {
	if binPath == "" {
		binPath = "pdftotext"
	}
	return &PdfToText{binPath: binPath}
}

// Open runs pdftotext -layout on the given PDF. A non-zero exit or empty
// output maps to ErrUnreadable.
func (p *PdfToText) Open(ctx context.Context, path string) (Document, error) {
	cmd := exec.CommandContext(ctx, p.binPath, "-layout", path, "-")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, eris.Wrapf(ErrUnreadable, "pdftotext failed for %s: %s", path, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, eris.Wrapf(ErrUnreadable, "pdftotext produced no output for %s", path)
	}

	return &pagedDocument{pages: strings.Split(stdout.String(), "\f")}, nil
}

// pagedDocument iterates extracted pages, tokenizing each on newlines.
type pagedDocument struct {
	pages []string
	next  int
}

func (d *pagedDocument) NextPage(_ context.Context) ([]string, error) {
	if d.next >= len(d.pages) {
		return nil, io.EOF
	}
	page := d.pages[d.next]
	d.next++
	return strings.Split(page, "\n"), nil
}

func (d *pagedDocument) Close() error { return nil }
