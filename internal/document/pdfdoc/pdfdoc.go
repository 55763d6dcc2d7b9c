// Package pdfdoc reads page text out of PDF files. It is read-only: drawing into a PDF
// is left to the host application.
package pdfdoc

import (
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
	"github.com/stegonotes/stegonotes/internal/document"
)

// Doc is an open PDF file.
type Doc struct {
	f *os.File
	r *pdf.Reader
}

var _ document.Source = (*Doc)(nil)

// Open opens the PDF at path. Close releases the file.
func Open(path string) (*Doc, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		if f != nil {
			f.Close()
		}
		return nil, fmt.Errorf("error opening pdf %s: %w", path, err)
	}
	return &Doc{f: f, r: r}, nil
}

func (d *Doc) NumPages() int {
	return d.r.NumPage()
}

// PageText returns the plain text of a page. Broken content streams come back as errors,
// never panics.
func (d *Doc) PageText(page int) (text string, err error) {
	if page < 1 || page > d.r.NumPage() {
		return "", fmt.Errorf("%w: %d of %d", document.ErrPageRange, page, d.r.NumPage())
	}

	p := d.r.Page(page)
	if p.V.IsNull() {
		return "", fmt.Errorf("page %d has no page object", page)
	}

	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("page %d: malformed content: %v", page, r)
		}
	}()
	return p.GetPlainText(nil)
}

func (d *Doc) Close() error {
	return d.f.Close()
}
