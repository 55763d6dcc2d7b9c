// Package textdoc is a paged plain-text document. Pages are separated by form feeds.
//
// Positions are text positions: y selects the line and x the column counted in visible
// runes, so an insert never lands inside an existing invisible run.
package textdoc

import (
	"fmt"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/stegonotes/stegonotes/internal/codec"
	"github.com/stegonotes/stegonotes/internal/document"
)

// PageBreak separates pages.
const PageBreak = "\f"

// Doc is an in-memory paged text document. It is not safe for concurrent writes.
type Doc struct {
	pages []string
}

var (
	_ document.Source = (*Doc)(nil)
	_ document.Sink   = (*Doc)(nil)
)

// Parse splits s into pages. The empty string is a single empty page.
func Parse(s string) *Doc {
	return &Doc{pages: strings.Split(s, PageBreak)}
}

// Open reads a document from disk.
func Open(path string) (*Doc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data)), nil
}

// String joins the pages back into the on-disk form.
func (d *Doc) String() string {
	return strings.Join(d.pages, PageBreak)
}

// Save writes the document to path.
func (d *Doc) Save(path string) error {
	return os.WriteFile(path, []byte(d.String()), 0o644)
}

// Clean returns a copy of the document with the hidden runs it carries removed, ready
// to have the current markers drawn into it. Other invisible text is left alone.
func (d *Doc) Clean() *Doc {
	pages := make([]string, len(d.pages))
	for i, p := range d.pages {
		pages[i] = document.StripRuns(p)
	}
	return &Doc{pages: pages}
}

func (d *Doc) NumPages() int {
	return len(d.pages)
}

func (d *Doc) PageText(page int) (string, error) {
	if page < 1 || page > len(d.pages) {
		return "", fmt.Errorf("%w: %d of %d", document.ErrPageRange, page, len(d.pages))
	}
	return d.pages[page-1], nil
}

// DrawInvisible inserts run followed by document.Boundary right after the x-th visible
// rune of line y. Positions past the end clamp to the last line and its last visible
// rune, so drawing never adds lines and never lands behind trailing invisible text.
// An empty run draws nothing.
func (d *Doc) DrawInvisible(page int, x, y float64, run string) error {
	if page < 1 || page > len(d.pages) {
		return fmt.Errorf("%w: %d of %d", document.ErrPageRange, page, len(d.pages))
	}
	for _, r := range run {
		if !codec.IsSymbol(r) {
			return fmt.Errorf("refusing to draw non-symbol rune %q", r)
		}
	}
	if run == "" {
		return nil
	}

	lines := strings.Split(d.pages[page-1], "\n")
	row := min(clamp(y), len(lines)-1)

	line := lines[row]
	at := visibleOffset(line, clamp(x))
	lines[row] = line[:at] + run + string(document.Boundary) + line[at:]

	d.pages[page-1] = strings.Join(lines, "\n")
	return nil
}

// visibleOffset returns the byte offset just after the col-th visible rune of line,
// or just after the last visible rune when the line is shorter.
func visibleOffset(line string, col int) int {
	if col == 0 {
		return 0
	}
	seen, end := 0, 0
	for i, r := range line {
		if document.IsInvisible(r) {
			continue
		}
		seen++
		end = i + utf8.RuneLen(r)
		if seen == col {
			break
		}
	}
	return end
}

func clamp(v float64) int {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(v)
}
