// Package document defines how stegonotes talks to the documents it hides payloads in.
// Hosts render and write documents; stegonotes only needs page text and an invisible draw call.
package document

import (
	"errors"
	"regexp"

	"github.com/stegonotes/stegonotes/internal/codec"
)

// Boundary (WORD JOINER) is written after every persisted run. It is invisible but outside
// the codec alphabet, so two secrets drawn at the same spot stay two separate runs.
const Boundary = '\u2060'

// ErrPageRange is returned for page numbers outside 1..NumPages.
var ErrPageRange = errors.New("page out of range")

// Source exposes the extractable text of a document, page by page (1-based).
type Source interface {
	NumPages() int
	PageText(page int) (string, error)
}

// Sink draws an invisible run on a page at the given position.
type Sink interface {
	DrawInvisible(page int, x, y float64, run string) error
}

// IsInvisible reports whether r is a codec symbol or the Boundary.
func IsInvisible(r rune) bool {
	return r == Boundary || codec.IsSymbol(r)
}

// persistedRun is a symbol run closed by a Boundary, the shape every Sink writes.
var persistedRun = regexp.MustCompile(`[\x{200B}\x{200C}\x{200D}]+\x{2060}`)

// StripRuns removes the hidden runs a Sink wrote into s: symbol runs that decode and
// end in a Boundary, together with that Boundary. Joiners that belong to the text
// itself (ZWNJ in Persian words, ZWJ in emoji sequences, a lone WORD JOINER) are kept.
func StripRuns(s string) string {
	return persistedRun.ReplaceAllStringFunc(s, func(m string) string {
		run := m[:len(m)-len(string(Boundary))]
		if _, err := codec.DecodeBytes(run); err != nil {
			return m
		}
		return ""
	})
}
