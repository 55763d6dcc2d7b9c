// Package session owns the markers of one open document: it loads them from the
// document text, tracks edits and persists them back through a Sink.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/stegonotes/stegonotes/internal/document"
	"github.com/stegonotes/stegonotes/internal/marker"
	"github.com/stegonotes/stegonotes/internal/scanner"
	"github.com/stegonotes/stegonotes/internal/storage"
	"github.com/stegonotes/stegonotes/pkg/core"
)

// ErrNoDocument is returned by operations that need a loaded document.
var ErrNoDocument = errors.New("no document loaded")

// Reporter receives the outcome of every scan.
type Reporter interface {
	WriteScanReport(ctx context.Context, docKey string, s core.ScanSummary) error
}

// Dependencies holds everything a Session needs. Backend and Reporter are optional.
type Dependencies struct {
	Store    *marker.Store
	Scanner  *scanner.Scanner
	Backend  storage.Backend
	Reporter Reporter
	Logger   *slog.Logger
}

// Session is the explicit owner of one document's marker store.
type Session struct {
	deps Dependencies
	log  *slog.Logger

	// current mirrors docKey so Document never waits on mu; log handlers call it.
	current atomic.Value

	mu      sync.RWMutex
	docKey  string
	source  document.Source
	cleared map[int]bool
}

// New creates a Session with nothing loaded.
func New(deps Dependencies) *Session {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	s := &Session{
		deps:    deps,
		log:     log,
		cleared: make(map[int]bool),
	}
	s.current.Store("")
	return s
}

// Document returns the key of the loaded document, or "".
func (s *Session) Document() string {
	return s.current.Load().(string)
}

// Source returns the loaded document.
func (s *Session) Source() document.Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// Store returns the marker store.
func (s *Session) Store() *marker.Store {
	return s.deps.Store
}

// Load replaces the current document: the store is reset, src is scanned and recorded
// positions are restored from the backend. Sidecar and reporter failures are logged only.
func (s *Session) Load(ctx context.Context, docKey string, src document.Source) (scanner.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deps.Store.Reset()
	s.docKey = ""
	s.current.Store("")
	s.source = nil
	s.cleared = make(map[int]bool)

	report, err := s.deps.Scanner.ScanDocument(ctx, src, s.deps.Store)
	if err != nil {
		s.deps.Store.Reset()
		return report, err
	}
	s.docKey = docKey
	s.current.Store(docKey)
	s.source = src

	if s.deps.Backend != nil {
		s.restorePositions()
		if err := s.deps.Backend.RecordScan(docKey, report.Summary()); err != nil {
			s.log.Warn("could not record scan", "document", docKey, "error", err)
		}
	}
	if s.deps.Reporter != nil {
		if err := s.deps.Reporter.WriteScanReport(ctx, docKey, report.Summary()); err != nil {
			s.log.Warn("could not report scan", "document", docKey, "error", err)
		}
	}
	return report, nil
}

// restorePositions moves recovered markers to their recorded positions. Records are
// matched by secret digest; markers with the same digest are matched in page order.
func (s *Session) restorePositions() {
	for _, page := range s.deps.Store.Pages() {
		recorded, err := s.deps.Backend.LoadPlacements(s.docKey, page)
		if err != nil {
			s.log.Warn("could not load placements", "page", page, "error", err)
			continue
		}
		if len(recorded) == 0 {
			continue
		}

		byDigest := make(map[string][]core.Placement, len(recorded))
		for _, p := range recorded {
			byDigest[p.Digest] = append(byDigest[p.Digest], p)
		}

		restored := 0
		for i, m := range s.deps.Store.Placements(page) {
			queue := byDigest[m.Digest()]
			if len(queue) == 0 {
				continue
			}
			p := queue[0]
			byDigest[m.Digest()] = queue[1:]
			if err := s.deps.Store.Move(page, i, p.X, p.Y); err == nil {
				restored++
			}
		}
		s.log.Debug("positions restored", "page", page, "restored", restored, "recorded", len(recorded))
	}
}

// Place hides raw on page at (x, y).
func (s *Session) Place(page int, x, y float64, t core.PayloadType, raw string) (core.Marker, error) {
	if s.Document() == "" {
		return core.Marker{}, ErrNoDocument
	}
	return s.deps.Store.Place(page, x, y, t, raw)
}

// Reveal decodes the marker at index on page.
func (s *Session) Reveal(page, index int) (core.Content, error) {
	m, err := s.deps.Store.At(page, index)
	if err != nil {
		return core.Content{}, err
	}
	return s.deps.Store.Reveal(m)
}

// Move repositions the marker at index on page.
func (s *Session) Move(page, index int, x, y float64) error {
	return s.deps.Store.Move(page, index, x, y)
}

// RemoveAll drops every marker of page. The page's recorded placements are cleared
// on the next Persist.
func (s *Session) RemoveAll(page int) {
	s.mu.Lock()
	s.cleared[page] = true
	s.mu.Unlock()
	s.deps.Store.RemoveAll(page)
}

// Placements returns the markers of page, ready to be drawn.
func (s *Session) Placements(page int) []core.Marker {
	return s.deps.Store.Placements(page)
}

// Persist draws every marker into sink and records the placements in the backend.
// The sink should hold the document without its earlier runs (see textdoc.Doc.Clean),
// otherwise recovered markers are drawn twice.
func (s *Session) Persist(ctx context.Context, sink document.Sink) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.docKey == "" {
		return 0, ErrNoDocument
	}

	drawn := 0
	for _, page := range s.deps.Store.Pages() {
		if err := ctx.Err(); err != nil {
			return drawn, err
		}

		markers := s.deps.Store.Placements(page)
		for i, m := range markers {
			if err := sink.DrawInvisible(page, m.X, m.Y, m.Secret); err != nil {
				return drawn, fmt.Errorf("error drawing marker %d on page %d: %w", i, page, err)
			}
			drawn++
		}

		if s.deps.Backend != nil {
			if err := s.deps.Backend.SavePlacements(s.docKey, page, markers); err != nil {
				return drawn, err
			}
		}
		delete(s.cleared, page)
	}

	if s.deps.Backend != nil {
		for page := range s.cleared {
			if err := s.deps.Backend.SavePlacements(s.docKey, page, nil); err != nil {
				return drawn, err
			}
		}
	}
	s.cleared = make(map[int]bool)

	s.log.Info("document persisted", "document", s.docKey, "markers", drawn)
	return drawn, nil
}
