// Package marker holds the in-memory registry of hidden payload placements
// for one open document, keyed by page number.
package marker

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/stegonotes/stegonotes/internal/chunk"
	"github.com/stegonotes/stegonotes/internal/codec"
	"github.com/stegonotes/stegonotes/pkg/core"
)

var (
	// ErrInvalidPage is returned for page numbers below 1.
	ErrInvalidPage = errors.New("page must be at least 1")
	// ErrNotFound is returned when a page has no marker at the requested index.
	ErrNotFound = errors.New("marker not found")
	// ErrUndecodable wraps every failure to reveal a marker.
	ErrUndecodable = errors.New("could not decode")
)

// Option configures a Store.
type Option func(*Store)

// WithChunkSize sets the piece size used to pack audio payloads.
func WithChunkSize(size int) Option {
	return func(s *Store) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithUTF8Text encodes text notes as UTF-8 bytes instead of one group per
// Latin-1 character, so notes outside 0-255 can be placed.
// ASCII notes encode identically either way.
func WithUTF8Text() Option {
	return func(s *Store) {
		s.utf8Text = true
	}
}

// Store maps page numbers to markers in creation or discovery order.
// Markers may coincide; nothing is deduplicated.
type Store struct {
	mu    sync.RWMutex
	pages map[int][]core.Marker

	chunkSize int
	utf8Text  bool
}

// NewStore creates an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		pages:     make(map[int][]core.Marker),
		chunkSize: chunk.DefaultSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Encode produces the secret for a raw payload of the given type without storing it.
func (s *Store) Encode(t core.PayloadType, raw string) (string, error) {
	switch t {
	case core.Text:
		if s.utf8Text {
			return codec.EncodeBytes([]byte(raw)), nil
		}
		return codec.Encode(raw)
	case core.Image:
		return codec.Encode(raw)
	case core.Audio:
		return chunk.Pack(raw, s.chunkSize)
	default:
		return "", fmt.Errorf("unknown payload type: %d", uint8(t))
	}
}

// Place encodes raw according to t, appends the marker to its page and returns it.
// Nothing is stored when encoding fails.
func (s *Store) Place(page int, x, y float64, t core.PayloadType, raw string) (core.Marker, error) {
	if page < 1 {
		return core.Marker{}, fmt.Errorf("%w: got %d", ErrInvalidPage, page)
	}

	secret, err := s.Encode(t, raw)
	if err != nil {
		return core.Marker{}, fmt.Errorf("error encoding %s payload: %w", t, err)
	}

	m := core.Marker{Page: page, X: x, Y: y, Type: t, Secret: secret}
	s.Add(m)
	return m, nil
}

// Reveal decodes a marker's secret according to its type.
// Failures wrap ErrUndecodable together with the codec or chunk error.
func (s *Store) Reveal(m core.Marker) (core.Content, error) {
	var (
		value string
		err   error
	)

	switch m.Type {
	case core.Text:
		if s.utf8Text {
			var data []byte
			data, err = codec.DecodeBytes(m.Secret)
			value = string(data)
		} else {
			value, err = codec.Decode(m.Secret)
		}
	case core.Image:
		value, err = codec.Decode(m.Secret)
	case core.Audio:
		value, err = chunk.Unpack(m.Secret)
	default:
		err = fmt.Errorf("unknown payload type: %d", uint8(m.Type))
	}

	if err != nil {
		return core.Content{}, fmt.Errorf("%w: %s marker on page %d: %w", ErrUndecodable, m.Type, m.Page, err)
	}
	return core.Content{Type: m.Type, Value: value}, nil
}

// Add appends an already encoded marker to its page.
func (s *Store) Add(m core.Marker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[m.Page] = append(s.pages[m.Page], m)
}

// AddAll appends markers to a page in order.
func (s *Store) AddAll(page int, markers []core.Marker) {
	if len(markers) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[page] = append(s.pages[page], markers...)
}

// At returns the marker at index on page.
func (s *Store) At(page, index int) (core.Marker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	markers := s.pages[page]
	if index < 0 || index >= len(markers) {
		return core.Marker{}, fmt.Errorf("%w: page %d index %d", ErrNotFound, page, index)
	}
	return markers[index], nil
}

// Move repositions the marker at index on page.
func (s *Store) Move(page, index int, x, y float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	markers := s.pages[page]
	if index < 0 || index >= len(markers) {
		return fmt.Errorf("%w: page %d index %d", ErrNotFound, page, index)
	}
	markers[index].X = x
	markers[index].Y = y
	return nil
}

// Placements returns a copy of the markers on page, ready to be drawn.
func (s *Store) Placements(page int) []core.Marker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.pages[page])
}

// Pages returns the page numbers that hold at least one marker, ascending.
func (s *Store) Pages() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pages := make([]int, 0, len(s.pages))
	for page, markers := range s.pages {
		if len(markers) > 0 {
			pages = append(pages, page)
		}
	}
	slices.Sort(pages)
	return pages
}

// Len returns the total number of markers.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, markers := range s.pages {
		n += len(markers)
	}
	return n
}

// RemoveAll clears the markers of one page.
func (s *Store) RemoveAll(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pages, page)
}

// Reset clears every page, as when a new document is loaded.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages = make(map[int][]core.Marker)
}
