// Package memory implements storage.Backend in process memory. Nothing survives a restart;
// it is the default when no sidecar database is configured.
package memory

import (
	"slices"
	"sync"

	"github.com/stegonotes/stegonotes/pkg/core"
)

type pageKey struct {
	doc  string
	page int
}

// Backend keeps placements and scans in maps.
type Backend struct {
	mu         sync.RWMutex
	placements map[pageKey][]core.Placement
	scans      map[string][]core.ScanSummary
}

// New creates an empty memory backend.
func New() *Backend {
	return &Backend{
		placements: make(map[pageKey][]core.Placement),
		scans:      make(map[string][]core.ScanSummary),
	}
}

func (b *Backend) Init() error {
	return nil
}

func (b *Backend) Close() error {
	return nil
}

func (b *Backend) SavePlacements(docKey string, page int, markers []core.Marker) error {
	rows := make([]core.Placement, 0, len(markers))
	for i, m := range markers {
		rows = append(rows, core.Placement{
			Page:    page,
			Ordinal: i,
			X:       m.X,
			Y:       m.Y,
			Type:    m.Type,
			Digest:  m.Digest(),
		})
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	key := pageKey{docKey, page}
	if len(rows) == 0 {
		delete(b.placements, key)
		return nil
	}
	b.placements[key] = rows
	return nil
}

func (b *Backend) LoadPlacements(docKey string, page int) ([]core.Placement, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.placements[pageKey{docKey, page}]), nil
}

func (b *Backend) RecordScan(docKey string, summary core.ScanSummary) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scans[docKey] = append(b.scans[docKey], summary)
	return nil
}

// Scans returns the recorded scans of a document, oldest first.
func (b *Backend) Scans(docKey string) []core.ScanSummary {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.scans[docKey])
}
