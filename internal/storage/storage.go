// Package storage defines the placement sidecar: where marker positions and scan
// history live outside the document.
package storage

import "github.com/stegonotes/stegonotes/pkg/core"

// Backend is the interface all storage implementations must satisfy.
// docKey identifies a document; hosts use its path or another stable name.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// SavePlacements replaces the recorded placements of one page.
	SavePlacements(docKey string, page int, markers []core.Marker) error
	// LoadPlacements returns the recorded placements of one page, by ordinal.
	LoadPlacements(docKey string, page int) ([]core.Placement, error)

	// RecordScan stores the outcome of a recovery pass. It may be buffered.
	RecordScan(docKey string, summary core.ScanSummary) error
}
