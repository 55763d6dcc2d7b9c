// Package gormstorage implements storage.Backend on any GORM database.
// Placements are written synchronously; scan records go through a queue that a
// writer goroutine flushes every FlushInterval and on Close.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/stegonotes/stegonotes/internal/database"
	"github.com/stegonotes/stegonotes/internal/model"
	"github.com/stegonotes/stegonotes/internal/model/convert"
	"github.com/stegonotes/stegonotes/internal/queue"
	"github.com/stegonotes/stegonotes/pkg/core"
	"gorm.io/gorm"
)

// DefaultFlushInterval is used when Dependencies.FlushInterval is not set.
const DefaultFlushInterval = 2 * time.Second

const flushBatch = 500

// ErrClosed is returned by writes after Close.
var ErrClosed = errors.New("storage backend closed")

// Dependencies holds everything the backend needs.
type Dependencies struct {
	DB            *gorm.DB
	Logger        *slog.Logger
	FlushInterval time.Duration
	// Now stamps scan records; time.Now when nil.
	Now func() time.Time
}

// Backend stores placements and scans through GORM.
type Backend struct {
	deps  Dependencies
	log   *slog.Logger
	scans *queue.Queue[model.ScanRecord]

	mu       sync.Mutex
	closed   bool
	stopChan chan struct{}
	done     chan struct{}
}

// New creates a GORM backend. Init must be called before use.
func New(deps Dependencies) *Backend {
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = DefaultFlushInterval
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Backend{
		deps:  deps,
		log:   log.With("component", "gormstorage"),
		scans: queue.New[model.ScanRecord](),
	}
}

// Init migrates the schema and starts the scan writer.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return errors.New("gormstorage: no database")
	}
	if err := database.Migrate(b.deps.DB); err != nil {
		return err
	}

	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})
	go b.writeLoop()
	return nil
}

// Close stops the writer and flushes queued scans. It does not close the database.
func (b *Backend) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	if b.stopChan != nil {
		close(b.stopChan)
		<-b.done
	}
	return b.Flush()
}

func (b *Backend) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *Backend) SavePlacements(docKey string, page int, markers []core.Marker) error {
	if b.isClosed() {
		return ErrClosed
	}
	rows := convert.MarkersToPlacements(docKey, page, markers)

	err := b.deps.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_key = ? AND page = ?", docKey, page).Delete(&model.Placement{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return fmt.Errorf("error saving placements of %s page %d: %w", docKey, page, err)
	}
	return nil
}

func (b *Backend) LoadPlacements(docKey string, page int) ([]core.Placement, error) {
	var rows []model.Placement
	err := b.deps.DB.
		Where("document_key = ? AND page = ?", docKey, page).
		Order("ordinal").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("error loading placements of %s page %d: %w", docKey, page, err)
	}

	out := make([]core.Placement, 0, len(rows))
	for _, r := range rows {
		p, err := convert.PlacementToCore(r)
		if err != nil {
			b.log.Warn("skipping stored placement", "error", err)
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// RecordScan queues the scan; it reaches the database on the next flush.
func (b *Backend) RecordScan(docKey string, summary core.ScanSummary) error {
	if b.isClosed() {
		return ErrClosed
	}
	b.scans.Push(convert.ScanSummaryToModel(docKey, b.deps.Now(), summary))
	return nil
}

// Scans returns the stored scans of a document, oldest first. Queued scans are not included.
func (b *Backend) Scans(docKey string) ([]core.ScanSummary, error) {
	var rows []model.ScanRecord
	if err := b.deps.DB.Where("document_key = ?", docKey).Order("time, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]core.ScanSummary, 0, len(rows))
	for _, r := range rows {
		s, err := convert.ScanRecordToSummary(r)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Pending returns the number of queued scans.
func (b *Backend) Pending() int {
	return b.scans.Len()
}

// Flush writes every queued scan. Rows that fail to insert are put back.
func (b *Backend) Flush() error {
	for !b.scans.Empty() {
		batch := b.scans.Drain(flushBatch)
		if err := b.deps.DB.Create(&batch).Error; err != nil {
			b.scans.Push(batch...)
			return fmt.Errorf("error writing %d scan records: %w", len(batch), err)
		}
		b.log.Debug("scan records written", "count", len(batch))
	}
	return nil
}

func (b *Backend) writeLoop() {
	defer close(b.done)
	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.Flush(); err != nil {
				b.log.Error("flush failed", "error", err)
			}
		}
	}
}
