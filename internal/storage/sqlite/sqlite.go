// Package sqlitestorage keeps the placement sidecar in a local SQLite file.
// It wraps the GORM backend; the only SQLite-specific concerns are opening the file
// and closing it again.
package sqlitestorage

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/stegonotes/stegonotes/internal/database"
	gormstorage "github.com/stegonotes/stegonotes/internal/storage/gorm"
	"gorm.io/gorm"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	// Path of the database file; database.MemoryPath keeps it in memory.
	Path          string
	FlushInterval time.Duration
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	db  *gorm.DB
	cfg Config
}

// New opens the database file and builds the backend. Init migrates it.
func New(cfg Config, logger *slog.Logger) (*Backend, error) {
	db, err := database.OpenSQLite(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite DB %q: %w", cfg.Path, err)
	}

	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{
			DB:            db,
			Logger:        logger,
			FlushInterval: cfg.FlushInterval,
		}),
		db:  db,
		cfg: cfg,
	}, nil
}

// Close flushes the embedded backend and closes the file.
func (b *Backend) Close() error {
	err := b.Backend.Close()

	sqlDB, dbErr := b.db.DB()
	if dbErr == nil {
		dbErr = sqlDB.Close()
	}
	return errors.Join(err, dbErr)
}

// Backup writes a consistent copy of the database to path.
func (b *Backend) Backup(path string) error {
	return database.DumpToDisk(b.db, path)
}
