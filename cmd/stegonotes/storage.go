package main

import (
	"fmt"
	"log/slog"

	"github.com/rs/zerolog"
	"github.com/stegonotes/stegonotes/internal/config"
	"github.com/stegonotes/stegonotes/internal/database"
	"github.com/stegonotes/stegonotes/internal/storage"
	gormstorage "github.com/stegonotes/stegonotes/internal/storage/gorm"
	"github.com/stegonotes/stegonotes/internal/storage/memory"
	sqlitestorage "github.com/stegonotes/stegonotes/internal/storage/sqlite"
)

// createStorageBackend builds the placement sidecar named by storage.type. The returned
// cleanup releases whatever the backend does not own itself.
func createStorageBackend(storageCfg config.StorageConfig, zlog zerolog.Logger, log *slog.Logger) (storage.Backend, func() error, error) {
	noop := func() error { return nil }

	switch storageCfg.Type {
	case "postgres":
		dbManager := database.NewManager(zlog, storageCfg)
		if err := dbManager.Connect(); err != nil {
			return nil, noop, err
		}
		if err := dbManager.Setup(); err != nil {
			dbManager.Close()
			return nil, noop, err
		}
		log.Info("Postgres storage backend initialized", "fallback", dbManager.ShouldSaveLocal)
		return gormstorage.New(gormstorage.Dependencies{
			DB:            dbManager.DB,
			Logger:        log,
			FlushInterval: storageCfg.FlushInterval,
		}), dbManager.Close, nil

	case "sqlite":
		backend, err := sqlitestorage.New(sqlitestorage.Config{
			Path:          storageCfg.SQLite.Path,
			FlushInterval: storageCfg.FlushInterval,
		}, log)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		log.Info("SQLite storage backend initialized", "path", storageCfg.SQLite.Path)
		return backend, noop, nil

	default:
		log.Info("Memory storage backend initialized")
		return memory.New(), noop, nil
	}
}
