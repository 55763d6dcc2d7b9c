package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stegonotes/stegonotes/internal/config"
	"github.com/stegonotes/stegonotes/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLite_Memory(t *testing.T) {
	db, err := OpenSQLite(MemoryPath)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	assert.True(t, db.Migrator().HasTable(&model.Placement{}))
	assert.True(t, db.Migrator().HasTable(&model.ScanRecord{}))
}

func TestOpenSQLite_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sidecar.db")

	db, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	require.NoError(t, db.Create(&model.Placement{DocumentKey: "a", Page: 1, Type: "text"}).Error)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	var count int64
	require.NoError(t, reopened.Model(&model.Placement{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDumpToDisk(t *testing.T) {
	db, err := OpenSQLite(MemoryPath)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	require.NoError(t, db.Create(&model.Placement{DocumentKey: "a", Page: 1, Type: "text"}).Error)

	path := filepath.Join(t.TempDir(), "dump.db")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))
	require.NoError(t, DumpToDisk(db, path))

	dumped, err := OpenSQLite(path)
	require.NoError(t, err)
	var count int64
	require.NoError(t, dumped.Model(&model.Placement{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	assert.Error(t, DumpToDisk(db, ""))
}

func TestManager_FallsBackToSQLite(t *testing.T) {
	cfg := config.StorageConfig{
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "fallback.db")},
		DB: config.DBConfig{
			Host:     "127.0.0.1",
			Port:     "1",
			Username: "nobody",
			Password: "nothing",
			Database: "none",
		},
	}

	m := NewManager(zerolog.Nop(), cfg)
	require.NoError(t, m.Connect())
	t.Cleanup(func() { m.Close() })

	assert.True(t, m.IsValid)
	assert.True(t, m.ShouldSaveLocal)
	assert.Equal(t, "sqlite", m.DB.Dialector.Name())

	require.NoError(t, m.Setup())
	assert.True(t, m.DB.Migrator().HasTable(&model.Placement{}))
}

func TestManager_SetupWithoutConnect(t *testing.T) {
	m := NewManager(zerolog.Nop(), config.StorageConfig{})
	assert.Error(t, m.Setup())
	assert.NoError(t, m.Close())
}
