package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfg := `{
		"logLevel": "debug",
		"codec": { "utf8Text": true, "chunkSize": 512 },
		"scan": { "workers": 8 },
		"storage": { "type": "sqlite", "sqlite": { "path": "/tmp/notes.db" }, "flushInterval": "250ms" },
		"db": { "host": "10.0.0.1", "port": "5433" }
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(cfg), 0644))

	require.NoError(t, Load(dir))

	assert.Equal(t, "debug", GetString("logLevel"))
	assert.Equal(t, CodecConfig{UTF8Text: true, ChunkSize: 512}, GetCodecConfig())
	assert.Equal(t, 8, GetScanConfig().Workers)
	assert.Equal(t, 50.0, GetScanConfig().DefaultX, "unset keys keep defaults")

	storage := GetStorageConfig()
	assert.Equal(t, "sqlite", storage.Type)
	assert.Equal(t, "/tmp/notes.db", storage.SQLite.Path)
	assert.Equal(t, 250*time.Millisecond, storage.FlushInterval)
	assert.Equal(t, "10.0.0.1", storage.DB.Host)
	assert.Equal(t, "5433", storage.DB.Port)
	assert.Equal(t, "postgres", storage.DB.Username)
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`{}`), 0644))
	require.NoError(t, Load(dir))

	assert.Equal(t, "info", GetString("logLevel"))
	assert.Equal(t, "./logs", GetString("logsDir"))
	assert.Equal(t, CodecConfig{UTF8Text: false, ChunkSize: 3000}, GetCodecConfig())
	assert.Equal(t, ScanConfig{Workers: 4, DefaultX: 50, DefaultY: 50, Spacing: 24}, GetScanConfig())

	storage := GetStorageConfig()
	assert.Equal(t, "memory", storage.Type)
	assert.Equal(t, "./stegonotes.db", storage.SQLite.Path)
	assert.Equal(t, 2*time.Second, storage.FlushInterval)
	assert.Equal(t, DBConfig{Host: "localhost", Port: "5432", Username: "postgres", Password: "postgres", Database: "stegonotes"}, storage.DB)

	assert.Equal(t, InfluxConfig{
		Enabled:    false,
		URL:        "http://localhost:8086",
		Org:        "stegonotes",
		Bucket:     "stegonotes",
		BackupPath: "./logs/influx_backup.log.gz",
	}, GetInfluxConfig())
	assert.Equal(t, GraylogConfig{Enabled: false, Address: "localhost:12201"}, GetGraylogConfig())
}

func TestLoad_MissingFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load("/nonexistent/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")

	assert.Equal(t, 3000, GetCodecConfig().ChunkSize, "defaults apply without a file")
}

func TestLoad_InvalidJSON(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`{not json`), 0644))

	assert.Error(t, Load(dir))
}

func TestGetters(t *testing.T) {
	t.Cleanup(viper.Reset)

	viper.Set("s", "value")
	viper.Set("i", 42)
	viper.Set("b", true)
	viper.Set("f", 1.5)
	viper.Set("d", "3m")

	assert.Equal(t, "value", GetString("s"))
	assert.Equal(t, 42, GetInt("i"))
	assert.True(t, GetBool("b"))
	assert.Equal(t, 1.5, GetFloat64("f"))
	assert.Equal(t, 3*time.Minute, GetDuration("d"))

	assert.Equal(t, "", GetString("missing"))
	assert.Equal(t, 0, GetInt("missing"))
	assert.False(t, GetBool("missing"))
}
