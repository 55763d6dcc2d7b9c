package logging

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogFilePath(t *testing.T) {
	sessionStart := time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC)

	tests := []struct {
		name    string
		logsDir string
		want    string
	}{
		{
			name:    "basic path",
			logsDir: "logs",
			want:    filepath.Join("logs", "stegonotes.20260212_213836.log"),
		},
		{
			name:    "relative path with dot",
			logsDir: "./logs",
			want:    filepath.Join(".", "logs", "stegonotes.20260212_213836.log"),
		},
		{
			name:    "absolute path",
			logsDir: filepath.Join("/var", "log", "stegonotes"),
			want:    filepath.Join("/var", "log", "stegonotes", "stegonotes.20260212_213836.log"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LogFilePath(tt.logsDir, "stegonotes", sessionStart))
		})
	}
}

func TestZerologAdapter(t *testing.T) {
	tests := []struct {
		name  string
		log   func(*ZerologAdapter)
		level string
	}{
		{name: "debug", log: func(a *ZerologAdapter) { a.Debug("scan", "page", 2, "found", 1) }, level: "debug"},
		{name: "info", log: func(a *ZerologAdapter) { a.Info("scan", "page", 2, "found", 1) }, level: "info"},
		{name: "error", log: func(a *ZerologAdapter) { a.Error("scan", "page", 2, "found", 1) }, level: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			a := NewZerologAdapter(zerolog.New(&buf).Level(zerolog.DebugLevel))
			tt.log(a)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, "scan", entry["message"])
			assert.Equal(t, float64(2), entry["page"])
			assert.Equal(t, float64(1), entry["found"])
		})
	}
}

func TestToFields_SkipsBadPairs(t *testing.T) {
	fields := toFields([]any{"ok", 1, 42, "dropped", "dangling"})
	assert.Equal(t, map[string]any{"ok": 1}, fields)
}
