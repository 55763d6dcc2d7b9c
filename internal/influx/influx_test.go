package influx

import (
	"bufio"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stegonotes/stegonotes/internal/config"
	"github.com/stegonotes/stegonotes/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unreachableConfig(t *testing.T) config.InfluxConfig {
	return config.InfluxConfig{
		Enabled:    true,
		URL:        "http://127.0.0.1:1",
		Org:        "stegonotes",
		Bucket:     "stegonotes",
		BackupPath: filepath.Join(t.TempDir(), "influx_backup.log.gz"),
	}
}

func readBackup(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer gz.Close()

	var lines []string
	sc := bufio.NewScanner(gz)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.NoError(t, sc.Err())
	return lines
}

func TestConnect_Disabled(t *testing.T) {
	m := NewManager(zerolog.Nop(), config.InfluxConfig{Enabled: false})
	assert.ErrorIs(t, m.Connect(context.Background()), ErrDisabled)
	assert.False(t, m.IsValid)
}

func TestWritePoint_NotConnected(t *testing.T) {
	m := NewManager(zerolog.Nop(), config.InfluxConfig{})
	err := m.WriteScanReport(context.Background(), "doc", core.ScanSummary{})
	assert.Error(t, err)
}

func TestScanPoint(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p := ScanPoint("thesis.pdf", core.ScanSummary{
		Pages:      3,
		Unreadable: []int{2},
		Candidates: 4,
		Dropped:    1,
		Recovered:  map[core.PayloadType]int{core.Text: 2, core.Audio: 1},
		DurationMs: 17,
	}, at)

	assert.Equal(t, ScanMeasurement, p.Name())
	assert.Equal(t, at, p.Time())

	fields := map[string]interface{}{}
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	assert.Equal(t, int64(3), fields["pages"])
	assert.Equal(t, int64(1), fields["unreadable"])
	assert.Equal(t, int64(2), fields["text"])
	assert.Equal(t, int64(0), fields["image"])
	assert.Equal(t, int64(1), fields["audio"])
	assert.Equal(t, int64(17), fields["duration_ms"])

	require.Len(t, p.TagList(), 1)
	assert.Equal(t, "document", p.TagList()[0].Key)
	assert.Equal(t, "thesis.pdf", p.TagList()[0].Value)
}

func TestConnect_UnreachableWritesBackup(t *testing.T) {
	cfg := unreachableConfig(t)
	m := NewManager(zerolog.Nop(), cfg)

	require.NoError(t, m.Connect(context.Background()))
	assert.False(t, m.IsValid)
	require.NotNil(t, m.BackupWriter)

	require.NoError(t, m.WriteScanReport(context.Background(), "notes", core.ScanSummary{Pages: 2, Candidates: 5}))
	require.NoError(t, m.WriteScanReport(context.Background(), "notes", core.ScanSummary{Pages: 1}))
	require.NoError(t, m.Close())

	lines := readBackup(t, cfg.BackupPath)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "scan,document=notes ")
	assert.Contains(t, lines[0], "pages=2i")
	assert.Contains(t, lines[0], "candidates=5i")
	assert.Contains(t, lines[1], "pages=1i")
}

func TestConnect_BackupPathMissing(t *testing.T) {
	cfg := unreachableConfig(t)
	cfg.BackupPath = ""

	m := NewManager(zerolog.Nop(), cfg)
	assert.Error(t, m.Connect(context.Background()))
	assert.NoError(t, m.Close())
}
