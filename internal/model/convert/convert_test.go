package convert

import (
	"testing"
	"time"

	"github.com/stegonotes/stegonotes/internal/model"
	"github.com/stegonotes/stegonotes/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestMarkersToPlacements(t *testing.T) {
	markers := []core.Marker{
		{Page: 2, X: 10, Y: 20, Type: core.Text, Secret: "a"},
		{Page: 2, X: 30, Y: 40, Type: core.Audio, Secret: "b"},
	}

	rows := MarkersToPlacements("doc.txt", 2, markers)
	require.Len(t, rows, 2)

	assert.Equal(t, "doc.txt", rows[0].DocumentKey)
	assert.Equal(t, 0, rows[0].Ordinal)
	assert.Equal(t, 1, rows[1].Ordinal)
	assert.Equal(t, "audio", rows[1].Type)
	assert.Equal(t, markers[1].Digest(), rows[1].Digest)
	assert.Empty(t, MarkersToPlacements("doc.txt", 2, nil))
}

func TestPlacementToCore(t *testing.T) {
	p, err := PlacementToCore(model.Placement{Page: 1, Ordinal: 3, X: 1.5, Y: 2.5, Type: "image", Digest: "abc"})
	require.NoError(t, err)
	assert.Equal(t, core.Placement{Page: 1, Ordinal: 3, X: 1.5, Y: 2.5, Type: core.Image, Digest: "abc"}, p)

	_, err = PlacementToCore(model.Placement{Type: "video"})
	assert.Error(t, err)
}

func TestScanSummaryRoundTrip(t *testing.T) {
	summary := core.ScanSummary{
		Pages:      5,
		Unreadable: []int{2, 4},
		Candidates: 7,
		Dropped:    1,
		Recovered:  map[core.PayloadType]int{core.Text: 4, core.Audio: 2},
		DurationMs: 12,
	}
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	row := ScanSummaryToModel("doc.pdf", at, summary)
	assert.Equal(t, "doc.pdf", row.DocumentKey)
	assert.Equal(t, at, row.Time)
	assert.JSONEq(t, `[2,4]`, string(row.Unreadable))
	assert.Equal(t, datatypes.JSONMap{"text": 4, "audio": 2}, row.Recovered)

	back, err := ScanRecordToSummary(row)
	require.NoError(t, err)
	assert.Equal(t, summary, back)
}

func TestScanSummaryToModel_Empty(t *testing.T) {
	row := ScanSummaryToModel("doc", time.Now(), core.ScanSummary{})
	assert.Equal(t, "[]", string(row.Unreadable))
	assert.Empty(t, row.Recovered)
}

func TestScanRecordToSummary_FromJSONNumbers(t *testing.T) {
	row := model.ScanRecord{
		Unreadable: datatypes.JSON(`[3]`),
		Recovered:  datatypes.JSONMap{"image": float64(2)},
	}

	s, err := ScanRecordToSummary(row)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, s.Unreadable)
	assert.Equal(t, map[core.PayloadType]int{core.Image: 2}, s.Recovered)

	_, err = ScanRecordToSummary(model.ScanRecord{Recovered: datatypes.JSONMap{"video": 1.0}})
	assert.Error(t, err)
}
