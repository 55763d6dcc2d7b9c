// Package convert maps between GORM models and core types.
package convert

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/stegonotes/stegonotes/internal/model"
	"github.com/stegonotes/stegonotes/pkg/core"
	"gorm.io/datatypes"
)

// MarkersToPlacements records the position of every marker on a page, in page order.
func MarkersToPlacements(docKey string, page int, markers []core.Marker) []model.Placement {
	rows := make([]model.Placement, 0, len(markers))
	for i, m := range markers {
		rows = append(rows, model.Placement{
			DocumentKey: docKey,
			Page:        page,
			Ordinal:     i,
			X:           m.X,
			Y:           m.Y,
			Type:        m.Type.String(),
			Digest:      m.Digest(),
		})
	}
	return rows
}

// PlacementToCore converts a stored row. Unknown type names are an error.
func PlacementToCore(p model.Placement) (core.Placement, error) {
	t, err := core.ParsePayloadType(p.Type)
	if err != nil {
		return core.Placement{}, fmt.Errorf("placement %d: %w", p.ID, err)
	}
	return core.Placement{
		Page:    p.Page,
		Ordinal: p.Ordinal,
		X:       p.X,
		Y:       p.Y,
		Type:    t,
		Digest:  p.Digest,
	}, nil
}

// ScanSummaryToModel converts a scan summary to its row.
func ScanSummaryToModel(docKey string, at time.Time, s core.ScanSummary) model.ScanRecord {
	unreadable := datatypes.JSON("[]")
	if len(s.Unreadable) > 0 {
		data, _ := json.Marshal(s.Unreadable)
		unreadable = datatypes.JSON(data)
	}

	recovered := datatypes.JSONMap{}
	for t, n := range s.Recovered {
		recovered[t.String()] = n
	}

	return model.ScanRecord{
		Time:        at,
		DocumentKey: docKey,
		Pages:       s.Pages,
		Candidates:  s.Candidates,
		Dropped:     s.Dropped,
		Unreadable:  unreadable,
		Recovered:   recovered,
		DurationMs:  s.DurationMs,
	}
}

// ScanRecordToSummary converts a stored scan back. JSON numbers decode as float64.
func ScanRecordToSummary(r model.ScanRecord) (core.ScanSummary, error) {
	s := core.ScanSummary{
		Pages:      r.Pages,
		Candidates: r.Candidates,
		Dropped:    r.Dropped,
		Recovered:  make(map[core.PayloadType]int, len(r.Recovered)),
		DurationMs: r.DurationMs,
	}
	if len(r.Unreadable) > 0 {
		if err := json.Unmarshal(r.Unreadable, &s.Unreadable); err != nil {
			return core.ScanSummary{}, fmt.Errorf("scan %d unreadable pages: %w", r.ID, err)
		}
	}
	for name, v := range r.Recovered {
		t, err := core.ParsePayloadType(name)
		if err != nil {
			return core.ScanSummary{}, fmt.Errorf("scan %d: %w", r.ID, err)
		}
		switch n := v.(type) {
		case float64:
			s.Recovered[t] = int(n)
		case int:
			s.Recovered[t] = n
		case int64:
			s.Recovered[t] = int(n)
		}
	}
	return s, nil
}
