package model

import (
	"time"

	"gorm.io/datatypes"
)

// DatabaseModels lists every table in the sidecar schema.
var DatabaseModels = []interface{}{
	&Placement{},
	&ScanRecord{},
}

// Placement is the recorded position of one marker. Rows of a page are replaced as a
// whole on every save; Ordinal is the marker's index on its page at save time.
type Placement struct {
	ID          uint      `json:"id" gorm:"primarykey"`
	CreatedAt   time.Time `json:"createdAt"`
	DocumentKey string    `json:"document" gorm:"size:512;NOT NULL;index:idx_placement_document_page,priority:1"`
	Page        int       `json:"page" gorm:"NOT NULL;index:idx_placement_document_page,priority:2"`
	Ordinal     int       `json:"ordinal"`
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	Type        string    `json:"type" gorm:"size:8"`
	Digest      string    `json:"digest" gorm:"size:64;index:idx_placement_digest"`
}

func (*Placement) TableName() string {
	return "placements"
}

// ScanRecord is one recovery pass over a document.
type ScanRecord struct {
	ID          uint              `json:"id" gorm:"primarykey"`
	Time        time.Time         `json:"time" gorm:"index:idx_scan_time"`
	DocumentKey string            `json:"document" gorm:"size:512;index:idx_scan_document"`
	Pages       int               `json:"pages"`
	Candidates  int               `json:"candidates"`
	Dropped     int               `json:"dropped"`
	Unreadable  datatypes.JSON    `json:"unreadable"`
	Recovered   datatypes.JSONMap `json:"recovered"`
	DurationMs  int64             `json:"durationMs"`
}

func (*ScanRecord) TableName() string {
	return "scan_records"
}
