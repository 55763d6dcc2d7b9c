// pkg/core/marker.go
package core

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
)

// PayloadType identifies what a marker's secret carries.
type PayloadType uint8

const (
	Text PayloadType = iota
	Image
	Audio
)

// String returns the lowercase name used in configs, requests and storage.
func (t PayloadType) String() string {
	switch t {
	case Text:
		return "text"
	case Image:
		return "image"
	case Audio:
		return "audio"
	default:
		return fmt.Sprintf("PayloadType(%d)", uint8(t))
	}
}

// ParsePayloadType converts a name ("text", "image", "audio") to a PayloadType.
func ParsePayloadType(s string) (PayloadType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text":
		return Text, nil
	case "image":
		return Image, nil
	case "audio":
		return Audio, nil
	}
	return Text, fmt.Errorf("unknown payload type: %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t PayloadType) MarshalText() ([]byte, error) {
	if t > Audio {
		return nil, fmt.Errorf("unknown payload type: %d", uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *PayloadType) UnmarshalText(b []byte) error {
	parsed, err := ParsePayloadType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Marker is one hidden payload placed on a page.
// Secret is already zero-width encoded; for Audio it is the double-encoded chunk container.
type Marker struct {
	Page   int         `json:"page"`
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
	Type   PayloadType `json:"type"`
	Secret string      `json:"secret"`
}

// Digest returns the hex BLAKE3-256 fingerprint of the secret.
// Only the secret survives a save/reload, so the digest is what ties a recovered
// marker back to its recorded placement.
func (m Marker) Digest() string {
	sum := blake3.Sum256([]byte(m.Secret))
	return hex.EncodeToString(sum[:])
}

// Content is a revealed payload ready for the host to display or play.
// Value is the plain note for Text and the data URL (or base64 text) for Image and Audio.
type Content struct {
	Type  PayloadType `json:"type"`
	Value string      `json:"value"`
}

// Placement is a recorded marker position, kept outside the document.
type Placement struct {
	Page    int
	Ordinal int
	X       float64
	Y       float64
	Type    PayloadType
	Digest  string
}

// ScanSummary is the storage view of one document recovery pass.
type ScanSummary struct {
	Pages      int
	Unreadable []int
	Candidates int
	Dropped    int
	Recovered  map[PayloadType]int
	DurationMs int64
}
