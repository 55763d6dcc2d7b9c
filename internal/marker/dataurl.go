package marker

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/stegonotes/stegonotes/pkg/core"
)

// ImagePrefix starts every image payload; recovery uses it to tell images from notes.
const ImagePrefix = "data:image"

// ErrNotDataURL is returned when a revealed value is not a base64 data URL.
var ErrNotDataURL = errors.New("not a base64 data URL")

// DataURL wraps data in a base64 data URL, sniffing its media type.
func DataURL(data []byte) string {
	mediaType, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURL splits a base64 data URL into its media type and decoded bytes.
func ParseDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, ErrNotDataURL
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrNotDataURL
	}
	mediaType, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return "", nil, ErrNotDataURL
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrNotDataURL, err)
	}
	return mediaType, data, nil
}

// RawFromFile turns file contents into the raw payload Place expects:
// notes are used as-is, images and audio become data URLs.
func RawFromFile(t core.PayloadType, data []byte) (string, error) {
	switch t {
	case core.Text:
		return string(data), nil
	case core.Image:
		raw := DataURL(data)
		if !strings.HasPrefix(raw, ImagePrefix) {
			return "", fmt.Errorf("file is not an image: %s", mimetype.Detect(data).String())
		}
		return raw, nil
	case core.Audio:
		return DataURL(data), nil
	default:
		return "", fmt.Errorf("unknown payload type: %d", uint8(t))
	}
}
