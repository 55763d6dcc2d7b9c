// Package chunk splits large payloads into bounded pieces before they go
// through the zero-width codec, and puts them back together.
//
// A packed payload is double encoded: every piece is encoded on its own,
// the encoded pieces are written as a JSON array, and that array is
// encoded once more. The inner pieces consist of code points above 0xff,
// so the outer pass is byte oriented.
package chunk

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stegonotes/stegonotes/internal/codec"
)

// DefaultSize is the default piece length in characters of base64 text.
const DefaultSize = 3000

var (
	// ErrNotChunked is returned by Unpack when the decoded container is not a list.
	// Callers use it to fall back to a plain decode.
	ErrNotChunked = errors.New("not a chunked payload")
	// ErrInvalidSize is returned for piece sizes below one.
	ErrInvalidSize = errors.New("chunk size must be at least 1")
)

// Split cuts text into consecutive pieces of at most size characters.
// The last piece may be shorter. An empty text yields no pieces.
func Split(text string, size int) []string {
	if size < 1 {
		return nil
	}

	runes := []rune(text)
	pieces := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		pieces = append(pieces, string(runes[start:end]))
	}
	return pieces
}

// Pack splits text, encodes every piece, wraps them in a JSON list and encodes the list.
func Pack(text string, size int) (string, error) {
	if size < 1 {
		return "", fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}

	pieces := Split(text, size)
	encoded := make([]string, len(pieces))
	for i, piece := range pieces {
		e, err := codec.Encode(piece)
		if err != nil {
			return "", fmt.Errorf("encoding piece %d: %w", i, err)
		}
		encoded[i] = e
	}

	container, err := json.Marshal(encoded)
	if err != nil {
		return "", fmt.Errorf("error marshalling chunk container: %w", err)
	}
	return codec.EncodeBytes(container), nil
}

// Unpack reverses Pack.
// A run that decodes but does not hold a JSON list of strings returns ErrNotChunked.
func Unpack(encoded string) (string, error) {
	pieces, err := Pieces(encoded)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i, piece := range pieces {
		decoded, err := codec.Decode(piece)
		if err != nil {
			return "", fmt.Errorf("decoding piece %d: %w", i, err)
		}
		b.WriteString(decoded)
	}
	return b.String(), nil
}

// Pieces decodes the outer container and returns the still-encoded pieces.
func Pieces(encoded string) ([]string, error) {
	container, err := codec.DecodeBytes(encoded)
	if err != nil {
		return nil, err
	}

	var pieces []string
	if err := json.Unmarshal(container, &pieces); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotChunked, err)
	}
	if pieces == nil {
		return nil, fmt.Errorf("%w: container is null", ErrNotChunked)
	}
	return pieces, nil
}

// PackBytes base64-encodes data and packs the result.
func PackBytes(data []byte, size int) (string, error) {
	return Pack(base64.StdEncoding.EncodeToString(data), size)
}

// UnpackBytes reverses PackBytes.
func UnpackBytes(encoded string) ([]byte, error) {
	text, err := Unpack(encoded)
	if err != nil {
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("error decoding base64 payload: %w", err)
	}
	return data, nil
}
