// Package codec maps text and bytes onto runs of three invisible Unicode
// control characters and back.
//
// Every source byte becomes one group: eight bit symbols, most significant
// bit first, followed by a separator. A well formed run is therefore always
// a multiple of GroupLen runes long.
package codec

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	Zero = '\u200b' // zero width space, bit 0
	One  = '\u200c' // zero width non-joiner, bit 1
	Sep  = '\u200d' // zero width joiner, ends a group

	// GroupLen is the number of runes one encoded byte occupies.
	GroupLen = 9

	bitsPerGroup = 8
)

var (
	// ErrMalformedGroup is returned when a run does not split into 8-symbol groups.
	ErrMalformedGroup = errors.New("malformed group")
	// ErrOutOfRange is returned when a character does not fit in one byte.
	ErrOutOfRange = errors.New("character out of range")
)

// symbolLen is the UTF-8 width of each alphabet symbol; all three share it.
var symbolLen = utf8.RuneLen(Zero)

// IsSymbol reports whether r belongs to the three-symbol alphabet.
func IsSymbol(r rune) bool {
	return r == Zero || r == One || r == Sep
}

// Encode encodes every character of text as one group.
// Characters must have code points 0-255; the first one that does not is
// reported with ErrOutOfRange and nothing is returned.
func Encode(text string) (string, error) {
	var b strings.Builder
	b.Grow(utf8.RuneCountInString(text) * GroupLen * symbolLen)

	for i, r := range text {
		if r > 0xff {
			return "", fmt.Errorf("%w: %q at byte %d", ErrOutOfRange, r, i)
		}
		writeGroup(&b, byte(r))
	}
	return b.String(), nil
}

// EncodeBytes encodes every byte of data as one group.
// Use it for UTF-8 text outside Latin-1 and for binary payloads.
func EncodeBytes(data []byte) string {
	var b strings.Builder
	b.Grow(len(data) * GroupLen * symbolLen)

	for _, c := range data {
		writeGroup(&b, c)
	}
	return b.String()
}

func writeGroup(b *strings.Builder, c byte) {
	for bit := bitsPerGroup - 1; bit >= 0; bit-- {
		if c&(1<<bit) != 0 {
			b.WriteRune(One)
		} else {
			b.WriteRune(Zero)
		}
	}
	b.WriteRune(Sep)
}

// Decode is the inverse of Encode: each group yields the character with that code point.
func Decode(encoded string) (string, error) {
	data, err := DecodeBytes(encoded)
	if err != nil {
		return "", err
	}

	runes := make([]rune, len(data))
	for i, c := range data {
		runes[i] = rune(c)
	}
	return string(runes), nil
}

// DecodeBytes is the inverse of EncodeBytes.
// Each group must hold exactly eight bit symbols and end with Sep;
// anything else, including foreign runes, is ErrMalformedGroup.
func DecodeBytes(encoded string) ([]byte, error) {
	out := make([]byte, 0, utf8.RuneCountInString(encoded)/GroupLen)

	var (
		cur   byte
		count int
	)
	for i, r := range encoded {
		switch r {
		case Zero, One:
			if count == bitsPerGroup {
				return nil, fmt.Errorf("%w: group %d has more than %d symbols", ErrMalformedGroup, len(out), bitsPerGroup)
			}
			cur <<= 1
			if r == One {
				cur |= 1
			}
			count++
		case Sep:
			if count != bitsPerGroup {
				return nil, fmt.Errorf("%w: group %d has %d symbols", ErrMalformedGroup, len(out), count)
			}
			out = append(out, cur)
			cur, count = 0, 0
		default:
			return nil, fmt.Errorf("%w: unexpected %q at byte %d", ErrMalformedGroup, r, i)
		}
	}

	if count != 0 {
		return nil, fmt.Errorf("%w: trailing group of %d symbols has no separator", ErrMalformedGroup, count)
	}
	return out, nil
}
