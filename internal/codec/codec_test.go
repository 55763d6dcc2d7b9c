package codec

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bits renders a 0/1 pattern with the alphabet, '|' standing for Sep.
func bits(pattern string) string {
	r := strings.NewReplacer("0", string(Zero), "1", string(One), "|", string(Sep))
	return r.Replace(pattern)
}

func TestEncode_KnownGroups(t *testing.T) {
	got, err := Encode("hi")
	require.NoError(t, err)

	// 'h' = 0x68, 'i' = 0x69
	assert.Equal(t, bits("01101000|01101001|"), got)
	assert.Equal(t, 2*GroupLen, utf8.RuneCountInString(got))
}

func TestEncode_Empty(t *testing.T) {
	got, err := Encode("")
	require.NoError(t, err)
	assert.Empty(t, got)

	decoded, err := Decode(got)
	require.NoError(t, err)
	assert.Empty(t, decoded)
}

func TestEncode_RoundTrip(t *testing.T) {
	var all strings.Builder
	for r := rune(0); r <= 0xff; r++ {
		all.WriteRune(r)
	}

	tests := []struct {
		name string
		in   string
	}{
		{name: "ascii", in: "secret note"},
		{name: "latin1", in: "café crème ÿ"},
		{name: "controls", in: "\x00\t\n\x7f"},
		{name: "data url", in: "data:image/png;base64,Zg=="},
		{name: "every byte value", in: all.String()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := Encode(tt.in)
			require.NoError(t, err)
			assert.Zero(t, utf8.RuneCountInString(encoded)%GroupLen)

			decoded, err := Decode(encoded)
			require.NoError(t, err)
			assert.Equal(t, tt.in, decoded)
		})
	}
}

func TestEncode_OutOfRange(t *testing.T) {
	tests := []string{"日本", "ok €", "Ā"}

	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			got, err := Encode(in)
			require.ErrorIs(t, err, ErrOutOfRange)
			assert.Empty(t, got)
		})
	}
}

func TestEncodeBytes_RoundTrip(t *testing.T) {
	tests := [][]byte{
		nil,
		{0x00},
		{0xff, 0x00, 0x80},
		[]byte("日本語のメモ"),
	}

	for _, in := range tests {
		encoded := EncodeBytes(in)
		assert.Equal(t, len(in)*GroupLen, utf8.RuneCountInString(encoded))

		decoded, err := DecodeBytes(encoded)
		require.NoError(t, err)
		assert.Equal(t, len(in), len(decoded))
		if len(in) > 0 {
			assert.Equal(t, in, decoded)
		}
	}
}

func TestEncodeBytes_MatchesEncodeForLatin1(t *testing.T) {
	plain, err := Encode("plain ascii")
	require.NoError(t, err)
	assert.Equal(t, plain, EncodeBytes([]byte("plain ascii")))
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "five symbols no separator", in: bits("01101")},
		{name: "short group", in: bits("0110100|")},
		{name: "long group", in: bits("011010001|")},
		{name: "separator only", in: bits("|")},
		{name: "double separator", in: bits("01101000||")},
		{name: "unterminated last group", in: bits("01101000|01101001")},
		{name: "foreign rune", in: bits("0110") + "x" + bits("1000|")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.in)
			assert.ErrorIs(t, err, ErrMalformedGroup)

			_, err = DecodeBytes(tt.in)
			assert.ErrorIs(t, err, ErrMalformedGroup)
		})
	}
}

func TestIsSymbol(t *testing.T) {
	assert.True(t, IsSymbol(Zero))
	assert.True(t, IsSymbol(One))
	assert.True(t, IsSymbol(Sep))
	assert.False(t, IsSymbol('0'))
	assert.False(t, IsSymbol('\u2060'))
	assert.False(t, IsSymbol('\ufeff'))
}
