package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayloadType(t *testing.T) {
	tests := []struct {
		in      string
		want    PayloadType
		wantErr bool
	}{
		{in: "text", want: Text},
		{in: "IMAGE", want: Image},
		{in: " audio ", want: Audio},
		{in: "video", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePayloadType(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPayloadType_String(t *testing.T) {
	assert.Equal(t, "text", Text.String())
	assert.Equal(t, "image", Image.String())
	assert.Equal(t, "audio", Audio.String())
	assert.Equal(t, "PayloadType(9)", PayloadType(9).String())
}

func TestMarker_JSON(t *testing.T) {
	m := Marker{Page: 2, X: 10, Y: 20, Type: Audio, Secret: "\u200b"}

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"audio"`)

	var back Marker
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, m, back)
}

func TestMarker_JSON_UnknownType(t *testing.T) {
	var m Marker
	err := json.Unmarshal([]byte(`{"type":"video"}`), &m)
	assert.Error(t, err)
}

func TestMarker_Digest(t *testing.T) {
	a := Marker{Secret: "\u200b\u200c\u200d"}
	b := Marker{Page: 7, X: 1, Y: 1, Secret: "\u200b\u200c\u200d"}
	c := Marker{Secret: "\u200c\u200b\u200d"}

	assert.Len(t, a.Digest(), 64)
	assert.Equal(t, a.Digest(), b.Digest(), "digest depends on the secret only")
	assert.NotEqual(t, a.Digest(), c.Digest())
}
