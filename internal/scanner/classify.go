package scanner

import (
	"bytes"
	"encoding/json"
	"regexp"

	"github.com/stegonotes/stegonotes/internal/marker"
	"github.com/stegonotes/stegonotes/pkg/core"
)

// runPattern matches maximal runs of the codec alphabet.
var runPattern = regexp.MustCompile(`[\x{200B}\x{200C}\x{200D}]+`)

// Candidate is one maximal run of codec symbols found in page text.
// Start and End are byte offsets into the page text.
type Candidate struct {
	Run   string
	Start int
	End   int
}

// FindCandidates returns every maximal symbol run in text, in order of appearance.
func FindCandidates(text string) []Candidate {
	locs := runPattern.FindAllStringIndex(text, -1)
	candidates := make([]Candidate, 0, len(locs))
	for _, loc := range locs {
		candidates = append(candidates, Candidate{Run: text[loc[0]:loc[1]], Start: loc[0], End: loc[1]})
	}
	return candidates
}

// Classify decides the payload type of a decoded run. The checks run in a fixed order:
// any JSON array is audio, then the image data-URL prefix, then text. A note whose text
// is itself a JSON array therefore comes back as audio.
func Classify(decoded []byte) core.PayloadType {
	var arr []json.RawMessage
	if err := json.Unmarshal(decoded, &arr); err == nil && arr != nil {
		return core.Audio
	}
	if bytes.HasPrefix(decoded, []byte(marker.ImagePrefix)) {
		return core.Image
	}
	return core.Text
}
