package normal

import (
	"fmt"
	"strings"
	"testing"
)

func TestCell(t *testing.T) {
	testCases := []struct {
		raw    string
		result string
	}{
		{"", ""},
		{"Roma", "Roma"},
		{"Le vite de' più eccellenti pittori /", "Le vite de' più eccellenti pittori"},
		{"Firenze :", "Firenze"},
		{"Vasari, Giorgio,", "Vasari, Giorgio"},
		{"  Architecture\n\tin   Rome  ", "Architecture in Rome"},
		{"Art ; ", "Art"},
		{"Titolo = Title", "Titolo = Title"},
		{"Titolo =", "Titolo"},
		{"a\r\nb", "a b"},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("cleaning: %q", tc.raw), func(t *testing.T) {
			cleaned := Cell.Normalize(tc.raw)
			if cleaned != tc.result {
				t.Errorf("want %q, but got %q", tc.result, cleaned)
			}
		})
	}
}

func TestPipelineOrder(t *testing.T) {
	p := &Pipeline{Normalizer: []Normalizer{NormalizerFunc(strings.ToLower), &TrimNormalizer{}}}
	if got := p.Normalize("  ROMA "); got != "roma" {
		t.Errorf("want %q, but got %q", "roma", got)
	}
}
