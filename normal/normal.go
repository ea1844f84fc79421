// Package normal cleans up cell values before they are written to a table.
package normal

import (
	"strings"
	"unicode"
)

// Pipeline applies normalizers in order.
type Pipeline struct {
	Normalizer []Normalizer
}

func (p *Pipeline) Normalize(s string) string {
	for _, n := range p.Normalizer {
		s = n.Normalize(s)
	}
	return s
}

type Normalizer interface {
	Normalize(string) string
}

// NormalizerFunc adapts a plain function.
type NormalizerFunc func(string) string

func (f NormalizerFunc) Normalize(s string) string { return f(s) }

// CollapseWSNormalizer replaces runs of whitespace with a single space.
type CollapseWSNormalizer struct{}

func (s *CollapseWSNormalizer) Normalize(v string) string {
	var (
		b       strings.Builder
		inSpace bool
	)
	for _, c := range v {
		if unicode.IsSpace(c) {
			if !inSpace {
				b.WriteRune(' ')
			}
			inSpace = true
			continue
		}
		inSpace = false
		b.WriteRune(c)
	}
	return b.String()
}

// ISBDNormalizer removes trailing ISBD punctuation, which catalogers put at
// the end of a subfield to separate it from the next one, e.g. "Roma :" or
// "Le vite /".
type ISBDNormalizer struct{}

func (s *ISBDNormalizer) Normalize(v string) string {
	v = strings.TrimRightFunc(v, unicode.IsSpace)
	for _, suffix := range []string{" /", " :", " ;", " =", ","} {
		if strings.HasSuffix(v, suffix) {
			return strings.TrimRightFunc(strings.TrimSuffix(v, suffix), unicode.IsSpace)
		}
	}
	return v
}

type TrimNormalizer struct{}

func (s *TrimNormalizer) Normalize(v string) string {
	return strings.TrimSpace(v)
}

// ReplaceNewlineAndTab replaces newlines and tabs with a space.
func ReplaceNewlineAndTab(s string) string {
	var sb strings.Builder
	for _, c := range s {
		if c == '\n' || c == '\t' || c == '\r' {
			sb.WriteString(" ")
		} else {
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// Cell is the default cleanup for table cells: single line, single spaced,
// no trailing ISBD punctuation.
var Cell = &Pipeline{Normalizer: []Normalizer{
	NormalizerFunc(ReplaceNewlineAndTab),
	&CollapseWSNormalizer{},
	&ISBDNormalizer{},
	&TrimNormalizer{},
}}
