// Package asrtext provides text normalization and edit-distance scoring for
// comparing ASR transcripts against reference text, as an adjunct to the
// core diarization pipeline.
package asrtext

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lowerCaser = cases.Lower(language.Und)

// Normalize casefolds s and strips punctuation/symbols, collapsing
// whitespace runs to single spaces. The result is idempotent: normalizing
// already-normalized text returns it unchanged.
func Normalize(s string) string {
	s = lowerCaser.String(s)

	var b strings.Builder
	b.Grow(len(s))
	prevSpace := true
	for _, r := range s {
		switch {
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			continue
		case unicode.IsSpace(r):
			if prevSpace {
				continue
			}
			b.WriteRune(' ')
			prevSpace = true
		default:
			b.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(b.String())
}

// Tokenize normalizes s and splits it into words.
func Tokenize(s string) []string {
	normalized := Normalize(s)
	if normalized == "" {
		return nil
	}
	return strings.Fields(normalized)
}
