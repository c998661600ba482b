// Package normalize converts raw extracted strings into typed form values.
//
// Every normalizer takes the raw value and the canonical key of the field it
// is destined for, and reports ok=false when it has no confident conversion.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s, strips diacritics, turns every non-alphanumeric rune into
// a space and collapses runs of whitespace. Folded strings compare word by word.
func Fold(s string) string {
	// Transformers carry state, so build a fresh chain per call.
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = cases.Fold().String(out)

	var b strings.Builder
	b.Grow(len(out))
	for _, r := range out {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// containsWords reports whether needle appears in hay on word boundaries.
// Both sides must already be folded.
func containsWords(hay, needle string) bool {
	if hay == "" || needle == "" {
		return false
	}
	return strings.Contains(" "+hay+" ", " "+needle+" ")
}
