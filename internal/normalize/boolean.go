package normalize

import "strings"

// Negative entries are always consulted before affirmative ones so that
// "not reviewed" never resolves through the word "reviewed".
var (
	undecidedPhrases = map[string]bool{
		"n a": true, "na": true, "not applicable": true, "nil": true,
	}
	negativePhrases = map[string]bool{
		"not reviewed": true, "not paid": true, "not included": true,
	}
	negativeTokens = map[string]bool{
		"no": true, "false": true, "0": true, "n": true, "unpaid": true,
		"not": true, "non": true, "out": true,
	}
	affirmativeTokens = map[string]bool{
		"yes": true, "true": true, "1": true, "y": true, "paid": true,
		"reviewed": true, "included": true, "in": true,
	}
)

// Bool maps affirmative and negative wording to true or false using whole
// phrase and whole word matches only.
func Bool(raw, _ string) (bool, bool) {
	f := Fold(raw)
	if f == "" || undecidedPhrases[f] {
		return false, false
	}

	if negativePhrases[f] || negativeTokens[f] {
		return false, true
	}
	if affirmativeTokens[f] {
		return true, true
	}

	for phrase := range negativePhrases {
		if containsWords(f, phrase) {
			return false, true
		}
	}
	words := strings.Fields(f)
	for _, w := range words {
		if negativeTokens[w] {
			return false, true
		}
	}
	for _, w := range words {
		if affirmativeTokens[w] {
			return true, true
		}
	}
	return false, false
}
