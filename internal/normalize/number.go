package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	currencyRe     = regexp.MustCompile(`(?i)^(rs\.?|inr|usd|₹|\$|€|£)\s*`)
	leadingFloatRe = regexp.MustCompile(`^[-+]?(\d+(\.\d*)?|\.\d+)([eE][-+]?\d+)?`)
)

// Number parses the leading floating point number of raw, ignoring currency
// markers and thousands separators ("Rs. 1,50,000/-" is 150000).
func Number(raw, _ string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = currencyRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	m := leadingFloatRe.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
