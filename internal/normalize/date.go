package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const isoDate = "2006-01-02"

var (
	ordinalRe   = regexp.MustCompile(`(?i)\b(\d{1,2})(st|nd|rd|th)\b`)
	numericDMY  = regexp.MustCompile(`^(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{4})$`)
	numericYMD  = regexp.MustCompile(`^(\d{4})[/.\-](\d{1,2})[/.\-](\d{1,2})$`)
	separatorRe = regexp.MustCompile(`[,/.\-]+`)
)

// timestampLayouts are tried against the trimmed input before any cleanup.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// namedLayouts are tried after ordinals and separators are reduced to spaces.
// time.Parse matches month names case-insensitively.
var namedLayouts = []string{
	"2 January 2006",
	"2 Jan 2006",
	"January 2 2006",
	"Jan 2 2006",
	"2006 January 2",
	"2006 Jan 2",
	"Monday 2 January 2006",
	"Mon 2 Jan 2006",
	"Monday January 2 2006",
	"Mon Jan 2 2006",
}

// Date parses common human date formats and returns an ISO YYYY-MM-DD string.
// Numeric a/b/yyyy input is read month-first only when the first part cannot
// be a month; otherwise it is read day-first. Future dates are accepted.
func Date(raw, _ string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(isoDate), true
		}
	}

	if m := numericYMD.FindStringSubmatch(s); m != nil {
		return civilDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	if m := numericDMY.FindStringSubmatch(s); m != nil {
		a, b, y := atoi(m[1]), atoi(m[2]), atoi(m[3])
		if a > 12 || b <= 12 {
			return civilDate(y, b, a)
		}
		return civilDate(y, a, b)
	}

	cleaned := ordinalRe.ReplaceAllString(s, "$1")
	cleaned = separatorRe.ReplaceAllString(cleaned, " ")
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	cleaned = strings.NewReplacer("Sept ", "Sep ", "sept ", "sep ", "SEPT ", "SEP ").Replace(cleaned)

	for _, layout := range namedLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t.Format(isoDate), true
		}
	}
	return "", false
}

// civilDate formats y-m-d when it names a real calendar day.
func civilDate(y, m, d int) (string, bool) {
	if m < 1 || m > 12 || d < 1 || d > 31 || y < 1 {
		return "", false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return "", false
	}
	return t.Format(isoDate), true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
