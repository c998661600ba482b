package normalize

import (
	"strings"

	"github.com/sells-group/docfill/internal/model"
)

// levelGroup is one canonical level and the words that imply it.
type levelGroup struct {
	canonical string
	synonyms  []string
}

// levelSynonyms is consulted in order; international precedes national so a
// "global" event never lands on a national option.
var levelSynonyms = []levelGroup{
	{canonical: "international", synonyms: []string{"international", "global", "world", "abroad", "foreign", "overseas"}},
	{canonical: "national", synonyms: []string{"national", "country", "india", "all india", "nationwide"}},
	{canonical: "state", synonyms: []string{"state", "provincial"}},
	{canonical: "university", synonyms: []string{"university", "inter university"}},
	{canonical: "regional", synonyms: []string{"regional", "zonal", "zone"}},
	{canonical: "district", synonyms: []string{"district"}},
	{canonical: "institute", synonyms: []string{"institute", "institutional", "college", "department", "local"}},
}

// IsLevelField reports whether key names a geographic/organisational level.
func IsLevelField(key string) bool {
	return strings.Contains(strings.ToLower(key), "level")
}

// Choice resolves raw text against dropdown options and returns the matching
// option id. Matching order: exact folded name, level synonyms (level fields
// only), then whole-word containment in either direction where the longest
// option name wins.
func Choice(raw, key string, options []model.Option) (int64, bool) {
	f := Fold(raw)
	if f == "" || len(options) == 0 {
		return 0, false
	}

	folded := make([]string, len(options))
	for i, o := range options {
		folded[i] = Fold(o.Name)
		if folded[i] != "" && folded[i] == f {
			return o.ID, true
		}
	}

	if IsLevelField(key) {
		if id, ok := matchLevel(f, options, folded); ok {
			return id, true
		}
	}

	best := -1
	for i, name := range folded {
		if name == "" {
			continue
		}
		if containsWords(f, name) || containsWords(name, f) {
			if best < 0 || len(name) > len(folded[best]) {
				best = i
			}
		}
	}
	if best < 0 {
		return 0, false
	}
	return options[best].ID, true
}

func matchLevel(f string, options []model.Option, folded []string) (int64, bool) {
	for _, g := range levelSynonyms {
		hit := false
		for _, syn := range g.synonyms {
			if containsWords(f, syn) {
				hit = true
				break
			}
		}
		if !hit {
			continue
		}
		for i, name := range folded {
			if containsWords(name, g.canonical) {
				return options[i].ID, true
			}
			for _, syn := range g.synonyms {
				if name == syn {
					return options[i].ID, true
				}
			}
		}
	}
	return 0, false
}
