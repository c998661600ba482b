package autofill

import (
	"slices"
	"strings"

	"github.com/sells-group/docfill/internal/fieldmap"
	"github.com/sells-group/docfill/internal/model"
	"github.com/sells-group/docfill/internal/normalize"
)

// Process maps and coerces every raw field for formType. Labels are visited in
// sorted order; when two labels land on the same key the first non-blank value
// wins. Options are looked up by canonical key.
func Process(m *fieldmap.Mapper, formType string, raw map[string]string, overrides map[string]string, options map[string][]model.Option) model.ProcessedFieldSet {
	out := make(model.ProcessedFieldSet, len(raw))

	labels := make([]string, 0, len(raw))
	for label := range raw {
		labels = append(labels, label)
	}
	slices.Sort(labels)

	for _, label := range labels {
		key, ok := m.Resolve(formType, label, overrides)
		if !ok {
			continue
		}
		value := raw[label]
		if prev, exists := out[key]; exists && !isBlank(prev) {
			continue
		}
		if strings.TrimSpace(value) == "" {
			if _, exists := out[key]; !exists {
				out[key] = ""
			}
			continue
		}
		out[key] = normalize.Coerce(m.Kind(formType, key), value, key, options[key])
	}
	return out
}

func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	}
	return false
}

// ChoiceKeys lists the keys of fields that take a dropdown option, sorted.
func ChoiceKeys(m *fieldmap.Mapper, formType string, fields model.ProcessedFieldSet) []string {
	var out []string
	for key := range fields {
		if m.Kind(formType, key) == model.KindChoice || normalize.IsLevelField(key) {
			out = append(out, key)
		}
	}
	slices.Sort(out)
	return out
}
