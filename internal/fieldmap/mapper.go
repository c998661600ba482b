// Package fieldmap maps extraction-service labels onto the canonical field
// keys of record forms and derives the form type of an extraction.
package fieldmap

import (
	"strings"

	"github.com/sells-group/docfill/internal/model"
	"github.com/sells-group/docfill/internal/normalize"
)

// FieldSpec is the canonical key and kind a label maps to.
type FieldSpec struct {
	Key  string          `yaml:"key"`
	Kind model.FieldKind `yaml:"kind"`
}

// FormTypeRule maps a classification to a form type. An empty SubCategory
// matches any subcategory of Category.
type FormTypeRule struct {
	Category    string `yaml:"category"`
	SubCategory string `yaml:"sub_category"`
	FormType    string `yaml:"form_type"`
}

// Mapper resolves labels to canonical keys. A Mapper is read-only after
// construction and safe for concurrent use.
type Mapper struct {
	formTypes map[string]string
	labels    map[string]map[string]FieldSpec
	kinds     map[string]map[string]model.FieldKind
}

// New returns a Mapper loaded with the built-in tables.
func New() *Mapper {
	m := &Mapper{
		formTypes: make(map[string]string, len(defaultFormTypes)),
		labels:    make(map[string]map[string]FieldSpec, len(defaultForms)),
		kinds:     make(map[string]map[string]model.FieldKind, len(defaultForms)),
	}
	m.merge(defaultFormTypes, defaultForms)
	return m
}

// WithTables returns a copy of m with the given rules and form tables layered
// over the existing ones.
func (m *Mapper) WithTables(rules []FormTypeRule, forms map[string]map[string]FieldSpec) *Mapper {
	out := &Mapper{
		formTypes: make(map[string]string, len(m.formTypes)+len(rules)),
		labels:    make(map[string]map[string]FieldSpec, len(m.labels)+len(forms)),
		kinds:     make(map[string]map[string]model.FieldKind, len(m.kinds)+len(forms)),
	}
	for k, v := range m.formTypes {
		out.formTypes[k] = v
	}
	for form, labels := range m.labels {
		cp := make(map[string]FieldSpec, len(labels))
		for k, v := range labels {
			cp[k] = v
		}
		out.labels[form] = cp
	}
	for form, kinds := range m.kinds {
		cp := make(map[string]model.FieldKind, len(kinds))
		for k, v := range kinds {
			cp[k] = v
		}
		out.kinds[form] = cp
	}
	out.merge(rules, forms)
	return out
}

func (m *Mapper) merge(rules []FormTypeRule, forms map[string]map[string]FieldSpec) {
	for _, r := range rules {
		if r.FormType == "" {
			continue
		}
		m.formTypes[ruleKey(r.Category, r.SubCategory)] = r.FormType
	}
	for form, labels := range forms {
		if m.labels[form] == nil {
			m.labels[form] = make(map[string]FieldSpec, len(labels))
			m.kinds[form] = make(map[string]model.FieldKind, len(labels))
		}
		for label, spec := range labels {
			if spec.Key == "" {
				continue
			}
			if !spec.Kind.Valid() {
				spec.Kind = model.KindText
			}
			m.labels[form][normalize.Fold(label)] = spec
			m.kinds[form][spec.Key] = spec.Kind
		}
	}
}

func ruleKey(category, subCategory string) string {
	return normalize.Fold(category) + "|" + normalize.Fold(subCategory)
}

// FormType derives the form type from a classification. The exact
// (category, subCategory) pair wins over the category-wide default; unknown
// classifications yield "".
func (m *Mapper) FormType(category, subCategory string) string {
	if ft, ok := m.formTypes[ruleKey(category, subCategory)]; ok {
		return ft
	}
	return m.formTypes[ruleKey(category, "")]
}

// FormTypes lists every form type that has a field table.
func (m *Mapper) FormTypes() []string {
	out := make([]string, 0, len(m.labels))
	for ft := range m.labels {
		out = append(out, ft)
	}
	return out
}

// Resolve returns the canonical key for label. Lookup order is the caller's
// overrides (an empty override value suppresses the label), the form type's
// table, then the lower_snake form of the label itself. ok is false only for
// suppressed or blank labels.
func (m *Mapper) Resolve(formType, label string, overrides map[string]string) (string, bool) {
	folded := normalize.Fold(label)

	if key, found := lookupOverride(overrides, label, folded); found {
		return key, key != ""
	}

	if formType != "" {
		if spec, ok := m.labels[formType][folded]; ok {
			return spec.Key, true
		}
	}

	key := FallbackKey(label)
	return key, key != ""
}

func lookupOverride(overrides map[string]string, label, folded string) (string, bool) {
	if len(overrides) == 0 {
		return "", false
	}
	if key, ok := overrides[label]; ok {
		return key, true
	}
	for k, key := range overrides {
		if normalize.Fold(k) == folded {
			return key, true
		}
	}
	return "", false
}

// Kind reports the semantic type of a canonical key on formType. Keys missing
// from the table are classified by name.
func (m *Mapper) Kind(formType, key string) model.FieldKind {
	if k, ok := m.kinds[formType][key]; ok {
		return k
	}
	return GuessKind(key)
}

// GuessKind classifies a canonical key by its name.
func GuessKind(key string) model.FieldKind {
	k := strings.ToLower(key)
	switch {
	case strings.Contains(k, "date"):
		return model.KindDate
	case strings.HasPrefix(k, "is_"), strings.HasPrefix(k, "has_"),
		strings.HasSuffix(k, "_paid"), strings.Contains(k, "reviewed"):
		return model.KindBool
	case strings.Contains(k, "amount"), strings.Contains(k, "year"),
		strings.Contains(k, "count"), strings.Contains(k, "number_of"):
		return model.KindNumber
	case strings.Contains(k, "level"):
		return model.KindChoice
	}
	return model.KindText
}

// FallbackKey lowercases label and joins its words with underscores. A label
// made only of symbols keeps its symbols; only a blank label yields "".
func FallbackKey(label string) string {
	if folded := normalize.Fold(label); folded != "" {
		return strings.ReplaceAll(folded, " ", "_")
	}
	return strings.Join(strings.Fields(strings.ToLower(label)), "_")
}
