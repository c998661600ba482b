package autofill

import (
	"maps"
	"slices"

	"github.com/sells-group/docfill/internal/model"
)

// Form holds the values of one open form and the keys that were last filled
// automatically. The auto-filled set is for highlighting only.
type Form struct {
	values     map[string]any
	autoFilled map[string]struct{}
}

// NewForm creates a form seeded with values typed by the user.
func NewForm(values map[string]any) *Form {
	f := &Form{
		values:     make(map[string]any, len(values)),
		autoFilled: make(map[string]struct{}),
	}
	maps.Copy(f.values, values)
	return f
}

// Fill writes fields into empty keys only and marks them auto-filled. It
// returns the keys it wrote, sorted. Suitable as Config.Apply.
func (f *Form) Fill(fields model.ProcessedFieldSet) []string {
	var filled []string
	for key, v := range fields {
		if isBlank(v) {
			continue
		}
		if cur, ok := f.values[key]; ok && !isBlank(cur) {
			continue
		}
		f.values[key] = v
		f.autoFilled[key] = struct{}{}
		filled = append(filled, key)
	}
	slices.Sort(filled)
	return filled
}

// Apply is Fill without the result, matching Config.Apply.
func (f *Form) Apply(fields model.ProcessedFieldSet) { f.Fill(fields) }

// Change records a user edit of key.
func (f *Form) Change(key string, v any) {
	f.values[key] = v
	delete(f.autoFilled, key)
}

// Blur records that the user left key.
func (f *Form) Blur(key string) {
	delete(f.autoFilled, key)
}

// Reset empties the form.
func (f *Form) Reset() {
	clear(f.values)
	clear(f.autoFilled)
}

// Value returns the current value of key.
func (f *Form) Value(key string) (any, bool) {
	v, ok := f.values[key]
	return v, ok
}

// Values returns a copy of every value.
func (f *Form) Values() map[string]any {
	return maps.Clone(f.values)
}

// IsAutoFilled reports whether key still holds an automatically filled value.
func (f *Form) IsAutoFilled(key string) bool {
	_, ok := f.autoFilled[key]
	return ok
}

// AutoFilled lists the auto-filled keys, sorted.
func (f *Form) AutoFilled() []string {
	return slices.Sorted(maps.Keys(f.autoFilled))
}
