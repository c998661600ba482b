package model

// FieldKind is the semantic type a form field expects.
type FieldKind string

const (
	KindText   FieldKind = "text"
	KindDate   FieldKind = "date"
	KindBool   FieldKind = "bool"
	KindNumber FieldKind = "number"
	KindChoice FieldKind = "choice"
)

// Valid reports whether k is one of the known kinds.
func (k FieldKind) Valid() bool {
	switch k {
	case KindText, KindDate, KindBool, KindNumber, KindChoice:
		return true
	}
	return false
}

// Option is one candidate of a dropdown list.
type Option struct {
	ID   int64  `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// ProcessedFieldSet maps canonical form-field keys to typed values
// (string, float64, bool, int64 option id or an ISO date string).
type ProcessedFieldSet map[string]any
