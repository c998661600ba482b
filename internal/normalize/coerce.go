package normalize

import (
	"strings"

	"github.com/sells-group/docfill/internal/model"
)

// Coerce converts raw into the type expected by kind. When options are
// supplied the field is treated as a choice regardless of kind. A value no
// normalizer accepts is returned as the trimmed raw string, leaving rejection
// to the form's own validation.
func Coerce(kind model.FieldKind, raw, key string, options []model.Option) any {
	s := strings.TrimSpace(raw)

	if len(options) > 0 {
		if id, ok := Choice(s, key, options); ok {
			return id
		}
		return s
	}

	switch kind {
	case model.KindDate:
		if d, ok := Date(s, key); ok {
			return d
		}
	case model.KindBool:
		if b, ok := Bool(s, key); ok {
			return b
		}
	case model.KindNumber:
		if n, ok := Number(s, key); ok {
			return n
		}
	}
	return s
}
