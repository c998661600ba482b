package fieldmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/docfill/internal/model"
)

const mappingYAML = `
form_types:
  - category: Award
    sub_category: Student
    form_type: student_award
forms:
  student_award:
    "Student Name": {key: student_name, kind: text}
    "Event Date": {key: event_date, kind: date}
  award:
    "Honour": {key: award_name}
`

func TestParse_LayersOverDefaults(t *testing.T) {
	t.Parallel()

	base := New()
	m, err := Parse(base, []byte(mappingYAML))
	require.NoError(t, err)

	assert.Equal(t, "student_award", m.FormType("Award", "Student"))
	assert.Equal(t, FormAward, m.FormType("Award", ""))

	key, ok := m.Resolve("student_award", "student name", nil)
	assert.True(t, ok)
	assert.Equal(t, "student_name", key)
	assert.Equal(t, model.KindDate, m.Kind("student_award", "event_date"))

	key, _ = m.Resolve(FormAward, "Honour", nil)
	assert.Equal(t, "award_name", key)
	key, _ = m.Resolve(FormAward, "Prize Money", nil)
	assert.Equal(t, "amount", key, "defaults survive the merge")

	// base is untouched
	assert.Equal(t, FormAward, base.FormType("Award", "Student"))
	key, _ = base.Resolve(FormAward, "Honour", nil)
	assert.Equal(t, "honour", key)
}

func TestParse_MissingKindDefaultsToText(t *testing.T) {
	t.Parallel()

	m, err := Parse(New(), []byte(mappingYAML))
	require.NoError(t, err)
	assert.Equal(t, model.KindText, m.Kind(FormAward, "award_name"))
}

func TestParse_RejectsUnknownKind(t *testing.T) {
	t.Parallel()

	_, err := Parse(New(), []byte("forms:\n  award:\n    Title: {key: award_name, kind: blob}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown kind")
}

func TestParse_InvalidYAML(t *testing.T) {
	t.Parallel()

	_, err := Parse(New(), []byte("forms: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal mapping file")
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "mapping.yaml")
	require.NoError(t, os.WriteFile(path, []byte(mappingYAML), 0o644))

	m, err := LoadFile(New(), path)
	require.NoError(t, err)
	assert.Equal(t, "student_award", m.FormType("award", "student"))

	_, err = LoadFile(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read mapping file")
}
