package options

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sync/atomic"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/docfill/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestProcedureSource_Options(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name FROM "lookup"."award_levels"()`)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), "National").
			AddRow(int64(2), "International"))

	src := NewProcedureSource(mock, map[string]string{"level": "lookup.award_levels"})
	got, err := src.Options(context.Background(), "level")
	require.NoError(t, err)
	assert.Equal(t, []model.Option{{ID: 1, Name: "National"}, {ID: 2, Name: "International"}}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProcedureSource_QuotesIdentifier(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name FROM "levels""; drop table x; --"()`)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}))

	src := NewProcedureSource(mock, map[string]string{"level": `levels"; drop table x; --`})
	got, err := src.Options(context.Background(), "level")
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProcedureSource_UnknownField(t *testing.T) {
	mock := newMock(t)
	src := NewProcedureSource(mock, map[string]string{"level": "get_levels"})

	got, err := src.Options(context.Background(), "status")
	require.NoError(t, err)
	assert.Nil(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProcedureSource_QueryError(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name FROM "get_levels"()`)).
		WillReturnError(errors.New("function does not exist"))

	src := NewProcedureSource(mock, map[string]string{"level": "get_levels"})
	_, err := src.Options(context.Background(), "level")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "options: call get_levels")
}

func TestProcedureSource_RowError(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name FROM "get_levels"()`)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), "National").
			AddRow(int64(2), "International").
			RowError(1, errors.New("connection lost")))

	src := NewProcedureSource(mock, map[string]string{"level": "get_levels"})
	_, err := src.Options(context.Background(), "level")
	require.Error(t, err)
}

func TestParseStatic(t *testing.T) {
	src, err := ParseStatic([]byte(`
level:
  - {id: 1, name: National}
  - {id: 2, name: International}
status:
  - id: 10
    name: Granted
`))
	require.NoError(t, err)

	got, err := src.Options(context.Background(), "level")
	require.NoError(t, err)
	assert.Equal(t, []model.Option{{ID: 1, Name: "National"}, {ID: 2, Name: "International"}}, got)

	got, _ = src.Options(context.Background(), "status")
	assert.Equal(t, []model.Option{{ID: 10, Name: "Granted"}}, got)

	got, _ = src.Options(context.Background(), "missing")
	assert.Nil(t, got)
}

func TestParseStatic_Invalid(t *testing.T) {
	_, err := ParseStatic([]byte("level: [unterminated"))
	require.Error(t, err)
}

func TestParseStatic_Empty(t *testing.T) {
	src, err := ParseStatic(nil)
	require.NoError(t, err)
	assert.NotNil(t, src)
}

func TestLoadStatic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.yaml")
	require.NoError(t, os.WriteFile(path, []byte("level:\n  - {id: 1, name: State}\n"), 0o600))

	src, err := LoadStatic(path)
	require.NoError(t, err)
	assert.Equal(t, []model.Option{{ID: 1, Name: "State"}}, src["level"])

	_, err = LoadStatic(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

type flakySource struct {
	fail  map[string]bool
	calls atomic.Int32
}

func (f *flakySource) Options(_ context.Context, field string) ([]model.Option, error) {
	f.calls.Add(1)
	if f.fail[field] {
		return nil, errors.New("boom")
	}
	if field == "empty" {
		return nil, nil
	}
	return []model.Option{{ID: 1, Name: field}}, nil
}

func TestLoadAll(t *testing.T) {
	src := &flakySource{fail: map[string]bool{"status": true}}
	got := LoadAll(context.Background(), src, []string{"level", "status", "empty", "category"}, 2)

	assert.Equal(t, map[string][]model.Option{
		"level":    {{ID: 1, Name: "level"}},
		"category": {{ID: 1, Name: "category"}},
	}, got)
	assert.Equal(t, int32(4), src.calls.Load())
}

func TestLoadAll_NoFields(t *testing.T) {
	got := LoadAll(context.Background(), StaticSource{}, nil, 0)
	assert.Empty(t, got)
}

func TestChain(t *testing.T) {
	primary := StaticSource{"level": {{ID: 1, Name: "National"}}}
	fallback := StaticSource{"level": {{ID: 9, Name: "Other"}}, "status": {{ID: 2, Name: "Filed"}}}
	c := Chain{&flakySource{fail: map[string]bool{"level": true, "status": true}}, primary, fallback}

	got, err := c.Options(context.Background(), "level")
	require.NoError(t, err)
	assert.Equal(t, []model.Option{{ID: 1, Name: "National"}}, got)

	got, err = c.Options(context.Background(), "status")
	require.NoError(t, err)
	assert.Equal(t, []model.Option{{ID: 2, Name: "Filed"}}, got)

	_, err = Chain{&flakySource{fail: map[string]bool{"x": true}}}.Options(context.Background(), "x")
	require.Error(t, err)
}
