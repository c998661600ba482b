// Package options loads dropdown candidates for choice fields.
package options

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/docfill/internal/db"
	"github.com/sells-group/docfill/internal/model"
)

// Source returns the options for a canonical field key. A field without a
// configured list yields nil and no error.
type Source interface {
	Options(ctx context.Context, field string) ([]model.Option, error)
}

// ProcedureSource reads options from set-returning database functions, one per
// field. Each function returns (id, name) rows.
type ProcedureSource struct {
	pool       db.Pool
	procedures map[string]string
}

// NewProcedureSource creates a ProcedureSource. procedures maps field keys to
// function names, optionally schema-qualified ("lookup.award_levels").
func NewProcedureSource(pool db.Pool, procedures map[string]string) *ProcedureSource {
	return &ProcedureSource{pool: pool, procedures: procedures}
}

// Options calls the function configured for field.
func (s *ProcedureSource) Options(ctx context.Context, field string) ([]model.Option, error) {
	fn, ok := s.procedures[field]
	if !ok || fn == "" {
		return nil, nil
	}

	query := "SELECT id, name FROM " + identifier(fn).Sanitize() + "()"
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrapf(err, "options: call %s", fn)
	}
	defer rows.Close()

	var out []model.Option
	for rows.Next() {
		var o model.Option
		if err := rows.Scan(&o.ID, &o.Name); err != nil {
			return nil, eris.Wrapf(err, "options: scan %s", fn)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "options: iterate %s", fn)
	}
	return out, nil
}

func identifier(name string) pgx.Identifier {
	return pgx.Identifier(strings.Split(name, "."))
}

// StaticSource serves options from memory, usually loaded from YAML.
type StaticSource map[string][]model.Option

// Options returns the list for field.
func (s StaticSource) Options(_ context.Context, field string) ([]model.Option, error) {
	return s[field], nil
}

// LoadStatic reads a YAML file of the form
//
//	level:
//	  - {id: 1, name: National}
//	  - {id: 2, name: International}
func LoadStatic(path string) (StaticSource, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from config
	if err != nil {
		return nil, eris.Wrapf(err, "options: read %s", path)
	}
	return ParseStatic(data)
}

// ParseStatic decodes YAML options.
func ParseStatic(data []byte) (StaticSource, error) {
	var s StaticSource
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, eris.Wrap(err, "options: parse yaml")
	}
	if s == nil {
		s = StaticSource{}
	}
	return s, nil
}

// Chain asks each source in turn and returns the first non-empty list.
type Chain []Source

// Options implements Source.
func (c Chain) Options(ctx context.Context, field string) ([]model.Option, error) {
	var firstErr error
	for _, src := range c {
		opts, err := src.Options(ctx, field)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if len(opts) > 0 {
			return opts, nil
		}
	}
	return nil, firstErr
}

// LoadAll fetches options for every field with at most limit calls in flight.
// Fields that fail are logged and left out; fields without options are
// omitted.
func LoadAll(ctx context.Context, src Source, fields []string, limit int) map[string][]model.Option {
	if limit <= 0 {
		limit = 4
	}
	log := zap.L().With(zap.String("component", "options"))

	var mu sync.Mutex
	out := make(map[string][]model.Option, len(fields))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, field := range fields {
		g.Go(func() error {
			opts, err := src.Options(gctx, field)
			if err != nil {
				log.Warn("options: load failed", zap.String("field", field), zap.Error(err))
				return nil
			}
			if len(opts) == 0 {
				return nil
			}
			mu.Lock()
			out[field] = opts
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	log.Debug("options: loaded", zap.Int("requested", len(fields)), zap.Int("fields", len(out)))
	return out
}
