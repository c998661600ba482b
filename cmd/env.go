package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/docfill/internal/db"
	"github.com/sells-group/docfill/internal/extraction"
	"github.com/sells-group/docfill/internal/fieldmap"
	"github.com/sells-group/docfill/internal/options"
	"github.com/sells-group/docfill/internal/store"
)

// appEnv holds the backend, mapper and option source every command shares.
type appEnv struct {
	Backend store.Backend
	Mapper  *fieldmap.Mapper
	Options options.Source // may be nil

	pool db.Pool // owned separately from Backend when not nil
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Backend != nil {
		_ = e.Backend.Close()
	}
	if e.pool != nil {
		e.pool.Close()
	}
}

// Session opens the extraction store of the configured session and
// rehydrates it.
func (e *appEnv) Session(ctx context.Context) *extraction.Store {
	st := extraction.New(e.Backend.Session(cfg.Session.ID),
		extraction.WithPersistAnalysis(cfg.Session.PersistAnalysis),
		extraction.WithLogger(zap.L().With(zap.String("session", cfg.Session.ID))),
	)
	st.Load(ctx)
	return st
}

// initEnv validates cfg for mode and builds the environment. Callers should
// defer env.Close().
func initEnv(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	env := &appEnv{}
	poolCfg := &db.PoolConfig{MaxConns: cfg.Store.MaxConns, MinConns: cfg.Store.MinConns}

	var shared db.Pool
	switch cfg.Store.Driver {
	case "memory":
		env.Backend = store.NewMemory()
	case "sqlite":
		b, err := store.NewSQLite(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		env.Backend = b
	case "postgres":
		pool, err := db.Connect(ctx, cfg.Store.DatabaseURL, poolCfg)
		if err != nil {
			return nil, eris.Wrap(err, "connect store")
		}
		shared = pool
		env.Backend = store.NewPostgresFromPool(pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}

	if err := env.Backend.Migrate(ctx); err != nil {
		env.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	mapper := fieldmap.New()
	if cfg.Mapping.File != "" {
		m, err := fieldmap.LoadFile(mapper, cfg.Mapping.File)
		if err != nil {
			env.Close()
			return nil, err
		}
		mapper = m
	}
	env.Mapper = mapper

	var sources options.Chain
	if len(cfg.Options.Procedures) > 0 {
		if shared == nil {
			pool, err := db.Connect(ctx, cfg.Store.DatabaseURL, poolCfg)
			if err != nil {
				env.Close()
				return nil, eris.Wrap(err, "connect options database")
			}
			env.pool = pool
			shared = pool
		}
		sources = append(sources, options.NewProcedureSource(shared, cfg.Options.Procedures))
	}
	if cfg.Options.File != "" {
		static, err := options.LoadStatic(cfg.Options.File)
		if err != nil {
			env.Close()
			return nil, err
		}
		sources = append(sources, static)
	}
	switch len(sources) {
	case 0:
	case 1:
		env.Options = sources[0]
	default:
		env.Options = sources
	}

	return env, nil
}
