package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/docfill/internal/db"
)

// PostgresStore implements Backend on a pgx pool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres connects to Postgres and returns a PostgresStore that owns the pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, connString, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS session_entries (
	session_id TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (session_id, key)
);

CREATE INDEX IF NOT EXISTS idx_session_entries_updated_at ON session_entries(updated_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Session(id string) KV {
	return &pgSession{pool: s.pool, id: id}
}

func (s *PostgresStore) PruneSessions(ctx context.Context, maxAge time.Duration) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM session_entries WHERE session_id IN (
			SELECT session_id FROM session_entries
			GROUP BY session_id
			HAVING MAX(updated_at) < $1
		)`, time.Now().UTC().Add(-maxAge))
	if err != nil {
		return 0, eris.Wrap(err, "postgres: prune sessions")
	}
	return int(tag.RowsAffected()), nil
}

type pgSession struct {
	pool db.Pool
	id   string
}

func (s *pgSession) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM session_entries WHERE session_id = $1 AND key = $2`,
		s.id, key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, eris.Wrapf(err, "postgres: get %s", key)
	}
	return value, true, nil
}

func (s *pgSession) Set(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO session_entries (session_id, key, value, updated_at) VALUES ($1, $2, $3, now())
		ON CONFLICT (session_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		s.id, key, value,
	)
	return eris.Wrapf(err, "postgres: set %s", key)
}

func (s *pgSession) Delete(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM session_entries WHERE session_id = $1 AND key = $2`,
		s.id, key,
	)
	return eris.Wrapf(err, "postgres: delete %s", key)
}

func (s *pgSession) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM session_entries WHERE session_id = $1 AND starts_with(key, $2)`,
		s.id, prefix,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: delete prefix %s", prefix)
	}
	return int(tag.RowsAffected()), nil
}
