package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Backend using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// updated_at holds unix milliseconds so comparisons stay numeric.
const sqliteMigration = `
CREATE TABLE IF NOT EXISTS session_entries (
	session_id TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (session_id, key)
);

CREATE INDEX IF NOT EXISTS idx_session_entries_updated_at ON session_entries(updated_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Session(id string) KV {
	return &sqliteSession{db: s.db, id: id}
}

func (s *SQLiteStore) PruneSessions(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge).UnixMilli()
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM session_entries WHERE session_id IN (
			SELECT session_id FROM session_entries
			GROUP BY session_id
			HAVING MAX(updated_at) < ?
		)`, cutoff)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prune sessions")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prune sessions rows affected")
	}
	return int(n), nil
}

type sqliteSession struct {
	db *sql.DB
	id string
}

func (s *sqliteSession) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM session_entries WHERE session_id = ? AND key = ?`,
		s.id, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, eris.Wrapf(err, "sqlite: get %s", key)
	}
	return value, true, nil
}

func (s *sqliteSession) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_entries (session_id, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (session_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.id, key, value, time.Now().UnixMilli(),
	)
	return eris.Wrapf(err, "sqlite: set %s", key)
}

func (s *sqliteSession) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM session_entries WHERE session_id = ? AND key = ?`,
		s.id, key,
	)
	return eris.Wrapf(err, "sqlite: delete %s", key)
}

func (s *sqliteSession) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM session_entries WHERE session_id = ? AND substr(key, 1, ?) = ?`,
		s.id, len(prefix), prefix,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: delete prefix %s", prefix)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete prefix rows affected")
	}
	return int(n), nil
}
