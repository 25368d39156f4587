package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS login_attempts (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	username     TEXT    NOT NULL,
	ip           TEXT    NOT NULL,
	success      INTEGER NOT NULL,
	attempted_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_login_attempts_user_time
	ON login_attempts (username, attempted_at);

CREATE TABLE IF NOT EXISTS audit_log (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	username   TEXT    NOT NULL,
	action     TEXT    NOT NULL,
	target     TEXT    NOT NULL DEFAULT '',
	details    TEXT    NOT NULL DEFAULT '',
	ip_address TEXT    NOT NULL DEFAULT '',
	status     TEXT    NOT NULL DEFAULT 'success',
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS quota_policies (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	name          TEXT    NOT NULL UNIQUE,
	soft_limit_mb INTEGER NOT NULL,
	hard_limit_mb INTEGER NOT NULL,
	description   TEXT    NOT NULL DEFAULT ''
);
`

// Store is the sqlite persistence layer: login attempts, the audit trail
// and named quota policies. Safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	// sqlite allows one writer; a single connection avoids SQLITE_BUSY and
	// keeps :memory: databases from silently forking per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL; PRAGMA busy_timeout = 5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
