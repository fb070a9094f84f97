// Package sqlite implements the store driver on SQLite.
//
// SQLite is supported on a best-effort basis for development and testing
// only. There is no vector extension here: embeddings are stored as
// BLOBs and similarity search is a brute-force cosine scan computed in
// Go. Fine for a dev corpus, not for 20k+ records in production.
package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/ayaka-io/animatch/internal/profile"
	"github.com/ayaka-io/animatch/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the SQLite database at the DSN path.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	// With the modernc.org/sqlite driver each pragma must be prefixed
	// with `_pragma=`. WAL journal mode prevents locking issues.
	sqliteDB, err := sql.Open("sqlite", profile.DSN+"?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	// A single connection is optimal for SQLite with WAL.
	sqliteDB.SetMaxOpenConns(1)
	sqliteDB.SetMaxIdleConns(1)
	sqliteDB.SetConnMaxLifetime(0)

	return &DB{db: sqliteDB, profile: profile}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS anime (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			genres TEXT NOT NULL DEFAULT '[]',
			year INTEGER NOT NULL DEFAULT 0,
			season TEXT NOT NULL DEFAULT '',
			rating REAL NOT NULL DEFAULT 0,
			rank REAL NOT NULL DEFAULT 0,
			num_favorites REAL NOT NULL DEFAULT 0,
			num_list_users REAL NOT NULL DEFAULT 0,
			feedback REAL NOT NULL DEFAULT 0,
			image_url TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS user_account (
			user_id TEXT PRIMARY KEY,
			watched_list TEXT NOT NULL DEFAULT '[]'
		)`,
		`CREATE TABLE IF NOT EXISTS anime_embedding (
			anime_id TEXT PRIMARY KEY REFERENCES anime(id) ON DELETE CASCADE,
			embedding BLOB NOT NULL,
			model TEXT NOT NULL DEFAULT '',
			updated_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now'))
		)`,
	}

	for _, stmt := range stmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to migrate schema")
		}
	}
	return nil
}
