// Package postgres implements the store driver on PostgreSQL with the
// pgvector extension providing nearest-neighbor search.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/ayaka-io/animatch/internal/profile"
	"github.com/ayaka-io/animatch/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a database specified by its database driver name and a
// driver-specific data source name.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	db, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", profile.DSN)
	}

	return &DB{db: db, profile: profile}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Migrate creates the schema. The embedding column dimension follows
// the configured embedding model; changing models requires re-ingestion.
func (d *DB) Migrate(ctx context.Context) error {
	dims := d.profile.EmbeddingDimensions
	if dims <= 0 {
		dims = 1024
	}

	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS anime (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			genres TEXT NOT NULL DEFAULT '[]',
			year INTEGER NOT NULL DEFAULT 0,
			season TEXT NOT NULL DEFAULT '',
			rating DOUBLE PRECISION NOT NULL DEFAULT 0,
			rank DOUBLE PRECISION NOT NULL DEFAULT 0,
			num_favorites DOUBLE PRECISION NOT NULL DEFAULT 0,
			num_list_users DOUBLE PRECISION NOT NULL DEFAULT 0,
			feedback DOUBLE PRECISION NOT NULL DEFAULT 0,
			image_url TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS user_account (
			user_id TEXT PRIMARY KEY,
			watched_list TEXT NOT NULL DEFAULT '[]'
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS anime_embedding (
			anime_id TEXT PRIMARY KEY REFERENCES anime(id) ON DELETE CASCADE,
			embedding vector(%d) NOT NULL,
			model TEXT NOT NULL DEFAULT '',
			updated_ts BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`, dims),
		`CREATE INDEX IF NOT EXISTS idx_anime_embedding_cosine
			ON anime_embedding USING hnsw (embedding vector_cosine_ops)`,
	}

	for _, stmt := range stmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to migrate schema")
		}
	}
	return nil
}

// placeholder returns the n-th positional parameter, e.g. $1.
func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

// placeholders returns a comma-joined parameter list, e.g. $1, $2, $3.
func placeholders(n int) string {
	list := []string{}
	for i := 1; i <= n; i++ {
		list = append(list, placeholder(i))
	}
	return strings.Join(list, ", ")
}
