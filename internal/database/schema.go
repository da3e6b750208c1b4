package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema creates the two document tables. seq preserves insertion order for
// listings; the email index is what makes registration conflicts atomic.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		seq BIGSERIAL,
		id  TEXT PRIMARY KEY,
		doc JSONB NOT NULL DEFAULT '{}'::jsonb
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users ((doc ->> 'email'))`,
	`CREATE INDEX IF NOT EXISTS users_seq_idx ON users (seq)`,

	`CREATE TABLE IF NOT EXISTS items (
		seq BIGSERIAL,
		id  TEXT PRIMARY KEY,
		doc JSONB NOT NULL DEFAULT '{}'::jsonb
	)`,
	`CREATE INDEX IF NOT EXISTS items_doc_idx ON items USING GIN (doc jsonb_path_ops)`,
	`CREATE INDEX IF NOT EXISTS items_seq_idx ON items (seq)`,
}

func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
