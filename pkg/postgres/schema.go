package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema is applied statement by statement; every statement is idempotent.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS index_versions (
		version      TEXT PRIMARY KEY,
		source       TEXT NOT NULL,
		path         TEXT NOT NULL,
		crates       INTEGER NOT NULL,
		items        INTEGER NOT NULL,
		size_bytes   BIGINT NOT NULL,
		published_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS index_loads (
		id          BIGSERIAL PRIMARY KEY,
		version     TEXT NOT NULL DEFAULT '',
		source      TEXT NOT NULL,
		trigger     TEXT NOT NULL,
		crates      INTEGER NOT NULL DEFAULT 0,
		items       INTEGER NOT NULL DEFAULT 0,
		warnings    INTEGER NOT NULL DEFAULT 0,
		duration_ms BIGINT NOT NULL DEFAULT 0,
		error       TEXT NOT NULL DEFAULT '',
		loaded_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS index_loads_loaded_at ON index_loads (loaded_at DESC)`,
	`CREATE TABLE IF NOT EXISTS analytics_snapshots (
		id          BIGSERIAL PRIMARY KEY,
		data        JSONB NOT NULL,
		captured_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// EnsureSchema creates the tables if they are missing.
func (c *Client) EnsureSchema(ctx context.Context) error {
	return c.InTx(ctx, func(tx *sql.Tx) error {
		for i, stmt := range Schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("applying schema statement %d: %w", i, err)
			}
		}
		return nil
	})
}
