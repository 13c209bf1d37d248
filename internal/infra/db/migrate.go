package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Linked accounts and the poll cursors stored for them.
var upStatements = []string{
	`
CREATE TABLE IF NOT EXISTS user_providers (
    id               TEXT PRIMARY KEY,
    user_id          TEXT NOT NULL,
    provider         VARCHAR(20) NOT NULL,
    provider_user_id TEXT NOT NULL,
    account          JSONB,
    tokens           JSONB NOT NULL DEFAULT '{}',
    sort_order       INTEGER NOT NULL DEFAULT 0,
    date_added       TIMESTAMPTZ NOT NULL DEFAULT now(),
    needs_reauth     BOOLEAN NOT NULL DEFAULT FALSE,
    reauth_code      INTEGER,
    last_polled_at   TIMESTAMPTZ,
    UNIQUE (user_id, provider, provider_user_id)
)`,
	`
CREATE TABLE IF NOT EXISTS poll_cursors (
    user_provider_id TEXT NOT NULL REFERENCES user_providers(id) ON DELETE CASCADE,
    kind             VARCHAR(20) NOT NULL,
    since            TEXT NOT NULL,
    seen_ids         JSONB NOT NULL DEFAULT '[]',
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (user_provider_id, kind)
)`,
	`ALTER TABLE poll_cursors ADD COLUMN IF NOT EXISTS seen_ids JSONB NOT NULL DEFAULT '[]'`,
	`CREATE INDEX IF NOT EXISTS idx_user_providers_pollable ON user_providers(provider) WHERE needs_reauth = FALSE`,
	`CREATE INDEX IF NOT EXISTS idx_user_providers_user_id ON user_providers(user_id, sort_order)`,
}

var downStatements = []string{
	`DROP TABLE IF EXISTS poll_cursors`,
	`DROP INDEX IF EXISTS idx_user_providers_user_id`,
	`DROP INDEX IF EXISTS idx_user_providers_pollable`,
	`DROP TABLE IF EXISTS user_providers`,
}

// MigrateUp creates the schema. Every statement is idempotent.
func MigrateUp(ctx context.Context, db *sql.DB) error {
	return exec(ctx, db, upStatements)
}

// MigrateDown drops the schema and all stored accounts.
func MigrateDown(ctx context.Context, db *sql.DB) error {
	return exec(ctx, db, downStatements)
}

func exec(ctx context.Context, db *sql.DB, stmts []string) error {
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration statement %d: %w", i+1, err)
		}
	}
	return nil
}
