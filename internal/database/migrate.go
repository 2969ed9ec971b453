package database

import (
	"context"
	"fmt"
)

// Schema statements run one at a time; pgx's extended protocol does not
// accept multi-statement strings.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS api_keys (
		id          TEXT PRIMARY KEY,
		name        VARCHAR(256) NOT NULL,
		period      VARCHAR(100) NOT NULL,
		origin      VARCHAR(100) NOT NULL,
		value       INTEGER NOT NULL,
		image_url   TEXT,
		hashed_key  TEXT NOT NULL UNIQUE,
		last4       VARCHAR(4) NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		revoked     BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS api_keys_created_at_idx ON api_keys (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
		id                  TEXT PRIMARY KEY,
		user_id             TEXT NOT NULL UNIQUE,
		tier                TEXT NOT NULL DEFAULT 'free',
		keys_created_today  INTEGER NOT NULL DEFAULT 0,
		last_reset_date     TEXT NOT NULL,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

// Migrate bootstraps the schema. Every statement is idempotent, so running
// this on each startup is safe.
func (db *Database) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.PG.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	db.logger.Info("Database schema up to date")
	return nil
}
