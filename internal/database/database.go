package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx pool and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// Migrate creates the schema if it does not exist yet. The message id rides
// on BIGSERIAL so id assignment happens inside the database's critical
// section and stays strictly increasing under concurrent appends.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			username  TEXT PRIMARY KEY,
			avatar    TEXT NOT NULL DEFAULT '',
			bio       TEXT NOT NULL DEFAULT 'Available',
			online    BOOLEAN NOT NULL DEFAULT FALSE,
			last_seen TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id                   BIGSERIAL PRIMARY KEY,
			sender               TEXT NOT NULL,
			recipient            TEXT NOT NULL DEFAULT '',
			group_id             TEXT,
			body                 TEXT NOT NULL,
			kind                 TEXT NOT NULL DEFAULT 'text',
			status               INT NOT NULL DEFAULT 0,
			created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
			visible_to_sender    BOOLEAN NOT NULL DEFAULT TRUE,
			visible_to_recipient BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_pair
			ON messages (sender, recipient) WHERE group_id IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_messages_group
			ON messages (group_id, id) WHERE group_id IS NOT NULL`,
		`CREATE TABLE IF NOT EXISTS groups (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			icon       TEXT NOT NULL DEFAULT '',
			created_by TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS group_members (
			group_id  TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
			username  TEXT NOT NULL,
			joined_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (group_id, username)
		)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
