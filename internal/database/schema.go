package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema owned by the external store; bootstrapped here so a fresh database
// is usable without a separate migration step. The (room_id, seq) unique
// constraint is what makes duplicate sequence assignment impossible to
// persist.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS rooms (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		is_public  BOOLEAN NOT NULL DEFAULT true,
		owner_id   TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS memberships (
		user_id TEXT NOT NULL,
		room_id TEXT NOT NULL REFERENCES rooms(id),
		PRIMARY KEY (user_id, room_id)
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id         TEXT PRIMARY KEY,
		room_id    TEXT NOT NULL REFERENCES rooms(id),
		sender_id  TEXT NOT NULL,
		text       TEXT NOT NULL,
		seq        BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		deleted_at TIMESTAMPTZ,
		UNIQUE (room_id, seq)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_room_seq ON messages (room_id, seq)`,
}

func createSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
