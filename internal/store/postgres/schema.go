package postgres

import (
	"context"
	"fmt"
)

// Schema is the DDL for the mouthpiece tables. [Store.Migrate] applies it.
const Schema = `
CREATE TABLE IF NOT EXISTS attempts (
    id          TEXT PRIMARY KEY,
    client_id   TEXT NOT NULL DEFAULT '',
    mode        TEXT NOT NULL DEFAULT 'word',
    target      TEXT NOT NULL,
    language    TEXT NOT NULL DEFAULT '',
    policy      TEXT NOT NULL DEFAULT '',
    expected    TEXT[] NOT NULL DEFAULT '{}',
    detected    TEXT[] NOT NULL DEFAULT '{}',
    score       DOUBLE PRECISION NOT NULL,
    accepted    BOOLEAN NOT NULL DEFAULT false,
    feedback    TEXT[] NOT NULL DEFAULT '{}',
    transcript  TEXT NOT NULL DEFAULT '',
    backend     TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_attempts_client_created ON attempts(client_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_attempts_created ON attempts(created_at DESC);

CREATE TABLE IF NOT EXISTS clients (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    language    TEXT NOT NULL DEFAULT '',
    notes       TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_clients_name ON clients(lower(name));

CREATE TABLE IF NOT EXISTS settings (
    key         TEXT PRIMARY KEY,
    value       TEXT NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate executes [Schema]. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}
