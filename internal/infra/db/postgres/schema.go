package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
)

// Schema for the engine's two tables. The primary key on access_records.code
// is the store-level uniqueness guarantee the generator's retry loop relies
// on; application logic never pre-checks for collisions.
const schema = `
CREATE TABLE IF NOT EXISTS access_records (
    code         TEXT PRIMARY KEY,
    owner_name   TEXT NOT NULL,
    plan_type    TEXT NOT NULL CHECK (plan_type IN ('monthly', 'yearly')),
    status       TEXT NOT NULL CHECK (status IN ('active', 'frozen', 'banned')),
    is_used      BOOLEAN NOT NULL DEFAULT FALSE,
    generated_at TIMESTAMPTZ NOT NULL,
    expiry_date  TIMESTAMPTZ,
    last_login   TIMESTAMPTZ,
    CHECK (is_used OR expiry_date IS NULL)
);

CREATE TABLE IF NOT EXISTS audit_logs (
    id          TEXT PRIMARY KEY,
    admin_id    TEXT NOT NULL,
    action      TEXT NOT NULL,
    target_code TEXT,
    details     TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs (created_at DESC);
`

// EnsureSchema creates the tables when missing. Used by cmd/seed and tests.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
