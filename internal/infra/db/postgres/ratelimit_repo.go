package postgres

import (
	"database/sql"

	"github.com/bryanwahyu/symptom-check/internal/infra/db/sqlstore"
)

var Dialect = sqlstore.Dialect{
	Name: "postgres",
	Schema: `
CREATE TABLE IF NOT EXISTS rate_limits (
  client_key      TEXT        PRIMARY KEY,
  hits            INTEGER     NOT NULL,
  window_reset_at TIMESTAMPTZ NOT NULL
)`,
	Seed: `
INSERT INTO rate_limits (client_key, hits, window_reset_at)
VALUES ($1, 0, $2)
ON CONFLICT (client_key) DO UPDATE SET hits = rate_limits.hits`,
	Select: `SELECT hits, window_reset_at FROM rate_limits WHERE client_key = $1 FOR UPDATE`,
	Upsert: `
INSERT INTO rate_limits (client_key, hits, window_reset_at)
VALUES ($1, $2, $3)
ON CONFLICT (client_key) DO UPDATE SET
 hits = EXCLUDED.hits,
 window_reset_at = EXCLUDED.window_reset_at`,
	Evict: `DELETE FROM rate_limits WHERE window_reset_at < $1`,
}

func NewRateLimitStore(db *sql.DB) *sqlstore.RateLimitStore {
	return sqlstore.NewRateLimitStore(db, Dialect)
}
