package mysql

import (
	"database/sql"

	"github.com/bryanwahyu/symptom-check/internal/infra/db/sqlstore"
)

// Dialect is the MySQL flavour of the rate_limits statements.
var Dialect = sqlstore.Dialect{
	Name: "mysql",
	Schema: `
CREATE TABLE IF NOT EXISTS rate_limits (
  client_key      VARCHAR(255) NOT NULL PRIMARY KEY,
  hits            INT          NOT NULL,
  window_reset_at DATETIME(6)  NOT NULL,
  INDEX idx_rate_limits_reset (window_reset_at)
)`,
	Seed: `
INSERT INTO rate_limits (client_key, hits, window_reset_at)
VALUES (?, 0, ?)
ON DUPLICATE KEY UPDATE hits = hits`,
	Select: `SELECT hits, window_reset_at FROM rate_limits WHERE client_key = ? FOR UPDATE`,
	Upsert: `
INSERT INTO rate_limits (client_key, hits, window_reset_at)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE
 hits = VALUES(hits),
 window_reset_at = VALUES(window_reset_at)`,
	Evict: `DELETE FROM rate_limits WHERE window_reset_at < ?`,
}

func NewRateLimitStore(db *sql.DB) *sqlstore.RateLimitStore {
	return sqlstore.NewRateLimitStore(db, Dialect)
}
