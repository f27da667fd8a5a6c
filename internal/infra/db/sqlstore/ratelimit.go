package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bryanwahyu/symptom-check/internal/domain/ratelimit"
)

// Dialect holds the statements that differ between SQL engines.
type Dialect struct {
	Name   string
	Schema string
	Seed   string // key, window_reset_at; inserts hits=0 or locks the existing row
	Select string // key -> hits, window_reset_at, row locked
	Upsert string // key, hits, window_reset_at
	Evict  string // now
}

// RateLimitStore keeps fixed-window counters in a SQL table so several API
// replicas share one budget per client.
type RateLimitStore struct {
	db *sql.DB
	d  Dialect
}

func NewRateLimitStore(db *sql.DB, d Dialect) *RateLimitStore {
	return &RateLimitStore{db: db, d: d}
}

// Migrate creates the counter table if needed.
func (s *RateLimitStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.d.Schema); err != nil {
		return fmt.Errorf("%s migrate rate_limits: %w", s.d.Name, err)
	}
	return nil
}

// Hit reads the entry under a row lock, applies the window rule and writes
// the result back in the same transaction. The row is seeded first so that
// concurrent first hits for a key queue on the same row lock.
func (s *RateLimitStore) Hit(ctx context.Context, key string, now time.Time, p ratelimit.Policy) (ratelimit.Decision, error) {
	now = now.UTC()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ratelimit.Decision{}, err
	}
	defer func() { _ = tx.Rollback() }()

	// hits=0 with a window ending at now+Window reads as a fresh, unused window
	if _, err := tx.ExecContext(ctx, s.d.Seed, key, now.Add(p.Window)); err != nil {
		return ratelimit.Decision{}, fmt.Errorf("seed rate limit: %w", err)
	}

	var current *ratelimit.Entry
	var e ratelimit.Entry
	err = tx.QueryRowContext(ctx, s.d.Select, key).Scan(&e.Count, &e.WindowResetAt)
	switch {
	case err == nil:
		current = &e
	case errors.Is(err, sql.ErrNoRows):
	default:
		return ratelimit.Decision{}, fmt.Errorf("select rate limit: %w", err)
	}

	next, decision := ratelimit.Next(current, now, p)
	if decision.Allowed {
		if _, err := tx.ExecContext(ctx, s.d.Upsert, key, next.Count, next.WindowResetAt); err != nil {
			return ratelimit.Decision{}, fmt.Errorf("upsert rate limit: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return ratelimit.Decision{}, err
	}
	return decision, nil
}

// Evict deletes rows whose window ended before now.
func (s *RateLimitStore) Evict(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, s.d.Evict, now.UTC())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Close is a no-op; the caller owns the *sql.DB.
func (s *RateLimitStore) Close() error { return nil }
