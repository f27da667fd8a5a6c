package ratelimit

import (
	"context"
	"time"
)

// Store keeps per-key counters. Hit must read, compare and update the entry
// for key atomically with respect to other Hits on the same key.
type Store interface {
	Hit(ctx context.Context, key string, now time.Time, p Policy) (Decision, error)
	// Evict drops entries whose window ended before now.
	Evict(ctx context.Context, now time.Time) (int, error)
	Close() error
}
