package ratelimit

import "time"

// UnknownClient is the bucket shared by every request without an address header.
const UnknownClient = "unknown"

// Policy is a fixed window budget.
type Policy struct {
	Max    int
	Window time.Duration
}

// Entry is the counter kept for one client key.
type Entry struct {
	Count         int
	WindowResetAt time.Time
}

// Decision is the outcome of recording one request.
type Decision struct {
	Allowed bool
	Count   int
	ResetAt time.Time
}

// RetryAfter is how long the caller should wait before the window resets.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	if d.Allowed || !d.ResetAt.After(now) {
		return 0
	}
	return d.ResetAt.Sub(now)
}

// Next applies one request at now to e (nil meaning no entry yet) and returns
// the updated entry with the decision. An elapsed window restarts at count 1;
// a full window rejects without counting.
func Next(e *Entry, now time.Time, p Policy) (Entry, Decision) {
	if e == nil || now.After(e.WindowResetAt) {
		fresh := Entry{Count: 1, WindowResetAt: now.Add(p.Window)}
		return fresh, Decision{Allowed: true, Count: 1, ResetAt: fresh.WindowResetAt}
	}
	if e.Count >= p.Max {
		return *e, Decision{Allowed: false, Count: e.Count, ResetAt: e.WindowResetAt}
	}
	next := Entry{Count: e.Count + 1, WindowResetAt: e.WindowResetAt}
	return next, Decision{Allowed: true, Count: next.Count, ResetAt: next.WindowResetAt}
}
