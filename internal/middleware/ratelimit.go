package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/symptom-check/internal/application"
	"github.com/bryanwahyu/symptom-check/internal/domain/ratelimit"
)

// window is the counter for one client key
type window struct {
	mu      sync.Mutex
	entry   ratelimit.Entry
	used    bool
	evicted bool
}

// MemoryStore keeps fixed-window counters in process memory. Counters are
// lost on restart; that is accepted for this store.
type MemoryStore struct {
	mu      sync.RWMutex
	windows map[string]*window

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewMemoryStore creates the store. When janitorInterval > 0 a goroutine
// evicts expired keys on that interval until Close is called.
func NewMemoryStore(janitorInterval time.Duration, clock application.Clock) *MemoryStore {
	s := &MemoryStore{
		windows: make(map[string]*window),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	if janitorInterval > 0 {
		go s.cleanup(janitorInterval, clock)
	} else {
		close(s.done)
	}
	return s
}

func (s *MemoryStore) getWindow(key string) *window {
	s.mu.RLock()
	w, exists := s.windows[key]
	s.mu.RUnlock()

	if exists {
		return w
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock
	if w, exists := s.windows[key]; exists {
		return w
	}

	w = &window{}
	s.windows[key] = w
	return w
}

// Hit records one request for key.
func (s *MemoryStore) Hit(_ context.Context, key string, now time.Time, p ratelimit.Policy) (ratelimit.Decision, error) {
	for {
		if decision, ok := s.getWindow(key).hit(now, p); ok {
			return decision, nil
		}
	}
}

// hit applies one request to w. It reports false when Evict dropped w from
// the map between lookup and lock; the caller must look the key up again.
func (w *window) hit(now time.Time, p ratelimit.Policy) (ratelimit.Decision, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.evicted {
		return ratelimit.Decision{}, false
	}
	var current *ratelimit.Entry
	if w.used {
		current = &w.entry
	}
	next, decision := ratelimit.Next(current, now, p)
	w.entry = next
	w.used = true
	return decision, true
}

// Evict removes keys whose window ended before now.
func (s *MemoryStore) Evict(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, w := range s.windows {
		w.mu.Lock()
		if w.used && now.After(w.entry.WindowResetAt) {
			w.evicted = true
			delete(s.windows, key)
			removed++
		}
		w.mu.Unlock()
	}
	return removed, nil
}

// Len is the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.windows)
}

// Close stops the janitor and waits for it to exit.
func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.stop) })
	<-s.done
	return nil
}

func (s *MemoryStore) cleanup(interval time.Duration, clock application.Clock) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			_, _ = s.Evict(context.Background(), clock.Now())
		}
	}
}

// ClientKey derives the rate limit key from forwarding headers. Requests
// without either header share the "unknown" bucket.
func ClientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return ratelimit.UnknownClient
}

// RateLimitMiddleware rejects a client once it has used its fixed window budget.
// A failing store lets the request through; the limiter is best-effort.
func RateLimitMiddleware(store ratelimit.Store, policy ratelimit.Policy, clock application.Clock, logger *zap.Logger, metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			key := ClientKey(r)
			now := clock.Now()

			decision, err := store.Hit(r.Context(), key, now, policy)
			if err != nil {
				logger.Warn("rate limit store unavailable", zap.String("client", key), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			if !decision.Allowed {
				logger.Info("rate limit exceeded", zap.String("client", key), zap.Int("count", decision.Count))
				metrics.RateLimited()
				if retry := decision.RetryAfter(now); retry > 0 {
					w.Header().Set("Retry-After", retryAfterSeconds(retry))
				}
				WriteError(w, http.StatusTooManyRequests, "Too many requests. Please try again in a minute.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
