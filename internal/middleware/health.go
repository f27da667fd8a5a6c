package middleware

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"
)

// HealthChecker defines interface for health checking
type HealthChecker interface {
	Check(ctx context.Context) error
}

// DatabaseHealthChecker checks database health
type DatabaseHealthChecker struct {
	DB *sql.DB
}

func (d *DatabaseHealthChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return d.DB.PingContext(ctx)
}

// ProviderHealthChecker fails when the provider secret was missing at startup.
type ProviderHealthChecker struct {
	Configured bool
}

func (p ProviderHealthChecker) Check(context.Context) error {
	if !p.Configured {
		return errors.New("provider api key not configured")
	}
	return nil
}

// HealthStatus represents the health status
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
}

// CheckStatus represents individual check status. Failure detail goes to
// the log only.
type CheckStatus struct {
	Status string `json:"status"`
}

// ReadinessHandler runs every checker and answers 503 if any fails.
func ReadinessHandler(checkers map[string]HealthChecker, logger *zap.Logger) http.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	names := make([]string, 0, len(checkers))
	for name := range checkers {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := HealthStatus{
			Status:    "healthy",
			Timestamp: time.Now(),
			Checks:    make(map[string]CheckStatus, len(names)),
		}

		for _, name := range names {
			if err := checkers[name].Check(ctx); err != nil {
				health.Status = "unhealthy"
				logger.Warn("readiness check failed", zap.String("check", name), zap.Error(err))
				health.Checks[name] = CheckStatus{Status: "unhealthy"}
				continue
			}
			health.Checks[name] = CheckStatus{Status: "healthy"}
		}

		statusCode := http.StatusOK
		if health.Status == "unhealthy" {
			statusCode = http.StatusServiceUnavailable
		}
		_ = WriteJSON(w, statusCode, health)
	}
}

// LivenessHandler creates a liveness check handler (simplest check)
func LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
