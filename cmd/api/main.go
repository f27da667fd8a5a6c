package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/symptom-check/internal/application"
	"github.com/bryanwahyu/symptom-check/internal/application/analysis"
	"github.com/bryanwahyu/symptom-check/internal/config"
	"github.com/bryanwahyu/symptom-check/internal/domain/ai"
	"github.com/bryanwahyu/symptom-check/internal/domain/ratelimit"
	openaiclient "github.com/bryanwahyu/symptom-check/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/symptom-check/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/symptom-check/internal/infra/db/postgres"
	"github.com/bryanwahyu/symptom-check/internal/infra/db/sqlstore"
	"github.com/bryanwahyu/symptom-check/internal/infra/httpserver"
	"github.com/bryanwahyu/symptom-check/internal/logging"
	"github.com/bryanwahyu/symptom-check/internal/middleware"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file (default $CONFIG_PATH)")
	flag.Parse()

	// load config
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.JSON)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("symptom-api stopped with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	logger.Info("symptom-api stopped")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := application.SystemClock{}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := middleware.NewMetrics(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	// provider client stays a nil interface when the secret is missing
	var client ai.Client
	if cfg.Provider.Configured() {
		client = openaiclient.NewClient(openaiclient.Options{
			APIKey:      cfg.Provider.APIKey,
			BaseURL:     cfg.Provider.BaseURL,
			Model:       cfg.Provider.Model,
			Temperature: cfg.Provider.Temperature,
			MaxTokens:   cfg.Provider.MaxTokens,
			Timeout:     cfg.Provider.Timeout,
		})
	} else {
		logger.Warn("AI_GATEWAY_API_KEY is not set; analyze requests will fail until it is provided")
	}
	svc := analysis.NewService(client,
		analysis.WithTimeout(cfg.Provider.Timeout),
		analysis.WithLogger(logger.Named("analysis")),
	)

	checkers := map[string]middleware.HealthChecker{
		"provider": middleware.ProviderHealthChecker{Configured: svc.Configured()},
	}

	store, db, err := openStore(ctx, cfg, clock)
	if err != nil {
		return err
	}
	defer store.Close()
	if db != nil {
		defer db.Close()
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
	}

	handler := httpserver.NewRouter(httpserver.Deps{
		Analysis: svc,
		Store:    store,
		Policy:   ratelimit.Policy{Max: cfg.RateLimit.Max, Window: cfg.RateLimit.Window},
		Clock:    clock,
		Logger:   logger.Named("http"),
		Metrics:  metrics,
		Checkers: checkers,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server listening", zap.String("address", addr), zap.String("rate_limit_backend", cfg.RateLimit.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})

	if metricsServer != nil {
		g.Go(func() error {
			logger.Info("metrics server listening", zap.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	if sqlStore, ok := store.(*sqlstore.RateLimitStore); ok && cfg.RateLimit.JanitorInterval > 0 {
		g.Go(func() error {
			evictLoop(gctx, sqlStore, cfg.RateLimit.JanitorInterval, clock, logger)
			return nil
		})
	}

	// graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown error", zap.Error(err))
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics server shutdown", zap.Error(err))
			}
		}
		return nil
	})

	return g.Wait()
}

// openStore picks the rate-limit backend. SQL backends also return the
// *sql.DB so readiness can ping it.
func openStore(ctx context.Context, cfg *config.Config, clock application.Clock) (ratelimit.Store, *sql.DB, error) {
	var (
		db    *sql.DB
		store *sqlstore.RateLimitStore
		err   error
	)
	switch cfg.RateLimit.Backend {
	case config.BackendMySQL:
		if db, err = mysqlp.Connect(ctx, cfg.MySQLDSN()); err != nil {
			return nil, nil, fmt.Errorf("mysql connect error: %w", err)
		}
		store = mysqlp.NewRateLimitStore(db)
	case config.BackendPostgres:
		if db, err = postgresp.Connect(ctx, cfg.PostgresDSN()); err != nil {
			return nil, nil, fmt.Errorf("postgres connect error: %w", err)
		}
		store = postgresp.NewRateLimitStore(db)
	default:
		return middleware.NewMemoryStore(cfg.RateLimit.JanitorInterval, clock), nil, nil
	}

	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return store, db, nil
}

func evictLoop(ctx context.Context, store ratelimit.Store, interval time.Duration, clock application.Clock, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.Evict(ctx, clock.Now())
			if err != nil {
				logger.Warn("rate limit eviction failed", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Debug("evicted expired rate limit entries", zap.Int("count", n))
			}
		}
	}
}
