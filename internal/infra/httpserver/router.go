package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/bryanwahyu/symptom-check/internal/application"
	"github.com/bryanwahyu/symptom-check/internal/application/analysis"
	"github.com/bryanwahyu/symptom-check/internal/domain/ai"
	"github.com/bryanwahyu/symptom-check/internal/domain/ratelimit"
	"github.com/bryanwahyu/symptom-check/internal/domain/symptoms"
	"github.com/bryanwahyu/symptom-check/internal/middleware"
)

// MaxBodyBytes caps the analyze request body.
const MaxBodyBytes = 16 << 10

// Messages shown to callers. They never carry upstream detail.
const (
	msgInvalidBody   = "Invalid request body"
	msgBusy          = "Service is busy. Please try again in a moment."
	msgPayment       = "Service temporarily unavailable. Please try again later."
	msgProvider      = "Unable to analyze symptom. Please try again."
	msgEmpty         = "Unable to generate response. Please try again."
	msgNotConfigured = "Service temporarily unavailable"
	msgUnexpected    = middleware.UnexpectedErrorMessage
)

var errBadBody = errors.New("invalid request body")

type Deps struct {
	Analysis *analysis.Service
	Store    ratelimit.Store
	Policy   ratelimit.Policy
	Clock    application.Clock
	Logger   *zap.Logger
	Metrics  *middleware.Metrics
	Checkers map[string]middleware.HealthChecker
}

type Router struct {
	svc     *analysis.Service
	clock   application.Clock
	logger  *zap.Logger
	metrics *middleware.Metrics
}

func NewRouter(d Deps) http.Handler {
	if d.Clock == nil {
		d.Clock = application.SystemClock{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	r := &Router{svc: d.Analysis, clock: d.Clock, logger: d.Logger, metrics: d.Metrics}

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.LoggingMiddleware(d.Logger))
	mux.Use(d.Metrics.MetricsMiddleware)
	mux.Use(middleware.Recoverer(d.Logger))
	mux.Use(middleware.CORSPreflight())
	mux.Use(middleware.CORSHeaders)

	mux.Get("/health", middleware.LivenessHandler)
	mux.Get("/ready", middleware.ReadinessHandler(d.Checkers, d.Logger))

	limit := middleware.RateLimitMiddleware(d.Store, d.Policy, d.Clock, d.Logger, d.Metrics)
	mux.With(limit).Post("/analyze-symptom", r.wrap(r.handleAnalyze))

	mux.Options("/analyze-symptom", middleware.PreflightHandler)
	mux.Options("/*", middleware.PreflightHandler)

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			status, msg := r.mapError(err)
			r.logger.Warn("request failed",
				zap.Int("status", status),
				zap.String("request_id", middleware.RequestIDFromContext(req.Context())),
				zap.Error(err),
			)
			middleware.WriteError(w, status, msg)
		}
	}
}

func (r *Router) mapError(err error) (int, string) {
	var ve *symptoms.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Msg
	case errors.Is(err, errBadBody):
		return http.StatusBadRequest, msgInvalidBody
	case errors.Is(err, ai.ErrQuotaExceeded):
		return http.StatusTooManyRequests, msgBusy
	case errors.Is(err, ai.ErrPaymentRequired):
		return http.StatusPaymentRequired, msgPayment
	case errors.Is(err, ai.ErrEmptyCompletion):
		return http.StatusInternalServerError, msgEmpty
	case errors.Is(err, ai.ErrProviderFailed):
		return http.StatusInternalServerError, msgProvider
	case errors.Is(err, ai.ErrNotConfigured):
		return http.StatusInternalServerError, msgNotConfigured
	default:
		return http.StatusInternalServerError, msgUnexpected
	}
}

// analyzeRequest keeps fields untyped so a wrong JSON type becomes a field
// error rather than a decode error.
type analyzeRequest struct {
	SymptomText any `json:"symptomText"`
	BodyArea    any `json:"bodyArea"`
	Duration    any `json:"duration"`
	AgeRange    any `json:"ageRange"`
}

// POST /analyze-symptom
// Body: {"symptomText": "...", "bodyArea": "...", "duration": "...", "ageRange": "..."}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body analyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, MaxBodyBytes)).Decode(&body); err != nil {
		return errors.Join(errBadBody, err)
	}

	q, err := buildQuery(body)
	if err != nil {
		return err
	}
	q.Timestamp = r.clock.Now().UTC()

	start := time.Now()
	res, err := r.svc.Analyze(req.Context(), q)
	if !errors.Is(err, ai.ErrNotConfigured) {
		r.metrics.ObserveProviderCall(time.Since(start), errorKind(err))
	}
	if err != nil {
		return err
	}

	r.metrics.ObserveAnalysis(res.Outcome.String())
	return middleware.WriteJSON(w, http.StatusOK, res.Analysis)
}

func buildQuery(body analyzeRequest) (symptoms.Query, error) {
	text, err := middleware.ValidateSymptomText(body.SymptomText)
	if err != nil {
		return symptoms.Query{}, err
	}
	bodyArea, err := middleware.ValidateChoice(symptoms.FieldBodyArea, body.BodyArea)
	if err != nil {
		return symptoms.Query{}, err
	}
	duration, err := middleware.ValidateChoice(symptoms.FieldDuration, body.Duration)
	if err != nil {
		return symptoms.Query{}, err
	}
	ageRange, err := middleware.ValidateChoice(symptoms.FieldAgeRange, body.AgeRange)
	if err != nil {
		return symptoms.Query{}, err
	}
	return symptoms.Query{Text: text, BodyArea: bodyArea, Duration: duration, AgeRange: ageRange}, nil
}

func errorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ai.ErrQuotaExceeded):
		return "quota"
	case errors.Is(err, ai.ErrPaymentRequired):
		return "payment"
	case errors.Is(err, ai.ErrEmptyCompletion):
		return "empty"
	default:
		return "failed"
	}
}
