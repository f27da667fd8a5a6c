package analysis

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/symptom-check/internal/domain/ai"
	"github.com/bryanwahyu/symptom-check/internal/domain/symptoms"
	"github.com/bryanwahyu/symptom-check/internal/infra/ai/prompt"
)

// DefaultTimeout bounds one provider call.
const DefaultTimeout = 30 * time.Second

// Service turns a validated query into an analysis. It is safe for
// concurrent use and keeps no state between requests.
type Service struct {
	client  ai.Client
	timeout time.Duration
	logger  *zap.Logger
	similar func() int
}

type Option func(*Service)

// WithTimeout overrides DefaultTimeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithSimilarQuestions replaces the random source for the fallback counter.
func WithSimilarQuestions(fn func() int) Option {
	return func(s *Service) { s.similar = fn }
}

// NewService builds the service. A nil client means the provider secret was
// missing; every Analyze then fails with ai.ErrNotConfigured.
func NewService(client ai.Client, opts ...Option) *Service {
	s := &Service{
		client:  client,
		timeout: DefaultTimeout,
		logger:  zap.NewNop(),
		similar: RandomSimilarQuestions,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configured reports whether a provider client is available.
func (s *Service) Configured() bool { return s.client != nil }

// Analyze calls the provider once and never retries. Provider failures come
// back as errors wrapping an ai sentinel; unusable replies are replaced by
// the fallback analysis and reported through Result only.
func (s *Service) Analyze(ctx context.Context, q symptoms.Query) (Result, error) {
	if s.client == nil {
		s.logger.Error("provider api key is not configured")
		return Result{}, ai.ErrNotConfigured
	}

	s.logger.Info("processing symptom query", zap.String("body_area", orUnspecified(q.BodyArea)))

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	content, err := s.client.Complete(ctx, ai.CompletionRequest{
		System: prompt.GetSystemPrompt(),
		User:   prompt.GetUserPrompt(q),
	})
	if err != nil {
		s.logger.Error("provider call failed", zap.Error(err))
		return Result{}, err
	}

	parsed, err := prompt.ParseAnalysis(content)
	if err != nil {
		s.logger.Warn("provider reply unusable, applying fallback", zap.Error(err))
		return FallbackApplied(prompt.FallbackAnalysis(s.similar()), err), nil
	}

	s.logger.Info("generated symptom analysis")
	return Parsed(parsed), nil
}

// RandomSimilarQuestions is uniform over [MinSimilarQuestions, MaxSimilarQuestions].
func RandomSimilarQuestions() int {
	span := symptoms.MaxSimilarQuestions - symptoms.MinSimilarQuestions + 1
	return symptoms.MinSimilarQuestions + rand.IntN(span)
}

func orUnspecified(s string) string {
	if s == "" {
		return "not specified"
	}
	return s
}
