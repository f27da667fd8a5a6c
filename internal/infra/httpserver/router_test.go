package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/symptom-check/internal/application"
	"github.com/bryanwahyu/symptom-check/internal/application/analysis"
	"github.com/bryanwahyu/symptom-check/internal/domain/ai"
	"github.com/bryanwahyu/symptom-check/internal/domain/ratelimit"
	"github.com/bryanwahyu/symptom-check/internal/domain/symptoms"
	"github.com/bryanwahyu/symptom-check/internal/middleware"
)

const validReply = `{
  "acknowledgement": "A headache that lingers for two days is worth paying attention to.",
  "commonality": "Mild headaches lasting a few days are very common.",
  "possibleExplanations": ["Tension", "Dehydration", "Eye strain", "Poor sleep"],
  "usuallyOkayIf": ["Mild", "Eases with rest", "No fever", "No vision changes"],
  "seekHelpIf": ["Sudden and severe", "Stiff neck", "Confusion", "After a head injury"],
  "selfCareSteps": ["Drink water", "Rest", "Screen breaks", "Stretch", "Keep a diary"],
  "similarQuestions": 1234
}`

type fakeProvider struct {
	mu     sync.Mutex
	reply  string
	err    error
	panics bool
	calls  []ai.CompletionRequest
}

func (f *fakeProvider) Complete(_ context.Context, req ai.CompletionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.panics {
		panic("provider exploded")
	}
	return f.reply, f.err
}

func (f *fakeProvider) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type harness struct {
	handler  http.Handler
	provider *fakeProvider
	clock    *application.ManualClock
	registry *prometheus.Registry
}

func newHarness(t *testing.T, provider *fakeProvider) *harness {
	t.Helper()
	reg := prometheus.NewRegistry()
	m, err := middleware.NewMetrics(reg)
	require.NoError(t, err)

	clock := application.NewManualClock(time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC))
	store := middleware.NewMemoryStore(0, clock)
	t.Cleanup(func() { _ = store.Close() })

	var svc *analysis.Service
	if provider != nil {
		svc = analysis.NewService(provider, analysis.WithSimilarQuestions(func() int { return 4000 }))
	} else {
		svc = analysis.NewService(nil)
	}

	h := NewRouter(Deps{
		Analysis: svc,
		Store:    store,
		Policy:   ratelimit.Policy{Max: 10, Window: time.Minute},
		Clock:    clock,
		Metrics:  m,
		Checkers: map[string]middleware.HealthChecker{
			"provider": middleware.ProviderHealthChecker{Configured: svc.Configured()},
		},
	})
	return &harness{handler: h, provider: provider, clock: clock, registry: reg}
}

func (h *harness) post(body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/analyze-symptom", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body middleware.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Error
}

func TestPreflight(t *testing.T) {
	h := newHarness(t, &fakeProvider{reply: validReply})

	for _, withOrigin := range []bool{false, true} {
		req := httptest.NewRequest(http.MethodOptions, "/analyze-symptom", nil)
		if withOrigin {
			req.Header.Set("Origin", "https://example.org")
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			req.Header.Set("Access-Control-Request-Headers", "content-type")
		}
		rec := httptest.NewRecorder()
		h.handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Body.String())
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "authorization, x-client-info, apikey, content-type", rec.Header().Get("Access-Control-Allow-Headers"))
	}
	assert.Zero(t, h.provider.count())
}

func TestAnalyzeSuccess(t *testing.T) {
	h := newHarness(t, &fakeProvider{reply: "```json\n" + validReply + "\n```"})

	rec := h.post(`{"symptomText":"I've had a mild headache for two days","bodyArea":"Head/Face","duration":"Few days","ageRange":null}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got symptoms.Analysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.NoError(t, got.Validate())
	assert.Equal(t, 1234, got.SimilarQuestions)

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	require.Equal(t, 1, h.provider.count())
	user := h.provider.calls[0].User
	assert.Contains(t, user, "I've had a mild headache for two days")
	assert.Contains(t, user, "Body area: Head/Face")
	assert.Contains(t, user, "Duration: Few days")
	assert.NotContains(t, user, "Age range")

	assert.Equal(t, 1.0, counterValue(t, h, "analyses_total", "parsed"))
}

func TestAnalyzeFallback(t *testing.T) {
	h := newHarness(t, &fakeProvider{reply: "I think you should rest and drink water."})

	rec := h.post(`{"symptomText":"itchy scalp"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got symptoms.Analysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.NoError(t, got.Validate())
	assert.Equal(t, 4000, got.SimilarQuestions)
	assert.Len(t, got.PossibleExplanations, 5)

	assert.Equal(t, 1.0, counterValue(t, h, "analyses_total", "fallback"))
}

func TestAnalyzeSanitizesText(t *testing.T) {
	h := newHarness(t, &fakeProvider{reply: validReply})

	rec := h.post(`{"symptomText":"  sore\nthroat\\\\ and \"cough\"  "}`)
	require.Equal(t, http.StatusOK, rec.Code)

	user := h.provider.calls[0].User
	assert.Contains(t, user, `sore throat and \"cough\"`)
	assert.NotContains(t, user, "\nthroat")
}

func TestAnalyzeValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"missing text", `{}`, "Symptom description is required"},
		{"null body", `null`, "Symptom description is required"},
		{"wrong type", `{"symptomText":42}`, "Symptom description is required"},
		{"blank text", `{"symptomText":"   "}`, "Symptom description cannot be empty"},
		{"too long", fmt.Sprintf(`{"symptomText":%q}`, strings.Repeat("a", 501)), "Symptom description must be 500 characters or fewer"},
		{"bad body area", `{"symptomText":"rash","bodyArea":"Elbow"}`, "Invalid body area"},
		{"bad duration", `{"symptomText":"rash","duration":"forever"}`, "Invalid duration"},
		{"bad age range", `{"symptomText":"rash","ageRange":"99+"}`, "Invalid age range"},
		{"non string tag", `{"symptomText":"rash","ageRange":5}`, "Invalid age range"},
		{"malformed json", `{"symptomText":`, "Invalid request body"},
		{"array body", `["rash"]`, "Invalid request body"},
		{"oversized", fmt.Sprintf(`{"symptomText":"rash","pad":%q}`, strings.Repeat("x", MaxBodyBytes)), "Invalid request body"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, &fakeProvider{reply: validReply})
			rec := h.post(tc.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.want, errorMessage(t, rec))
			assert.Zero(t, h.provider.count())
		})
	}
}

func TestAnalyzeAcceptsBoundaryInput(t *testing.T) {
	h := newHarness(t, &fakeProvider{reply: validReply})

	rec := h.post(fmt.Sprintf(`{"symptomText":%q,"bodyArea":"","duration":null}`, strings.Repeat("é", 500)))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.post(fmt.Sprintf(`{"symptomText":%q}`, "  "+strings.Repeat("b", 500)+"  "))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestAnalyzeProviderFailures(t *testing.T) {
	cases := []struct {
		err    error
		status int
		want   string
	}{
		{ai.ErrQuotaExceeded, http.StatusTooManyRequests, "Service is busy. Please try again in a moment."},
		{ai.ErrPaymentRequired, http.StatusPaymentRequired, "Service temporarily unavailable. Please try again later."},
		{ai.ErrProviderFailed, http.StatusInternalServerError, "Unable to analyze symptom. Please try again."},
		{ai.ErrEmptyCompletion, http.StatusInternalServerError, "Unable to generate response. Please try again."},
		{context.Canceled, http.StatusInternalServerError, "An unexpected error occurred. Please try again."},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			h := newHarness(t, &fakeProvider{err: fmt.Errorf("%w: upstream said gateway-xyz", tc.err)})
			rec := h.post(`{"symptomText":"tired all the time"}`)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.want, errorMessage(t, rec))
			assert.NotContains(t, rec.Body.String(), "gateway-xyz")
			assert.Equal(t, 1, h.provider.count())
		})
	}
}

func TestAnalyzeNotConfigured(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.post(`{"symptomText":"tired"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Service temporarily unavailable", errorMessage(t, rec))

	rec = h.post(`{"symptomText":"tired","bodyArea":"Elbow"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzePanicReturnsGenericError(t *testing.T) {
	h := newHarness(t, &fakeProvider{panics: true})

	rec := h.post(`{"symptomText":"sharp pain in my side"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "An unexpected error occurred. Please try again.", errorMessage(t, rec))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, 1.0, counterValue(t, h, "http_requests_total", "500"))

	// the server keeps serving after a panic
	h.provider.panics = false
	h.provider.reply = validReply
	rec = h.post(`{"symptomText":"sharp pain in my side"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitFixedWindow(t *testing.T) {
	h := newHarness(t, &fakeProvider{reply: validReply})
	body := `{"symptomText":"cough"}`

	for i := 0; i < 10; i++ {
		rec := h.post(body, "X-Forwarded-For", "198.51.100.1, 10.0.0.1")
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}

	rec := h.post(body, "X-Forwarded-For", "198.51.100.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many requests. Please try again in a minute.", errorMessage(t, rec))
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, 10, h.provider.count())

	// another client keeps its own budget
	rec = h.post(body, "X-Real-IP", "203.0.113.9")
	assert.Equal(t, http.StatusOK, rec.Code)

	h.clock.Advance(61 * time.Second)
	rec = h.post(body, "X-Forwarded-For", "198.51.100.1")
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 1.0, counterValue(t, h, "rate_limited_total", ""))
}

func TestRateLimitCountsRejectedValidation(t *testing.T) {
	h := newHarness(t, &fakeProvider{reply: validReply})

	for i := 0; i < 10; i++ {
		rec := h.post(`{}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}
	rec := h.post(`{"symptomText":"cough"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Zero(t, h.provider.count())
}

func TestHealthAndReady(t *testing.T) {
	h := newHarness(t, nil)

	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	h.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var status middleware.HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "unhealthy", status.Status)
	assert.Equal(t, "unhealthy", status.Checks["provider"].Status)
}

func counterValue(t *testing.T, h *harness, name, label string) float64 {
	t.Helper()
	families, err := h.registry.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "symptom_check_"+name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if label != "" && (len(m.GetLabel()) == 0 || m.GetLabel()[0].GetValue() != label) {
				continue
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}
