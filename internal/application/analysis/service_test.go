package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/symptom-check/internal/domain/ai"
	"github.com/bryanwahyu/symptom-check/internal/domain/symptoms"
)

type fakeClient struct {
	mu       sync.Mutex
	reply    string
	err      error
	calls    int
	last     ai.CompletionRequest
	deadline time.Time
}

func (f *fakeClient) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = req
	f.deadline, _ = ctx.Deadline()
	return f.reply, f.err
}

func validReply(t *testing.T) (symptoms.Analysis, string) {
	t.Helper()
	a := symptoms.Analysis{
		Acknowledgement:      "It makes sense to wonder about a headache that sticks around.",
		Commonality:          "Many people get mild headaches over a few days.",
		PossibleExplanations: []string{"Tension", "Dehydration", "Eye strain", "Poor sleep", "Caffeine changes"},
		UsuallyOkayIf:        []string{"Mild", "Eases with rest", "No fever", "No vision changes"},
		SeekHelpIf:           []string{"Worst ever", "Stiff neck", "Confusion", "After injury"},
		SelfCareSteps:        []string{"Hydrate", "Rest", "Screen breaks", "Gentle stretching", "Track it"},
		SimilarQuestions:     1999,
	}
	b, err := json.Marshal(a)
	require.NoError(t, err)
	return a, string(b)
}

func TestAnalyzeNotConfigured(t *testing.T) {
	svc := NewService(nil)
	assert.False(t, svc.Configured())

	_, err := svc.Analyze(context.Background(), symptoms.Query{Text: "cough"})
	assert.ErrorIs(t, err, ai.ErrNotConfigured)
}

func TestAnalyzeParsedPassThrough(t *testing.T) {
	want, raw := validReply(t)
	client := &fakeClient{reply: "```json\n" + raw + "\n```"}
	svc := NewService(client)

	q := symptoms.Query{
		Text:     "I've had a mild headache for two days",
		BodyArea: "Head/Face",
		Duration: "About a week",
	}
	res, err := svc.Analyze(context.Background(), q)
	require.NoError(t, err)

	assert.False(t, res.IsFallback())
	assert.Equal(t, OutcomeParsed, res.Outcome)
	assert.NoError(t, res.Cause)
	assert.Equal(t, want, res.Analysis)

	assert.Equal(t, 1, client.calls)
	assert.Contains(t, client.last.System, "NEVER diagnose")
	assert.Contains(t, client.last.User, "Body area: Head/Face")
	assert.Contains(t, client.last.User, "Duration: About a week")
}

func TestAnalyzeFallbackOnUnparseableReply(t *testing.T) {
	client := &fakeClient{reply: "Sure! Here is some friendly advice without any JSON."}
	svc := NewService(client, WithSimilarQuestions(func() int { return 4321 }))

	res, err := svc.Analyze(context.Background(), symptoms.Query{Text: "itchy skin"})
	require.NoError(t, err)

	assert.True(t, res.IsFallback())
	assert.Equal(t, "fallback", res.Outcome.String())
	assert.Error(t, res.Cause)
	require.NoError(t, res.Analysis.Validate())
	assert.Equal(t, 4321, res.Analysis.SimilarQuestions)
	assert.Len(t, res.Analysis.PossibleExplanations, 5)
	assert.Len(t, res.Analysis.UsuallyOkayIf, 4)
	assert.Len(t, res.Analysis.SeekHelpIf, 4)
	assert.Len(t, res.Analysis.SelfCareSteps, 5)
}

func TestAnalyzeFallbackOnSchemaMismatch(t *testing.T) {
	client := &fakeClient{reply: `{"acknowledgement":"hi","commonality":"common","possibleExplanations":["a"],"usuallyOkayIf":[],"seekHelpIf":[],"selfCareSteps":[],"similarQuestions":12}`}
	svc := NewService(client)

	res, err := svc.Analyze(context.Background(), symptoms.Query{Text: "sore knee"})
	require.NoError(t, err)
	assert.True(t, res.IsFallback())
	assert.ErrorIs(t, res.Cause, symptoms.ErrSchema)
	assert.GreaterOrEqual(t, res.Analysis.SimilarQuestions, symptoms.MinSimilarQuestions)
	assert.LessOrEqual(t, res.Analysis.SimilarQuestions, symptoms.MaxSimilarQuestions)
}

func TestAnalyzeProviderErrorsAreReturned(t *testing.T) {
	for _, sentinel := range []error{ai.ErrQuotaExceeded, ai.ErrPaymentRequired, ai.ErrProviderFailed, ai.ErrEmptyCompletion} {
		t.Run(sentinel.Error(), func(t *testing.T) {
			client := &fakeClient{err: fmt.Errorf("%w: upstream detail", sentinel)}
			svc := NewService(client)

			_, err := svc.Analyze(context.Background(), symptoms.Query{Text: "tired"})
			assert.True(t, errors.Is(err, sentinel))
			assert.Equal(t, 1, client.calls)
		})
	}
}

func TestAnalyzeAppliesTimeout(t *testing.T) {
	_, raw := validReply(t)
	client := &fakeClient{reply: raw}
	svc := NewService(client, WithTimeout(5*time.Second))

	start := time.Now()
	_, err := svc.Analyze(context.Background(), symptoms.Query{Text: "tired"})
	require.NoError(t, err)

	require.False(t, client.deadline.IsZero())
	assert.WithinDuration(t, start.Add(5*time.Second), client.deadline, time.Second)
}

func TestRandomSimilarQuestionsRange(t *testing.T) {
	for i := 0; i < 10000; i++ {
		n := RandomSimilarQuestions()
		require.GreaterOrEqual(t, n, symptoms.MinSimilarQuestions)
		require.LessOrEqual(t, n, symptoms.MaxSimilarQuestions)
	}
}
