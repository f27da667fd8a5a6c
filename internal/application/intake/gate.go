package intake

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/bryanwahyu/symptom-check/internal/application"
	"github.com/bryanwahyu/symptom-check/internal/domain/symptoms"
)

var (
	ErrEmptySymptom     = errors.New("Please describe your symptom")
	ErrConsentRequired  = errors.New("Please accept the disclaimer")
	ErrSubmitInProgress = errors.New("A question is already being checked")
)

// CrisisPhrases trigger the emergency view. Matching is a case-insensitive
// substring test.
var CrisisPhrases = []string{
	"suicide",
	"kill myself",
	"end my life",
	"self-harm",
	"hurt myself",
	"don't want to live",
	"want to die",
}

var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "ʼ", "'")

// ContainsCrisisPhrase reports whether text mentions any crisis phrase.
func ContainsCrisisPhrase(text string) bool {
	t := strings.ToLower(apostrophes.Replace(text))
	for _, p := range CrisisPhrases {
		if strings.Contains(t, p) {
			return true
		}
	}
	return false
}

// Analyzer is the remote analysis service as seen from the client.
type Analyzer interface {
	Analyze(ctx context.Context, q symptoms.Query) (symptoms.Analysis, error)
}

type View int

const (
	ViewResponse View = iota
	ViewEmergency
)

func (v View) String() string {
	if v == ViewEmergency {
		return "emergency"
	}
	return "response"
}

type Submission struct {
	Text      string
	BodyArea  string
	Duration  string
	AgeRange  string
	Consented bool
}

// Outcome tells the caller which view to render. Query and Analysis are only
// set for ViewResponse.
type Outcome struct {
	View     View
	Query    symptoms.Query
	Analysis symptoms.Analysis
}

type Gate struct {
	analyzer Analyzer
	clock    application.Clock

	mu         sync.Mutex
	submitting bool
}

func NewGate(analyzer Analyzer, clock application.Clock) *Gate {
	if clock == nil {
		clock = application.SystemClock{}
	}
	return &Gate{analyzer: analyzer, clock: clock}
}

// Submit runs the local checks and, when they pass, asks the analyzer.
// Analyzer errors are returned unchanged so their message can be shown as is.
func (g *Gate) Submit(ctx context.Context, s Submission) (Outcome, error) {
	if strings.TrimSpace(s.Text) == "" {
		return Outcome{}, ErrEmptySymptom
	}
	if ContainsCrisisPhrase(s.Text) {
		return Outcome{View: ViewEmergency}, nil
	}
	if !s.Consented {
		return Outcome{}, ErrConsentRequired
	}

	if !g.begin() {
		return Outcome{}, ErrSubmitInProgress
	}
	defer g.end()

	q := symptoms.Query{
		Text:      s.Text,
		BodyArea:  s.BodyArea,
		Duration:  s.Duration,
		AgeRange:  s.AgeRange,
		Timestamp: g.clock.Now().UTC(),
	}
	a, err := g.analyzer.Analyze(ctx, q)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{View: ViewResponse, Query: q, Analysis: a}, nil
}

// Submitting reports whether a submission is in flight.
func (g *Gate) Submitting() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.submitting
}

func (g *Gate) begin() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.submitting {
		return false
	}
	g.submitting = true
	return true
}

func (g *Gate) end() {
	g.mu.Lock()
	g.submitting = false
	g.mu.Unlock()
}
