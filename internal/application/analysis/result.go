package analysis

import "github.com/bryanwahyu/symptom-check/internal/domain/symptoms"

// Outcome tells a real answer apart from a substituted one.
type Outcome int

const (
	OutcomeParsed Outcome = iota
	OutcomeFallback
)

func (o Outcome) String() string {
	if o == OutcomeFallback {
		return "fallback"
	}
	return "parsed"
}

// Result is either Parsed(analysis) or FallbackApplied(analysis, cause).
// Callers see the same payload either way.
type Result struct {
	Analysis symptoms.Analysis
	Outcome  Outcome
	// Cause is the parse or schema error behind a fallback; nil when parsed.
	Cause error
}

// Parsed wraps an analysis taken from the provider reply.
func Parsed(a symptoms.Analysis) Result {
	return Result{Analysis: a, Outcome: OutcomeParsed}
}

// FallbackApplied wraps the substitute analysis and the error that forced it.
func FallbackApplied(a symptoms.Analysis, cause error) Result {
	return Result{Analysis: a, Outcome: OutcomeFallback, Cause: cause}
}

func (r Result) IsFallback() bool { return r.Outcome == OutcomeFallback }
