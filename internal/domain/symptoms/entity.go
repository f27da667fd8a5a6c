package symptoms

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Bounds of the analysis schema.
const (
	MaxSymptomLength = 500

	MinSimilarQuestions = 800
	MaxSimilarQuestions = 5000
)

// Query is one user question. It lives for a single request/response cycle.
type Query struct {
	Text      string    `json:"text" yaml:"text"`
	BodyArea  string    `json:"bodyArea,omitempty" yaml:"bodyArea,omitempty"`
	Duration  string    `json:"duration,omitempty" yaml:"duration,omitempty"`
	AgeRange  string    `json:"ageRange,omitempty" yaml:"ageRange,omitempty"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Analysis is the structured answer rendered back to the user.
type Analysis struct {
	Acknowledgement      string   `json:"acknowledgement" yaml:"acknowledgement"`
	Commonality          string   `json:"commonality" yaml:"commonality"`
	PossibleExplanations []string `json:"possibleExplanations" yaml:"possibleExplanations"`
	UsuallyOkayIf        []string `json:"usuallyOkayIf" yaml:"usuallyOkayIf"`
	SeekHelpIf           []string `json:"seekHelpIf" yaml:"seekHelpIf"`
	SelfCareSteps        []string `json:"selfCareSteps" yaml:"selfCareSteps"`
	SimilarQuestions     int      `json:"similarQuestions" yaml:"similarQuestions"`
}

// ErrSchema marks an analysis that does not match the expected shape.
var ErrSchema = errors.New("analysis does not match schema")

// Validate reports whether a is schema-valid. Every text field and list item
// must be non-blank and each list must have its fixed length.
func (a Analysis) Validate() error {
	if strings.TrimSpace(a.Acknowledgement) == "" {
		return fmt.Errorf("%w: acknowledgement is empty", ErrSchema)
	}
	if strings.TrimSpace(a.Commonality) == "" {
		return fmt.Errorf("%w: commonality is empty", ErrSchema)
	}
	lists := []struct {
		name     string
		items    []string
		min, max int
	}{
		{"possibleExplanations", a.PossibleExplanations, 4, 5},
		{"usuallyOkayIf", a.UsuallyOkayIf, 4, 4},
		{"seekHelpIf", a.SeekHelpIf, 4, 4},
		{"selfCareSteps", a.SelfCareSteps, 5, 5},
	}
	for _, l := range lists {
		if len(l.items) < l.min || len(l.items) > l.max {
			return fmt.Errorf("%w: %s has %d items", ErrSchema, l.name, len(l.items))
		}
		for i, item := range l.items {
			if strings.TrimSpace(item) == "" {
				return fmt.Errorf("%w: %s[%d] is empty", ErrSchema, l.name, i)
			}
		}
	}
	if a.SimilarQuestions < MinSimilarQuestions || a.SimilarQuestions > MaxSimilarQuestions {
		return fmt.Errorf("%w: similarQuestions %d out of range", ErrSchema, a.SimilarQuestions)
	}
	return nil
}
