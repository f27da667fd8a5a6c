package prompt

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/bryanwahyu/symptom-check/internal/domain/symptoms"
)

var (
	leadingFence  = regexp.MustCompile("^```[A-Za-z0-9_+-]*")
	trailingFence = regexp.MustCompile("```$")
)

// StripFences removes one markdown code fence such as ```json ... ``` around
// the payload. Unfenced content is only trimmed.
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	s = strings.TrimSpace(leadingFence.ReplaceAllString(s, ""))
	s = strings.TrimSpace(trailingFence.ReplaceAllString(s, ""))
	return s
}

// ParseAnalysis decodes the provider reply and checks it against the schema.
// Field values are returned exactly as the provider wrote them.
func ParseAnalysis(raw string) (symptoms.Analysis, error) {
	var a symptoms.Analysis
	if err := json.Unmarshal([]byte(StripFences(raw)), &a); err != nil {
		return symptoms.Analysis{}, fmt.Errorf("decode analysis: %w", err)
	}
	if err := a.Validate(); err != nil {
		return symptoms.Analysis{}, err
	}
	return a, nil
}

// FallbackAnalysis is the generic, schema-valid answer used when the
// provider reply cannot be parsed.
func FallbackAnalysis(similarQuestions int) symptoms.Analysis {
	return symptoms.Analysis{
		Acknowledgement: "Thank you for sharing this with us. It takes courage to ask about something that concerns you, and you're not alone in wondering about this.",
		Commonality:     "Many people experience similar symptoms and have the same questions. It's completely normal to want to understand what your body is telling you.",
		PossibleExplanations: []string{
			"Stress or anxiety, which can manifest in many physical ways",
			"Changes in sleep patterns or daily routine",
			"Dietary factors or hydration levels",
			"Normal bodily variations that most people experience",
			"Environmental factors like weather or seasonal changes",
		},
		UsuallyOkayIf: []string{
			"The symptom is mild and doesn't significantly affect daily activities",
			"It comes and goes rather than being constant or worsening",
			"You're not experiencing other concerning symptoms alongside it",
			"It tends to improve with rest or basic self-care",
		},
		SeekHelpIf: []string{
			"The symptom is severe or progressively getting worse",
			"It's accompanied by fever, severe pain, or difficulty breathing",
			"It significantly impacts your daily life, work, or sleep",
			"You have a gut feeling that something is seriously wrong",
		},
		SelfCareSteps: []string{
			"Keep a journal noting when the symptom occurs and potential triggers",
			"Ensure you're getting adequate sleep and staying well-hydrated",
			"Try gentle relaxation techniques like deep breathing or meditation",
			"Consider whether recent stress might be playing a role",
			"Monitor for a few days before becoming overly concerned",
		},
		SimilarQuestions: similarQuestions,
	}
}
