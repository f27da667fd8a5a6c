package middleware

import (
	"strings"
	"unicode/utf8"

	"github.com/bryanwahyu/symptom-check/internal/domain/symptoms"
)

// Input validation and sanitization utilities

// ValidateSymptomText checks the free-text field and returns it sanitized.
// Length is counted in characters after trimming, before sanitizing.
func ValidateSymptomText(v any) (string, error) {
	text, ok := v.(string)
	if !ok || text == "" {
		return "", symptoms.NewValidationError(symptoms.FieldSymptomText, "Symptom description is required")
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", symptoms.NewValidationError(symptoms.FieldSymptomText, "Symptom description cannot be empty")
	}
	if utf8.RuneCountInString(trimmed) > symptoms.MaxSymptomLength {
		return "", symptoms.NewValidationError(symptoms.FieldSymptomText, "Symptom description must be 500 characters or fewer")
	}

	return SanitizeSymptomText(trimmed), nil
}

// ValidateChoice checks an optional tag against its allow-list. Absent, null
// and empty values are valid and yield "".
func ValidateChoice(field string, v any) (string, error) {
	if v == nil {
		return "", nil
	}
	value, ok := v.(string)
	if !ok {
		return "", symptoms.NewValidationError(field, "Invalid "+field)
	}
	if value == "" {
		return "", nil
	}
	if !symptoms.IsAllowed(field, value) {
		return "", symptoms.NewValidationError(field, "Invalid "+field)
	}
	return value, nil
}

// SanitizeSymptomText removes characters that could break out of the quoted
// prompt: backslashes go, line breaks become spaces, other control
// characters except tab are dropped.
func SanitizeSymptomText(input string) string {
	input = strings.ReplaceAll(input, "\\", "")
	input = strings.ReplaceAll(input, "\r\n", " ")

	var result strings.Builder
	result.Grow(len(input))
	for _, r := range input {
		switch {
		case r == '\n' || r == '\r':
			result.WriteByte(' ')
		case r >= 32 || r == '\t':
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}
