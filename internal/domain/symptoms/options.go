package symptoms

import "slices"

// Allow-lists for the optional tags. The service-side lists are authoritative.
var (
	BodyAreas = []string{
		"Head/Face", "Neck", "Chest", "Abdomen", "Back",
		"Arms/Hands", "Legs/Feet", "Skin", "Other",
	}
	Durations = []string{
		"Just started", "Few hours", "Few days",
		"About a week", "Longer than a week",
	}
	AgeRanges = []string{
		"Under 18", "18-30", "31-45", "46-60", "Over 60",
	}
)

// Tag names used in validation messages and prompts.
const (
	FieldSymptomText = "symptom description"
	FieldBodyArea    = "body area"
	FieldDuration    = "duration"
	FieldAgeRange    = "age range"
)

// Allowed returns the allow-list for a tag field.
func Allowed(field string) []string {
	switch field {
	case FieldBodyArea:
		return BodyAreas
	case FieldDuration:
		return Durations
	case FieldAgeRange:
		return AgeRanges
	}
	return nil
}

// IsAllowed reports whether value is one of the literal options for field.
func IsAllowed(field, value string) bool {
	return slices.Contains(Allowed(field), value)
}
