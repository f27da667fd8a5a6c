package symptoms

// ValidationError is a rejected request field. Msg is safe to show to users.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string { return e.Msg }

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}
