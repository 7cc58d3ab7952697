package apperrors

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingOwner       = errors.New("dataset owner is required")

	// Upload pipeline failures surfaced to clients as 4xx.
	ErrEmptyDataset     = errors.New("CSV file is empty or has no data rows")
	ErrNoNumericColumns = errors.New("no numeric columns found in the dataset")
)

// ValidationError reports a problem with client input. Its message is safe to
// return to the client.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError with message.
func NewValidationError(message string) error {
	return &ValidationError{Message: message}
}
