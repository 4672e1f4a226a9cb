package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means no row matched the requested key.
	ErrNotFound = errors.New("not found")

	// ErrConflict means a unique key already exists.
	ErrConflict = errors.New("already exists")

	// ErrKindInUse means a kind cannot be deleted while posts reference it.
	ErrKindInUse = errors.New("kind is in use")

	// ErrUnknownKind means a post referenced a kind that is not registered.
	ErrUnknownKind = errors.New("unknown kind")
)

// Classifier failures. Implementations wrap one of these so callers can tell
// an unreachable service from a reply that could not be used.
var (
	ErrClassifierUnavailable = errors.New("classifier unavailable")
	ErrClassifierMalformed   = errors.New("classifier response malformed")
	ErrClassifierEmpty       = errors.New("classifier response empty")
)

// ValidationError is returned for input the service refuses to accept.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError formats a ValidationError.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
