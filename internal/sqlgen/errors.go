package sqlgen

import (
	"errors"
	"fmt"
)

// ErrValidation is wrapped by every *ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationError reports a request that was rejected before any SQL was
// produced: a bad identifier, a missing required sub-structure, or an
// out-of-range argument.
type ValidationError struct {
	// Op names the step that rejected the request (e.g. "join[0]", "aggs").
	Op string

	// Err is the underlying cause; *ident.Error for identifier rejections.
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes both ErrValidation and the cause to errors.Is / errors.As.
func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}

func invalid(op string, err error) *ValidationError {
	return &ValidationError{Op: op, Err: err}
}

func invalidf(op, format string, args ...any) *ValidationError {
	return &ValidationError{Op: op, Err: fmt.Errorf(format, args...)}
}

// IsValidationError reports whether err is a validation failure.
// Uses errors.Is to handle wrapped errors.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}
