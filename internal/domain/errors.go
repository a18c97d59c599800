package domain

import (
	"errors"
	"fmt"
)

// ErrValidation marks input that was rejected before any assignment work began.
// Handlers map it to 400 responses with errors.Is.
var ErrValidation = errors.New("validation failed")

// ErrNotFound marks a lookup of something the stored data does not have.
var ErrNotFound = errors.New("not found")

// Invalidf formats a validation error wrapping ErrValidation.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
