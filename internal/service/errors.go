package service

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrInvalidCredentials is returned when login fails. The cause is not
// distinguished so callers cannot probe for registered emails.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ValidationError marks a request that failed business validation and should
// be reported to the caller as a bad request rather than a server fault.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

// NewValidationError creates a ValidationError with a formatted message
func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
