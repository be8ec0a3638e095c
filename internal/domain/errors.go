package domain

import "errors"

var ErrUserNotFound = errors.New("user not found")

// ValidationError carries the first rule a request body violated.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
