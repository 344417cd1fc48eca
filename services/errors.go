package services

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrUsernameTaken        = errors.New("Username already taken.")
	ErrInvalidCredentials   = errors.New("Invalid username and/or password.")
	ErrSessionNotFound      = errors.New("session not found or expired")
	ErrAuthenticationNeeded = errors.New("Authentication required.")
)

// ValidationError is a rejected input; Message is safe to show to the user.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

// PermissionError is an authenticated request acting on something it
// does not own.
type PermissionError struct {
	Message string
}

func (e *PermissionError) Error() string {
	return e.Message
}

// NotFoundError names what was missing and matches ErrNotFound with errors.Is.
type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string {
	return e.What + " not found."
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// isUniqueViolation relies on the connection being opened with
// TranslateError so driver errors map onto gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
