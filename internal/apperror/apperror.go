// Package apperror defines the error kinds surfaced to callers of the
// write and read operations. Kinds are matched with errors.Is.
package apperror

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("unavailable")
)

// AppError carries a kind, a human-readable message and, for validation
// failures, the field-level messages keyed by field name.
type AppError struct {
	Err     error
	Message string
	Details map[string][]string
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Validation builds a validation error from field messages. The message
// lists every field in a stable order, e.g. "Title: too short, Tags: required".
func Validation(details map[string][]string) *AppError {
	fields := make([]string, 0, len(details))
	for f := range details {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", capitalize(f), strings.Join(details[f], ", ")))
	}
	return &AppError{
		Err:     ErrValidation,
		Message: strings.Join(parts, ", "),
		Details: details,
	}
}

// ValidationFailed is a single-field shorthand for Validation.
func ValidationFailed(field, message string) *AppError {
	return Validation(map[string][]string{field: {message}})
}

func Unauthorized() *AppError {
	return &AppError{Err: ErrUnauthorized, Message: "Unauthorized"}
}

func Forbidden(message string) *AppError {
	return &AppError{Err: ErrForbidden, Message: message}
}

// NotFound produces "<Resource> not found".
func NotFound(resource string) *AppError {
	return &AppError{Err: ErrNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

// Conflict marks a write that lost a race at commit time. Callers may retry.
func Conflict(message string) *AppError {
	return &AppError{Err: ErrConflict, Message: message}
}

func Unavailable(message string) *AppError {
	return &AppError{Err: ErrUnavailable, Message: message}
}

// IsRetryable reports whether err is a conflict that a resubmission may resolve.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
