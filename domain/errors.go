package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another *Error carrying the same code and message, so wrapped
// sentinels still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError reports malformed or missing input.
func ValidationError(message string) *Error {
	return NewError(ErrCodeInvalid, message)
}

// NotFoundError reports an unknown entity.
func NotFoundError(message string) *Error {
	return NewError(ErrCodeNotFound, message)
}

// AuthError reports a missing or unverifiable identity.
func AuthError(message string, err error) *Error {
	return WrapError(ErrCodeUnauthorized, message, err)
}

// InternalError wraps a store or infrastructure failure. The message is safe
// to log; transports must not echo it to clients.
func InternalError(message string, err error) *Error {
	return WrapError(ErrCodeInternal, message, err)
}

// Common domain errors.
var (
	ErrUserNotFound   = NotFoundError("user not found")
	ErrTaskNotFound   = NotFoundError("task not found")
	ErrUserExists     = NewError(ErrCodeConflict, "user already exists")
	ErrTaskConflict   = NewError(ErrCodeConflict, "task was modified concurrently")
	ErrUnauthorized   = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidPayload = ValidationError("invalid payload")
	ErrInvalidStatus  = ValidationError("invalid status")
	ErrInvalidDueDate = ValidationError("invalid date or time format")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
