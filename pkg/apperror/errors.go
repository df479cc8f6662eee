package apperror

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of an application error
type ErrorType string

const (
	TypeUpstream   ErrorType = "upstream"
	TypeTimeout    ErrorType = "timeout"
	TypeValidation ErrorType = "validation"
	TypeNotFound   ErrorType = "not_found"
	TypeInternal   ErrorType = "internal"
)

// AppError is a structured error carrying its category and optional details
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on the error type so callers can compare against the sentinels below.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new application error
func New(errType ErrorType, message string, err error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

var (
	ErrUpstream   = New(TypeUpstream, "upstream service failed", nil)
	ErrTimeout    = New(TypeTimeout, "upstream call timed out", nil)
	ErrValidation = New(TypeValidation, "invalid input", nil)
	ErrNotFound   = New(TypeNotFound, "resource not found", nil)
	ErrInternal   = New(TypeInternal, "internal error", nil)
)

func Upstream(message string, err error) *AppError {
	return New(TypeUpstream, message, err)
}

func Timeout(message string, err error) *AppError {
	return New(TypeTimeout, message, err)
}

func Validation(message string) *AppError {
	return New(TypeValidation, message, nil)
}

func NotFound(message string) *AppError {
	return New(TypeNotFound, message, nil)
}

func Internal(message string, err error) *AppError {
	return New(TypeInternal, message, err)
}

// IsRetryable reports whether the failure came from an external dependency
// (embedding or completion backend) and may succeed on a later attempt.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUpstream) || errors.Is(err, ErrTimeout)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// TypeOf returns the error type, or TypeInternal for foreign errors
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return TypeInternal
}
