// Package errors defines the sentinel errors shared across normsearch and the
// AppError wrapper that carries an HTTP status alongside a message.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrDataLoad     = errors.New("reference data load failed")
	ErrInvalidInput = errors.New("invalid input")
	ErrNotReady     = errors.New("search index not ready")
	ErrInternal     = errors.New("internal error")
	ErrTimeout      = errors.New("operation timed out")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// DataLoad builds the fatal startup error raised when the reference table
// cannot back a vector space.
func DataLoad(format string, args ...any) *AppError {
	return Newf(ErrDataLoad, http.StatusServiceUnavailable, format, args...)
}

// InvalidInput builds a client-facing validation error.
func InvalidInput(format string, args ...any) *AppError {
	return Newf(ErrInvalidInput, http.StatusBadRequest, format, args...)
}

func IsDataLoad(err error) bool {
	return errors.Is(err, ErrDataLoad)
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrDataLoad), errors.Is(err, ErrNotReady), errors.Is(err, ErrTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
