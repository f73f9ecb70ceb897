// Package apperr defines the error kinds shared by the service and handler layers.
//
// Errors are plain sentinel values wrapped with fmt.Errorf("...: %w", ...).
// Handlers never inspect messages; they classify with errors.Is through Status.
package apperr

import (
	"context"
	"errors"
	"net/http"
)

var (
	ErrBadRequest  = errors.New("bad request")
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("service unavailable")
)

// Status maps an error chain to an HTTP status code.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Public reports whether the error message can be shown to clients.
// Server-side failures are replaced by a generic message.
func Public(err error) bool {
	return Status(err) < http.StatusInternalServerError
}
