package clientcli

import (
	"errors"
	"net/http"
	"strconv"
)

// Errors for input validation.
var (
	ErrConfigRequired = errors.New("config is required")
	ErrEmptyToken     = errors.New("archive token is required")
	ErrEmptyArchive   = errors.New("server returned an empty archive")
)

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	// Code is the machine-readable error code of JSON responses, if any.
	Code string
	Body string
}

func (e *APIError) Error() string {
	return "server error: " + strconv.Itoa(e.StatusCode) + " - " + e.Body
}

// Is reports whether target matches this error.
// It matches if target is an *APIError with the same StatusCode.
func (e *APIError) Is(target error) bool {
	var t *APIError
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return t.StatusCode == e.StatusCode
}

// IsNotFound returns true if the error is a 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Sentinel errors for common API error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrNotFound is returned when the archive directory does not exist or
	// history is disabled on the server (404).
	ErrNotFound = &APIError{StatusCode: http.StatusNotFound}

	// ErrBadRequest is returned for malformed tokens or query parameters (400).
	ErrBadRequest = &APIError{StatusCode: http.StatusBadRequest}
)
