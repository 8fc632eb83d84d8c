package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is returned by Client for every request that did not end with a 2xx response.
// Status is 0 when no HTTP response was received at all (transport failure).
type Error struct {
	err     error
	Message string
	Code    string
	Status  int
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status == 0 {
		return "network error: " + e.Message
	}
	return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
}

// Unwrap returns the transport error, if any.
func (e *Error) Unwrap() error {
	return e.err
}

// IsAuth reports whether the server rejected the credentials (401 or 403).
func (e *Error) IsAuth() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// IsNetwork reports whether the request failed before any response arrived.
func (e *Error) IsNetwork() bool {
	return e.Status == 0
}

// StatusOf returns the HTTP status carried by err, or 0 if err is not an *Error
// or no response was received.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsAuthError reports whether err carries a 401/403 status.
func IsAuthError(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.IsAuth()
}

// IsNetworkError reports whether err is a transport failure with no HTTP status.
func IsNetworkError(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.IsNetwork()
}
