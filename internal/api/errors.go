package api

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyBaseURL is returned by NewClient when no server URL is configured.
	ErrEmptyBaseURL = errors.New("server base URL is empty")

	// ErrMalformedResponse indicates a 2xx upload response that is not the
	// expected JSON document.
	ErrMalformedResponse = errors.New("malformed upload response")

	// ErrMissingCode indicates a successful upload response carrying neither
	// code nor codes.
	ErrMissingCode = errors.New("upload response has no retrieval code")
)

// NetworkError wraps a failure to reach the server or to complete the
// exchange: refused connections, DNS failures, timeouts, resets.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// StatusError is a non-2xx response. Message is the JSON error field of the
// body when the server sent one.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.StatusCode)
}

// BackendError is a 2xx response with success set to false.
type BackendError struct {
	Message string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return "upload rejected by server"
	}
	return "upload rejected by server: " + e.Message
}

// IsNetworkError reports whether err, or any error it wraps, is a NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
