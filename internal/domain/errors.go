package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

var _ HTTPError = (*ModelOutputError)(nil)

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConfiguration means a required credential for an external
	// collaborator is missing. Surfaced before any call is attempted.
	ErrConfiguration = errors.New("LLM provider not configured")

	// ErrUpstream wraps failures of the chat-completion or agent services.
	ErrUpstream = errors.New("error calling LLM API")
)

// ModelOutputError is returned when a model's response cannot be parsed.
// Raw holds the offending text so callers can surface it.
type ModelOutputError struct {
	Raw string
	Err error
}

// Error implements the error interface
func (e *ModelOutputError) Error() string {
	return fmt.Sprintf("model response is not a valid proof tree: %v", e.Err)
}

// Unwrap returns the underlying decode error
func (e *ModelOutputError) Unwrap() error {
	return e.Err
}

// StatusCode implements the HTTPError interface
func (e *ModelOutputError) StatusCode() int {
	return http.StatusInternalServerError
}
