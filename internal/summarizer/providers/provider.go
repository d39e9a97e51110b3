// Package providers contains the remote text-generation backends used to
// summarize source files and repositories.
package providers

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	// Provider identifiers used in chain specifications
	ProviderHuggingFace = "huggingface"
	ProviderGemini      = "gemini"

	// Default settings
	DefaultTimeout       = 30 * time.Second
	DefaultColdStartWait = 30 * time.Second
)

// Provider is one remote backend. Implementations perform exactly one
// network request per Call and never retry internally.
type Provider interface {
	// Name returns the backend identifier, usually the model name
	Name() string

	// Call sends prompt and returns the extracted text
	Call(ctx context.Context, prompt string) (*Response, error)
}

// Response is the decoded result of a successful call.
type Response struct {
	Text string
	Raw  []byte
}

// ErrorKind classifies a failed call.
type ErrorKind string

const (
	// KindTimeout means the call exceeded its deadline
	KindTimeout ErrorKind = "timeout"
	// KindColdStart means the model is loading; RetryAfter holds the estimate
	KindColdStart ErrorKind = "cold_start"
	// KindHTTPError means the backend answered with a non-success status
	// or a body that could not be decoded
	KindHTTPError ErrorKind = "http_error"
	// KindTransportError means the request never reached the backend
	KindTransportError ErrorKind = "transport_error"
)

// ProviderError is returned by every Provider.Call failure.
type ProviderError struct {
	Kind       ErrorKind
	Backend    string
	StatusCode int
	RetryAfter time.Duration
	Err        error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Backend, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ReachedNetwork reports whether the failed call counts as an upstream call.
func (e *ProviderError) ReachedNetwork() bool {
	return e.Kind != KindTransportError
}

// AsProviderError extracts a *ProviderError from err.
func AsProviderError(err error) (*ProviderError, bool) {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr, true
	}
	return nil, false
}

// ReachedNetwork reports whether err came from a call that reached the
// backend. Errors that are not ProviderErrors are treated as having reached it.
func ReachedNetwork(err error) bool {
	if perr, ok := AsProviderError(err); ok {
		return perr.ReachedNetwork()
	}
	return true
}

// EstimateTokens approximates the token count of s as one token per four bytes.
func EstimateTokens(s string) int {
	n := len(s) / 4
	if n < 1 {
		return 1
	}
	return n
}

// ErrMissingCredential is returned when a backend has no API key configured.
var ErrMissingCredential = errors.New("missing credential")
