package models

import "fmt"

// MalformedInputError reports an input document missing its required
// top-level shape. Surfaced to callers as a client error, never retried.
type MalformedInputError struct {
	Source string // "har", "openapi", or "unknown"
	Reason string
	Cause  error
}

func (e *MalformedInputError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed %s input: %s: %v", e.Source, e.Reason, e.Cause)
	}
	return fmt.Sprintf("malformed %s input: %s", e.Source, e.Reason)
}

func (e *MalformedInputError) Unwrap() error {
	return e.Cause
}

// ProviderError reports a failed AI provider call: a non-success HTTP status
// or an unusable body. Recovered locally by the adapter's fallback chain.
type ProviderError struct {
	Provider   string
	StatusCode int
	Cause      error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %s request failed (status %d): %v",
			e.Provider, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("provider %s request failed: %v", e.Provider, e.Cause)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// SerializationError reports an invalid load profile or title handed to the
// serializer. Always surfaced; it indicates a caller bug.
type SerializationError struct {
	Field  string
	Reason string
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("cannot serialize test plan: %s %s", e.Field, e.Reason)
}
