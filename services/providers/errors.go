// Package providers holds shared types for the external data providers
// (Alpha Vantage, Serper). The providers themselves are opaque remote
// services; this repo only issues requests to them.
package providers

import "fmt"

// APIError represents an error from an external data provider
type APIError struct {
	// Provider that generated the error
	Provider string

	// Code is the error code
	Code string

	// Message is the error message
	Message string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// Unwrap implements error unwrapping
func (e *APIError) Unwrap() error {
	return e.Cause
}

// NewAPIError creates a new provider API error
func NewAPIError(provider, code, message string, statusCode int, cause error) *APIError {
	return &APIError{
		Provider:   provider,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Cause:      cause,
	}
}
