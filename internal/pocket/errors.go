package pocket

import (
	"fmt"
)

// CredentialError reports a client built with an inconsistent consumer key
// and access token.
type CredentialError struct {
	Reason string
}

func (e *CredentialError) Error() string {
	return "pocket credentials: " + e.Reason
}

// APIError represents an error returned by the Pocket API.
type APIError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error: %s (status: %d, code: %s)", e.Message, e.StatusCode, e.Code)
	}
	return fmt.Sprintf("API error: %s (status: %d)", e.Message, e.StatusCode)
}

// RequestError is returned when the request could not be completed:
// transport failure, timeout, cancellation or a non-2xx status.
type RequestError struct {
	// StatusCode is zero when no response was received.
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("pocket request failed: %v", e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// DecodeError is returned when the response body is not the expected JSON.
type DecodeError struct {
	Body []byte
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode response body: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
