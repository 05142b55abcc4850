// Package errors provides structured error types for foresight.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error codes for foresight operations.
const (
	// Config errors
	CodeConfigMissingField = "CONFIG_001" // Missing required field
	CodeConfigInvalidValue = "CONFIG_002" // Invalid value
	CodeConfigParseError   = "CONFIG_003" // TOML could not be decoded

	// Network errors
	CodeTransport = "NET_001" // Request could not be completed
	CodeDecode    = "NET_002" // Response body is not the expected JSON
	CodeBackend   = "NET_003" // Backend answered with an error

	// Agent errors
	CodeAgentFailed    = "AGENT_001" // Backend reported an agent failure
	CodeAgentNotFound  = "AGENT_002" // Agent is not part of the registry
	CodeAgentDuplicate = "AGENT_003" // Agent listed twice in the registry

	// State errors
	CodeInvariantViolation = "STATE_001" // Status change would break a run invariant
	CodeRunNotIdle         = "STATE_002" // Start called on a run that already started

	// Backend request errors
	CodeRequestInvalid = "REQ_001" // Missing or malformed request parameter
)

// ForesightError is the structured error type for foresight operations.
type ForesightError struct {
	Code    string         `json:"code"`              // Error code (e.g., "NET_001")
	Message string         `json:"message"`           // Human-readable message
	Details map[string]any `json:"details,omitempty"` // Context (agent, url, etc.)
	Cause   error          `json:"-"`                 // Wrapped error (not serialized)
}

// Error implements the error interface.
func (e *ForesightError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *ForesightError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error.
func (e *ForesightError) WithDetail(key string, value any) *ForesightError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause wraps an underlying error.
func (e *ForesightError) WithCause(err error) *ForesightError {
	e.Cause = err
	return e
}

// MarshalJSON implements json.Marshaler with cause error message.
func (e *ForesightError) MarshalJSON() ([]byte, error) {
	type alias ForesightError
	aux := struct {
		*alias
		CauseMsg string `json:"cause,omitempty"`
	}{
		alias: (*alias)(e),
	}
	if e.Cause != nil {
		aux.CauseMsg = e.Cause.Error()
	}
	return json.Marshal(aux)
}

// New creates a new ForesightError.
func New(code, message string) *ForesightError {
	return &ForesightError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new ForesightError with formatted message.
func Newf(code, format string, args ...any) *ForesightError {
	return &ForesightError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with a ForesightError.
func Wrap(code, message string, err error) *ForesightError {
	return &ForesightError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with a formatted ForesightError.
func Wrapf(code string, err error, format string, args ...any) *ForesightError {
	return &ForesightError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// --- Config Errors ---

// ConfigMissingField creates an error for missing config field.
func ConfigMissingField(field string) *ForesightError {
	return Newf(CodeConfigMissingField, "missing required config field: %s", field).
		WithDetail("field", field)
}

// ConfigInvalidValue creates an error for invalid config value.
func ConfigInvalidValue(field string, value any, reason string) *ForesightError {
	return Newf(CodeConfigInvalidValue, "invalid config value for %s: %s", field, reason).
		WithDetail("field", field).
		WithDetail("value", value).
		WithDetail("reason", reason)
}

// ConfigParseError creates an error for an undecodable config file.
func ConfigParseError(path string, err error) *ForesightError {
	return Wrap(CodeConfigParseError, "failed to parse config", err).
		WithDetail("path", path)
}

// --- Network Errors ---

// Transport creates an error for a request that could not be completed.
func Transport(method, url string, err error) *ForesightError {
	return Wrapf(CodeTransport, err, "%s %s failed", method, url).
		WithDetail("method", method).
		WithDetail("url", url)
}

// Decode creates an error for a response body that is not valid JSON.
func Decode(url string, err error) *ForesightError {
	return Wrap(CodeDecode, "failed to decode response", err).
		WithDetail("url", url)
}

// Backend creates an error for an endpoint that answered with an error message.
func Backend(endpoint string, status int, message string) *ForesightError {
	return Newf(CodeBackend, "%s: %s", endpoint, message).
		WithDetail("endpoint", endpoint).
		WithDetail("status", status)
}

// --- Agent Errors ---

// AgentFailed creates an error for an agent failure reported by the backend.
func AgentFailed(agent, message string) *ForesightError {
	return Newf(CodeAgentFailed, "agent %s failed: %s", agent, message).
		WithDetail("agent", agent)
}

// AgentNotFound creates an error for an agent outside the registry.
func AgentNotFound(agent string) *ForesightError {
	return Newf(CodeAgentNotFound, "agent not found: %s", agent).
		WithDetail("agent", agent)
}

// AgentDuplicate creates an error for a registry listing the same agent twice.
func AgentDuplicate(agent string) *ForesightError {
	return Newf(CodeAgentDuplicate, "agent listed more than once: %s", agent).
		WithDetail("agent", agent)
}

// --- State Errors ---

// InvariantViolation creates an error for an illegal status change.
func InvariantViolation(subject, from, to, reason string) *ForesightError {
	return Newf(CodeInvariantViolation, "invalid status transition for %s: %s -> %s (%s)", subject, from, to, reason).
		WithDetail("subject", subject).
		WithDetail("from", from).
		WithDetail("to", to)
}

// RunNotIdle creates an error for starting a run twice.
func RunNotIdle(status string) *ForesightError {
	return Newf(CodeRunNotIdle, "run already started (status %s)", status).
		WithDetail("status", status)
}

// --- Request Errors ---

// RequestInvalid creates an error for a malformed backend request.
func RequestInvalid(field, reason string) *ForesightError {
	return Newf(CodeRequestInvalid, "invalid request field %s: %s", field, reason).
		WithDetail("field", field)
}

// HasCode checks if an error is a ForesightError with the given code.
// It handles wrapped errors by unwrapping to find a ForesightError.
func HasCode(err error, code string) bool {
	var ferr *ForesightError
	if errors.As(err, &ferr) {
		return ferr.Code == code
	}
	return false
}

// Code returns the error code if err is a ForesightError, empty string otherwise.
func Code(err error) string {
	var ferr *ForesightError
	if errors.As(err, &ferr) {
		return ferr.Code
	}
	return ""
}
