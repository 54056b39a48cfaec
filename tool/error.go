package tool

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrManifestUnavailable indicates the manifest file is missing, unreadable, or corrupt.
	ErrManifestUnavailable = errors.New("tool: manifest unavailable")
	// ErrToolRegistration indicates a single descriptor could not be registered.
	ErrToolRegistration = errors.New("tool: registration failed")
	// ErrInvalidSchema indicates a descriptor schema could not be interpreted.
	ErrInvalidSchema = errors.New("tool: invalid schema")
)

const (
	// ErrorCodeInvalidParameters is returned when caller input cannot be mapped to parameters.
	ErrorCodeInvalidParameters = "INVALID_PARAMETERS"
	// ErrorCodeUpstreamHTTP is returned for non-2xx webhook responses.
	ErrorCodeUpstreamHTTP = "UPSTREAM_HTTP_ERROR"
	// ErrorCodeUpstreamTransport is returned when the webhook could not be reached.
	ErrorCodeUpstreamTransport = "UPSTREAM_TRANSPORT_ERROR"
	// ErrorCodeInvalidRequest is returned when the outbound request cannot be built.
	ErrorCodeInvalidRequest = "INVALID_REQUEST"
)

// InvocationError is the structured failure carried by an invocation Result.
// It is never returned to MCP callers as a protocol fault.
type InvocationError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code,omitempty"`
	Body       string `json:"body,omitempty"`
	Cause      error  `json:"-"`
}

func (e *InvocationError) Error() string {
	if e == nil {
		return ""
	}
	code := strings.TrimSpace(e.Code)
	msg := strings.TrimSpace(e.Message)
	switch {
	case code == "" && msg == "":
		return "tool: invocation failed"
	case code == "":
		return msg
	case msg == "":
		return code
	default:
		return fmt.Sprintf("%s: %s", code, msg)
	}
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *InvocationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newInvocationError(code, message string, cause error) *InvocationError {
	cleanMsg := strings.TrimSpace(message)
	if cleanMsg == "" && cause != nil {
		cleanMsg = cause.Error()
	}
	return &InvocationError{
		Code:    strings.TrimSpace(code),
		Message: cleanMsg,
		Cause:   cause,
	}
}

// RegistrationFailure records one descriptor that was not registered.
type RegistrationFailure struct {
	Index int
	Name  string
	Err   error
}

func (f RegistrationFailure) Error() string {
	if f.Name == "" {
		return fmt.Sprintf("tool #%d: %v", f.Index, f.Err)
	}
	return fmt.Sprintf("tool %q: %v", f.Name, f.Err)
}

func (f RegistrationFailure) Unwrap() error {
	return f.Err
}
