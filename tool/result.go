package tool

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Result is the normalized outcome of one invocation: either a success
// value (string, object, list, or scalar) or an InvocationError.
type Result struct {
	Value any
	Err   *InvocationError
}

// Success wraps a success payload.
func Success(value any) Result {
	return Result{Value: value}
}

// Failure wraps an invocation error.
func Failure(err *InvocationError) Result {
	return Result{Err: err}
}

// OK reports whether the invocation succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Payload returns the success value, or the error record
// {"error": message, "success": false}.
func (r Result) Payload() any {
	if r.Err != nil {
		return map[string]any{
			"error":   r.Err.Message,
			"success": false,
		}
	}
	return r.Value
}

// Text renders the payload for an MCP text content block. Strings are
// returned verbatim; everything else is JSON encoded.
func (r Result) Text() string {
	payload := r.Payload()
	if s, ok := payload.(string); ok {
		return s
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return fmt.Sprint(payload)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}
