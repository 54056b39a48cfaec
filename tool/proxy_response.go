package tool

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// decodeWebhookResponse decodes a 2xx webhook body. The body must be exactly
// one JSON document; an empty body is an error.
func decodeWebhookResponse(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty response body")
		}
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON document")
	}
	return value, nil
}

// unwrapResultEnvelope applies the n8n {result, success} convention. Only an
// object carrying both keys is considered; when success is truthy the
// result value alone is returned, otherwise the whole object is. Every other
// shape is returned unchanged.
func unwrapResultEnvelope(value any) any {
	obj, ok := value.(map[string]any)
	if !ok {
		return value
	}
	result, hasResult := obj["result"]
	success, hasSuccess := obj["success"]
	if !hasResult || !hasSuccess {
		return value
	}
	if truthy(success) {
		return result
	}
	return value
}

// truthy follows JSON-value truthiness: false, null, zero, and empty
// strings, arrays, and objects are false.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return val.String() != ""
		}
		return f != 0
	case float64:
		return val != 0
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return true
	}
}
