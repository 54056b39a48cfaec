package tool

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Parameters is the parsed parameter surface of a descriptor schema.
type Parameters struct {
	Type       string
	Properties map[string]Property
	// Order lists property names in declaration order.
	Order    []string
	Required []string
}

// Property describes one schema property.
type Property struct {
	Type        string
	Description string
	Enum        []string
	Items       *Property
	Properties  map[string]Property
	Required    []string
	Default     any
}

// Len returns the number of declared parameters.
func (p Parameters) Len() int {
	return len(p.Order)
}

// Describe renders the parameter summary shown to MCP clients.
func (p Parameters) Describe() string {
	if len(p.Order) == 0 {
		return "No parameters required"
	}
	fields := make([]string, 0, len(p.Order))
	for _, name := range p.Order {
		prop := p.Properties[name]
		typ := prop.Type
		if typ == "" {
			typ = "any"
		}
		desc := prop.Description
		if desc == "" {
			desc = "No description"
		}
		fields = append(fields, fmt.Sprintf("%s (%s): %s", name, typ, desc))
	}
	return "Parameters as JSON object with fields: " + strings.Join(fields, ", ")
}

// ParseSchema parses a JSON-Schema-like object. An empty or null schema
// declares no parameters. Type mismatches in optional keywords are ignored;
// a schema, properties block, or property that is not an object is an error.
func ParseSchema(raw json.RawMessage) (Parameters, error) {
	params := Parameters{
		Properties: make(map[string]Property),
	}
	if isNullJSON(raw) {
		return params, nil
	}

	var schema map[string]json.RawMessage
	if err := json.Unmarshal(raw, &schema); err != nil {
		return Parameters{}, fmt.Errorf("%w: schema must be an object: %v", ErrInvalidSchema, err)
	}

	if t, ok := schema["type"]; ok {
		_ = json.Unmarshal(t, &params.Type)
	}
	if required, ok := schema["required"]; ok {
		params.Required = stringList(required)
	}

	props, ok := schema["properties"]
	if !ok || isNullJSON(props) {
		return params, nil
	}
	names, values, err := decodeOrderedObject(props)
	if err != nil {
		return Parameters{}, fmt.Errorf("%w: properties must be an object: %v", ErrInvalidSchema, err)
	}
	for i, name := range names {
		var propMap map[string]any
		if err := json.Unmarshal(values[i], &propMap); err != nil || propMap == nil {
			return Parameters{}, fmt.Errorf("%w: property %q must be an object", ErrInvalidSchema, name)
		}
		if _, dup := params.Properties[name]; !dup {
			params.Order = append(params.Order, name)
		}
		params.Properties[name] = parseProperty(propMap)
	}
	return params, nil
}

func parseProperty(propMap map[string]any) Property {
	property := Property{}

	if t, ok := propMap["type"].(string); ok {
		property.Type = t
	}
	if desc, ok := propMap["description"].(string); ok {
		property.Description = desc
	}
	if enum, ok := propMap["enum"].([]any); ok {
		property.Enum = make([]string, 0, len(enum))
		for _, e := range enum {
			if str, ok := e.(string); ok {
				property.Enum = append(property.Enum, str)
			}
		}
	}
	if def, ok := propMap["default"]; ok {
		property.Default = def
	}

	if items, ok := propMap["items"].(map[string]any); ok {
		itemsProp := parseProperty(items)
		property.Items = &itemsProp
	}

	if props, ok := propMap["properties"].(map[string]any); ok {
		property.Properties = make(map[string]Property)
		for name, p := range props {
			if pMap, ok := p.(map[string]any); ok {
				property.Properties[name] = parseProperty(pMap)
			}
		}
	}

	if required, ok := propMap["required"].([]any); ok {
		property.Required = make([]string, 0, len(required))
		for _, r := range required {
			if str, ok := r.(string); ok {
				property.Required = append(property.Required, str)
			}
		}
	}

	return property
}

func stringList(raw json.RawMessage) []string {
	var values []any
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if str, ok := v.(string); ok {
			out = append(out, str)
		}
	}
	return out
}

// decodeOrderedObject splits a JSON object into keys and raw values while
// keeping key order.
func decodeOrderedObject(raw json.RawMessage) ([]string, []json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected object, got %v", tok)
	}

	var (
		names  []string
		values []json.RawMessage
	)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected object key, got %v", keyTok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, nil, err
		}
		names = append(names, key)
		values = append(values, value)
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return names, values, nil
}
