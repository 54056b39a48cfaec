package tool

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestParseSchemaPreservesDeclarationOrder(t *testing.T) {
	params, err := ParseSchema(json.RawMessage(`{
		"type": "object",
		"properties": {
			"zeta": {"type": "string", "description": "last letter"},
			"alpha": {"type": "integer"},
			"mid": {"description": "untyped"}
		},
		"required": ["zeta", 3]
	}`))
	if err != nil {
		t.Fatalf("ParseSchema() error = %v", err)
	}
	if got, want := params.Order, []string{"zeta", "alpha", "mid"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Order = %v, want %v", got, want)
	}
	if got, want := params.Required, []string{"zeta"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Required = %v, want %v", got, want)
	}
	if params.Type != "object" {
		t.Fatalf("Type = %q, want object", params.Type)
	}

	want := "Parameters as JSON object with fields: " +
		"zeta (string): last letter, alpha (integer): No description, mid (any): untyped"
	if got := params.Describe(); got != want {
		t.Fatalf("Describe() = %q, want %q", got, want)
	}
}

func TestParseSchemaEmpty(t *testing.T) {
	for _, raw := range []string{``, `null`, `{}`, `{"type": "object"}`, `{"properties": null}`} {
		params, err := ParseSchema(json.RawMessage(raw))
		if err != nil {
			t.Fatalf("ParseSchema(%q) error = %v", raw, err)
		}
		if params.Len() != 0 {
			t.Fatalf("ParseSchema(%q) Len() = %d, want 0", raw, params.Len())
		}
		if got := params.Describe(); got != "No parameters required" {
			t.Fatalf("Describe() = %q", got)
		}
	}
}

func TestParseSchemaMalformed(t *testing.T) {
	cases := map[string]string{
		"schema string":     `"object"`,
		"schema array":      `[1, 2]`,
		"properties array":  `{"properties": ["a"]}`,
		"property scalar":   `{"properties": {"a": "string"}}`,
		"property null":     `{"properties": {"a": null}}`,
		"properties string": `{"properties": "a"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSchema(json.RawMessage(raw))
			if !errors.Is(err, ErrInvalidSchema) {
				t.Fatalf("ParseSchema() error = %v, want ErrInvalidSchema", err)
			}
		})
	}
}

func TestParseSchemaNestedProperty(t *testing.T) {
	params, err := ParseSchema(json.RawMessage(`{
		"properties": {
			"tags": {"type": "array", "items": {"type": "string", "enum": ["a", "b"]}},
			"options": {"type": "object", "properties": {"dry_run": {"type": "boolean", "default": false}}, "required": ["dry_run"]}
		}
	}`))
	if err != nil {
		t.Fatalf("ParseSchema() error = %v", err)
	}

	tags := params.Properties["tags"]
	if tags.Items == nil || tags.Items.Type != "string" {
		t.Fatalf("tags.Items = %#v, want string items", tags.Items)
	}
	if got, want := tags.Items.Enum, []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("tags.Items.Enum = %v, want %v", got, want)
	}

	options := params.Properties["options"]
	if got := options.Properties["dry_run"].Default; got != false {
		t.Fatalf("dry_run default = %v, want false", got)
	}
	if got, want := options.Required, []string{"dry_run"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("options.Required = %v, want %v", got, want)
	}
}

func TestParseSchemaDuplicateKeyKeepsFirstPosition(t *testing.T) {
	params, err := ParseSchema(json.RawMessage(`{"properties": {"a": {"type": "string"}, "b": {}, "a": {"type": "number"}}}`))
	if err != nil {
		t.Fatalf("ParseSchema() error = %v", err)
	}
	if got, want := params.Order, []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Order = %v, want %v", got, want)
	}
	if got := params.Properties["a"].Type; got != "number" {
		t.Fatalf("a.Type = %q, want number", got)
	}
}
