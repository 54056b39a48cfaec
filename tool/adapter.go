package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Adapter is the callable exposed to the dispatcher for one descriptor.
// Every tool shares this type; only the descriptor value differs.
type Adapter struct {
	desc             ToolDescriptor
	params           Parameters
	paramDescription string
	invoker          Invoker
}

// NewAdapter synthesizes the adapter for a descriptor. It fails when the
// descriptor has no name or its schema cannot be interpreted.
func NewAdapter(desc ToolDescriptor, invoker Invoker) (*Adapter, error) {
	if strings.TrimSpace(desc.Name) == "" {
		return nil, errors.New("tool: descriptor name is empty")
	}
	if invoker == nil {
		return nil, errors.New("tool: invoker is nil")
	}
	params, err := ParseSchema(desc.Schema)
	if err != nil {
		return nil, err
	}
	return &Adapter{
		desc:             desc,
		params:           params,
		paramDescription: params.Describe(),
		invoker:          invoker,
	}, nil
}

// Name returns the descriptor name.
func (a *Adapter) Name() string {
	return a.desc.Name
}

// Description returns the descriptor description followed by the
// parameter summary.
func (a *Adapter) Description() string {
	return fmt.Sprintf("%s\n\n%s", a.desc.Description, a.paramDescription)
}

// ParamDescription returns the parameter summary alone.
func (a *Adapter) ParamDescription() string {
	return a.paramDescription
}

// Parameters returns the parsed parameter surface.
func (a *Adapter) Parameters() Parameters {
	return a.params
}

// Descriptor returns the descriptor the adapter was built from.
func (a *Adapter) Descriptor() ToolDescriptor {
	return a.desc
}

// Call decodes the caller input and invokes the tool. Parameter errors are
// returned as error results, never as Go errors.
func (a *Adapter) Call(ctx context.Context, input any) Result {
	params, err := a.DecodeParams(input)
	if err != nil {
		var invErr *InvocationError
		if !errors.As(err, &invErr) {
			invErr = newInvocationError(ErrorCodeInvalidParameters, "Invalid JSON parameters", err)
		}
		return Failure(invErr)
	}
	return a.invoker.Invoke(ctx, a.desc, params)
}

// DecodeParams maps caller input to the parameter mapping sent upstream.
//
// Structured objects are used as-is and nil means no parameters. Strings
// are parsed as JSON objects; any other string is accepted as the value of
// the tool's only parameter when it declares exactly one.
func (a *Adapter) DecodeParams(input any) (map[string]any, error) {
	switch v := input.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return v, nil
	case json.RawMessage:
		return a.decodeString(string(v))
	case []byte:
		return a.decodeString(string(v))
	case string:
		return a.decodeString(v)
	default:
		return nil, newInvocationError(
			ErrorCodeInvalidParameters,
			"Invalid JSON parameters",
			fmt.Errorf("unsupported parameter type %T", input),
		)
	}
}

func (a *Adapter) decodeString(raw string) (map[string]any, error) {
	var parsed any
	err := json.Unmarshal([]byte(raw), &parsed)
	if err == nil {
		if obj, ok := parsed.(map[string]any); ok {
			return obj, nil
		}
		err = fmt.Errorf("parameters must be a JSON object, got %T", parsed)
	}

	if a.params.Len() == 1 {
		return map[string]any{a.params.Order[0]: raw}, nil
	}
	return nil, newInvocationError(ErrorCodeInvalidParameters, "Invalid JSON parameters", err)
}
