package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/tandem/pkg/domain"
	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"
)

// Tool is a capability the model may call while an agent is thinking.
type Tool interface {
	// Spec describes the tool to the model.
	Spec() domain.Tool

	// Call runs the tool with the raw JSON arguments produced by the model.
	// A returned error aborts the agent invocation; tools that want the model
	// to see and react to a failure must return it as text instead.
	Call(ctx context.Context, arguments string) (string, error)
}

// SchemaFor reflects the JSON Schema of T's fields into a plain map usable as
// tool parameters.
func SchemaFor[T any]() map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		ExpandedStruct:            true,
	}
	var v T
	schema := reflector.Reflect(v)

	data, err := json.Marshal(schema)
	if err != nil {
		// Reflected schemas of plain structs always marshal.
		panic(fmt.Sprintf("agents: marshal schema: %v", err))
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("agents: unmarshal schema: %v", err))
	}
	delete(out, "$schema")
	delete(out, "$id")
	return out
}

// DecodeArgs parses the model's JSON arguments into T.
// Field names follow the mapstructure tags of T.
func DecodeArgs[T any](arguments string) (T, error) {
	var out T
	if arguments == "" {
		arguments = "{}"
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(arguments), &raw); err != nil {
		return out, fmt.Errorf("invalid tool arguments: %w", err)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		WeaklyTypedInput: true,
		ErrorUnused:      false,
	})
	if err != nil {
		return out, err
	}
	if err := decoder.Decode(raw); err != nil {
		return out, fmt.Errorf("invalid tool arguments: %w", err)
	}
	return out, nil
}
