package message

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// payloadSchema describes the only payload shape the backend accepts: a
// flat object whose values are all strings.
var payloadSchema = &jsonschema.Schema{
	Type:                 "object",
	AdditionalProperties: &jsonschema.Schema{Type: "string"},
}

var resolvedPayloadSchema = sync.OnceValues(func() (*jsonschema.Resolved, error) {
	return payloadSchema.Resolve(nil)
})

// RequestSchema returns the JSON Schema of a request line.
func RequestSchema() (*jsonschema.Schema, error) {
	schema, err := jsonschema.For[Request](nil)
	if err != nil {
		return nil, fmt.Errorf("infer request schema: %w", err)
	}

	schema.Description = "A request written to the backend's stdin, one per line."

	return schema, nil
}

// ResponseSchema returns the JSON Schema of a response line.
func ResponseSchema() (*jsonschema.Schema, error) {
	schema, err := jsonschema.For[Response](nil)
	if err != nil {
		return nil, fmt.Errorf("infer response schema: %w", err)
	}

	schema.Description = "A response read from the backend's stdout, one per line."

	return schema, nil
}

// validatePayload checks a loosely typed payload against payloadSchema.
// The payload is normalized through JSON first so the validator only ever
// sees JSON values.
func validatePayload(payload map[string]any) error {
	resolved, err := resolvedPayloadSchema()
	if err != nil {
		return fmt.Errorf("resolve payload schema: %w", err)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	var instance map[string]any
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("normalize payload: %w", err)
	}

	if err := resolved.Validate(instance); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	return nil
}
