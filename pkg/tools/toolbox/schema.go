package toolbox

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

type schemaProperty struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// InputSchema returns the JSON Schema describing the tool's input. RawSchema
// wins when set; otherwise the schema is built from Params.
func (t Tool) InputSchema() json.RawMessage {
	if len(t.RawSchema) > 0 {
		return t.RawSchema
	}

	props := make(map[string]schemaProperty, len(t.Params))
	required := make([]string, 0, len(t.Params))
	for _, p := range t.Params {
		props[p.Name] = schemaProperty{Type: p.Type, Description: p.Description, Enum: p.Enum}
		if p.Required {
			required = append(required, p.Name)
		}
	}

	schema := struct {
		Type       string                    `json:"type"`
		Properties map[string]schemaProperty `json:"properties"`
		Required   []string                  `json:"required"`
	}{Type: TypeObject, Properties: props, Required: required}

	b, err := jsonAPI.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return b
}

// validate decodes input as a JSON object and checks it against Params.
func (t Tool) validate(input json.RawMessage) error {
	if len(strings.TrimSpace(string(input))) == 0 {
		input = json.RawMessage(`{}`)
	}

	var args map[string]any
	if err := jsonAPI.Unmarshal(input, &args); err != nil {
		return fmt.Errorf("%w: arguments must be a JSON object: %v", ErrInvalidArguments, err)
	}
	if args == nil {
		return fmt.Errorf("%w: arguments must be a JSON object", ErrInvalidArguments)
	}

	for _, p := range t.Params {
		v, ok := args[p.Name]
		if !ok || v == nil {
			if p.Required {
				return fmt.Errorf("%w: missing required parameter %q", ErrInvalidArguments, p.Name)
			}
			continue
		}
		if !matchesType(p.Type, v) {
			return fmt.Errorf("%w: parameter %q must be of type %s", ErrInvalidArguments, p.Name, p.Type)
		}
		if len(p.Enum) > 0 {
			s, _ := v.(string)
			if !slices.Contains(p.Enum, s) {
				return fmt.Errorf("%w: parameter %q must be one of %s", ErrInvalidArguments, p.Name, strings.Join(p.Enum, ", "))
			}
		}
	}

	return nil
}

func matchesType(typ string, v any) bool {
	switch typ {
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeNumber:
		_, ok := v.(float64)
		return ok
	case TypeInteger:
		f, ok := v.(float64)
		return ok && f == math.Trunc(f)
	case TypeBoolean:
		_, ok := v.(bool)
		return ok
	case TypeArray:
		_, ok := v.([]any)
		return ok
	case TypeObject:
		_, ok := v.(map[string]any)
		return ok
	case "":
		return true
	}
	return false
}
