package toolbox

import (
	"context"
	"encoding/json"
)

// Handler executes a tool with the given JSON object input and returns a text
// result. Handlers should report failures through the returned error; an
// *ExecError carries an optional exit code for shell-like tools.
type Handler func(ctx context.Context, input json.RawMessage) (string, error)

// Param type names, as used in JSON Schema.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
)

// Param declares one named tool parameter.
type Param struct {
	Name        string
	Type        string
	Description string
	Required    bool
	Enum        []string
}

// Tool represents an executable tool with a name, description, parameter
// schema, and handler.
//
// Params is the ordered parameter list used for validation and for building
// the JSON Schema advertised to models. Tools imported from elsewhere (for
// example over MCP) may set RawSchema instead; their arguments are only
// checked to be a JSON object.
type Tool struct {
	Name        string
	Description string
	Params      []Param
	RawSchema   json.RawMessage
	Handler     Handler
}
