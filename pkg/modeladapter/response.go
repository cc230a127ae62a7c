package modeladapter

import (
	"strings"

	"github.com/germanamz/actloop/pkg/chats/content"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// NewResponse builds a Response from raw provider output and validates it.
// Any tool call turns the response into a ToolCalls response. Missing call IDs
// are filled with generated ones; empty arguments become "{}".
func NewResponse(provider, text string, calls []content.ToolCall) (Response, error) {
	resp := Response{Kind: FinalAnswer, Text: text}
	if len(calls) == 0 {
		return resp, nil
	}

	resp.Kind = ToolCalls
	resp.Calls = make([]content.ToolCall, len(calls))
	for i, c := range calls {
		if c.ID == "" {
			c.ID = "call_" + uuid.NewString()
		}
		if strings.TrimSpace(c.Arguments) == "" {
			c.Arguments = "{}"
		}
		resp.Calls[i] = c
	}

	if err := resp.Validate(provider); err != nil {
		return Response{}, err
	}

	return resp, nil
}

// Validate checks the shape of the response: a ToolCalls response needs at
// least one call, every call needs a tool name and an ID unique within the
// response, and arguments must be a JSON object.
func (r Response) Validate(provider string) error {
	switch r.Kind {
	case FinalAnswer:
		if len(r.Calls) > 0 {
			return Malformed(provider, "final answer carries %d tool calls", len(r.Calls))
		}
		return nil
	case ToolCalls:
	default:
		return Malformed(provider, "unknown response kind %d", int(r.Kind))
	}

	if len(r.Calls) == 0 {
		return Malformed(provider, "tool calls response without calls")
	}

	seen := make(map[string]struct{}, len(r.Calls))
	for i, c := range r.Calls {
		if strings.TrimSpace(c.Name) == "" {
			return Malformed(provider, "tool call %d has no name", i)
		}
		if c.ID == "" {
			return Malformed(provider, "tool call %q has no id", c.Name)
		}
		if _, dup := seen[c.ID]; dup {
			return Malformed(provider, "duplicate tool call id %q", c.ID)
		}
		seen[c.ID] = struct{}{}

		var args map[string]any
		if err := jsonAPI.UnmarshalFromString(c.Arguments, &args); err != nil || args == nil {
			return Malformed(provider, "tool call %q arguments are not a JSON object", c.Name)
		}
	}

	return nil
}
