// Package message defines the Message type, the unit of conversation history.
package message

import (
	"strings"

	"github.com/germanamz/actloop/pkg/chats/content"
	"github.com/germanamz/actloop/pkg/chats/role"
)

// Message represents a single turn in a conversation. It is a value type that
// copies cheaply; callers must not mutate Parts after the message has been
// appended to a chat.
type Message struct {
	Sender string
	Role   role.Role
	Parts  []content.Part
}

// New creates a message with the given sender, role, and content parts.
func New(sender string, r role.Role, parts ...content.Part) Message {
	return Message{
		Sender: sender,
		Role:   r,
		Parts:  parts,
	}
}

// NewText creates a message with a single Text content part.
func NewText(sender string, r role.Role, text string) Message {
	return New(sender, r, content.Text{Text: text})
}

// NewUser creates a user turn.
func NewUser(text string) Message {
	return NewText("user", role.User, text)
}

// NewAssistant creates an assistant turn with optional text and tool call
// requests. Empty text is omitted.
func NewAssistant(sender, text string, calls ...content.ToolCall) Message {
	parts := make([]content.Part, 0, len(calls)+1)
	if text != "" {
		parts = append(parts, content.Text{Text: text})
	}
	for _, c := range calls {
		parts = append(parts, c)
	}

	return New(sender, role.Assistant, parts...)
}

// NewToolResult creates a tool-result turn carrying exactly one result.
func NewToolResult(sender string, r content.ToolResult) Message {
	return New(sender, role.Tool, r)
}

// TextContent concatenates the text of all Text parts in the message.
func (m Message) TextContent() string {
	var b strings.Builder
	for _, p := range m.Parts {
		if t, ok := p.(content.Text); ok {
			b.WriteString(t.Text)
		}
	}
	return b.String()
}

// ToolCalls returns all ToolCall parts in the message, in order.
func (m Message) ToolCalls() []content.ToolCall {
	var calls []content.ToolCall
	for _, p := range m.Parts {
		if tc, ok := p.(content.ToolCall); ok {
			calls = append(calls, tc)
		}
	}
	return calls
}

// ToolResult returns the first ToolResult part of the message, if any.
func (m Message) ToolResult() (content.ToolResult, bool) {
	for _, p := range m.Parts {
		if tr, ok := p.(content.ToolResult); ok {
			return tr, true
		}
	}
	return content.ToolResult{}, false
}
