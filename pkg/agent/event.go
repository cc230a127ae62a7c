package agent

import (
	"context"

	"github.com/germanamz/actloop/pkg/chats/content"
)

// EventKind identifies the type of loop event.
type EventKind string

const (
	EventStateChanged     EventKind = "state_changed"
	EventToolCallStarted  EventKind = "tool_call_started"
	EventToolCallFinished EventKind = "tool_call_finished"
)

// Event is emitted by a loop run as it progresses. Text carries the model's
// reasoning or answer on state changes, when there is any.
type Event struct {
	Kind      EventKind
	Agent     string
	Iteration int
	State     State
	Text      string
	Call      content.ToolCall
	Result    content.ToolResult
}

// Notifier receives loop events. It is called synchronously from the loop and
// must not block.
type Notifier func(ctx context.Context, e Event)
