// Package chat provides the append-only conversation state of an agent run.
package chat

import (
	"iter"

	"github.com/germanamz/actloop/pkg/chats/message"
	"github.com/germanamz/actloop/pkg/chats/role"
)

// Chat is an append-only conversation container. The zero value is ready to
// use. Chat is not safe for concurrent use; each agent run owns its own Chat.
type Chat struct {
	messages []message.Message
}

// New creates a Chat pre-populated with the given messages.
func New(msgs ...message.Message) *Chat {
	c := &Chat{}
	c.Append(msgs...)
	return c
}

// Append adds one or more messages to the end of the conversation. Prior
// messages are never modified.
func (c *Chat) Append(msgs ...message.Message) {
	c.messages = append(c.messages, msgs...)
}

// Len returns the number of messages in the conversation.
func (c *Chat) Len() int {
	return len(c.messages)
}

// At returns the message at the given index.
// It panics if the index is out of range.
func (c *Chat) At(index int) message.Message {
	return c.messages[index]
}

// Messages returns a copy of all messages in insertion order.
func (c *Chat) Messages() []message.Message {
	cp := make([]message.Message, len(c.messages))
	copy(cp, c.messages)
	return cp
}

// Tail returns a copy of at most the last n messages.
func (c *Chat) Tail(n int) []message.Message {
	if n <= 0 {
		return nil
	}
	start := max(len(c.messages)-n, 0)
	cp := make([]message.Message, len(c.messages)-start)
	copy(cp, c.messages[start:])
	return cp
}

// Window returns the snapshot after applying the trim strategy. A nil
// strategy returns the full snapshot. The stored history is left untouched.
func (c *Chat) Window(trim TrimStrategy) []message.Message {
	msgs := c.Messages()
	if trim == nil {
		return msgs
	}
	return trim.Trim(msgs)
}

// All yields every turn with its index, oldest first.
func (c *Chat) All() iter.Seq2[int, message.Message] {
	return func(yield func(int, message.Message) bool) {
		for i, m := range c.messages {
			if !yield(i, m) {
				return
			}
		}
	}
}

// Count returns how many turns have role r.
func (c *Chat) Count(r role.Role) int {
	n := 0
	for _, m := range c.messages {
		if m.Role == r {
			n++
		}
	}
	return n
}
