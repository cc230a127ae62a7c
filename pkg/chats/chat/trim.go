package chat

import (
	"github.com/germanamz/actloop/pkg/chats/message"
	"github.com/germanamz/actloop/pkg/chats/role"
)

// TrimStrategy reduces a conversation snapshot before it is sent to a model.
// Implementations must return messages in their original relative order.
type TrimStrategy interface {
	Trim(msgs []message.Message) []message.Message
}

// TrimFunc adapts a plain function to TrimStrategy.
type TrimFunc func(msgs []message.Message) []message.Message

// Trim calls f.
func (f TrimFunc) Trim(msgs []message.Message) []message.Message { return f(msgs) }

// KeepLast returns a strategy that keeps at most n messages. System messages,
// the first user message and the latest user message are pinned; the oldest
// remaining messages are dropped first. Tool results orphaned by dropping their assistant turn are
// dropped as well so the window never starts mid tool exchange.
//
// If the pinned messages alone exceed n, only the pinned messages are kept.
// n <= 0 disables trimming.
func KeepLast(n int) TrimStrategy {
	return TrimFunc(func(msgs []message.Message) []message.Message {
		if n <= 0 || len(msgs) <= n {
			return msgs
		}

		pinned := make([]bool, len(msgs))
		firstUser, lastUser := -1, -1
		for i, m := range msgs {
			switch m.Role {
			case role.System:
				pinned[i] = true
			case role.User:
				if firstUser < 0 {
					firstUser = i
				}
				lastUser = i
			}
		}
		if firstUser >= 0 {
			pinned[firstUser] = true
			pinned[lastUser] = true
		}

		pinnedCount := 0
		for _, p := range pinned {
			if p {
				pinnedCount++
			}
		}

		budget := max(n-pinnedCount, 0)

		// Walk backwards keeping the newest unpinned messages.
		keep := make([]bool, len(msgs))
		for i := len(msgs) - 1; i >= 0 && budget > 0; i-- {
			if pinned[i] {
				continue
			}
			keep[i] = true
			budget--
		}

		// Drop leading tool results whose assistant turn was dropped.
		for i := range msgs {
			if pinned[i] {
				continue
			}
			if !keep[i] {
				continue
			}
			if msgs[i].Role != role.Tool {
				break
			}
			keep[i] = false
		}

		out := make([]message.Message, 0, n)
		for i, m := range msgs {
			if pinned[i] || keep[i] {
				out = append(out, m)
			}
		}
		return out
	})
}
