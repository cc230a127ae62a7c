// Package chats provides the provider-agnostic conversation model used by the
// agent loop.
//
// It is organized into sub-packages:
//   - [github.com/germanamz/actloop/pkg/chats/role]: sender roles (system, user, assistant, tool)
//   - [github.com/germanamz/actloop/pkg/chats/content]: content parts (text, tool call, tool result)
//   - [github.com/germanamz/actloop/pkg/chats/message]: turns composed of a role, sender and parts
//   - [github.com/germanamz/actloop/pkg/chats/chat]: the append-only conversation state
//
// No provider or API code is included. Model adapters translate these types
// to and from their wire formats.
package chats
