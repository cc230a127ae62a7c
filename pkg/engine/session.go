package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/germanamz/actloop/pkg/chats/chat"
)

// Session represents one interactive conversation. The first message is
// routed unless the session was pinned to an agent; later messages continue
// with the same agent and chat. Only one Send call may be active at a time.
type Session struct {
	id     string
	engine *Engine

	mu     sync.Mutex
	active bool
	agent  string
	pinned bool
	chat   *chat.Chat
}

// newSession creates a session with the given ID. A non-empty agentName pins
// the session to that agent.
func newSession(id string, e *Engine, agentName string) *Session {
	return &Session{
		id:     id,
		engine: e,
		agent:  agentName,
		pinned: agentName != "",
		chat:   chat.New(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Agent returns the name of the agent handling the session, or "" before the
// first message is routed.
func (s *Session) Agent() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.agent
}

// Chat returns the session's conversation.
func (s *Session) Chat() *chat.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.chat
}

// Send appends a user message to the conversation and runs the agent loop over
// it. Only one Send may be active per session.
func (s *Session) Send(ctx context.Context, text string) (Outcome, error) {
	if err := s.acquire(); err != nil {
		return Outcome{}, err
	}
	defer s.release()

	req := Request{Text: text, Agent: s.agent}

	d, err := s.engine.decide(ctx, s.id, req)
	if err != nil {
		return Outcome{}, err
	}

	s.mu.Lock()
	s.agent = d.Agent.Name
	c := s.chat
	s.mu.Unlock()

	res := s.engine.run(ctx, s.id, d.Agent.Name, c, text)
	return Outcome{Decision: d, Result: res}, nil
}

// Reset clears the conversation. An unpinned session routes its next message
// again.
func (s *Session) Reset() error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.chat = chat.New()
	if !s.pinned {
		s.agent = ""
	}

	return nil
}

func (s *Session) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return fmt.Errorf("engine: session %s: another Send is already active", s.id)
	}
	s.active = true
	return nil
}

func (s *Session) release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = false
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }
