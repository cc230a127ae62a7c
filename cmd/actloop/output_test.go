package main

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/germanamz/actloop/pkg/agent"
	"github.com/germanamz/actloop/pkg/chats/chat"
	"github.com/germanamz/actloop/pkg/chats/content"
	"github.com/germanamz/actloop/pkg/chats/message"
	"github.com/germanamz/actloop/pkg/chats/role"
	"github.com/germanamz/actloop/pkg/modeladapter"
	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCodeFor(t *testing.T) {
	assert.Equal(t, 0, exitCodeFor(agent.Completed))
	assert.Equal(t, 1, exitCodeFor(agent.Failed))
	assert.Equal(t, 2, exitCodeFor(agent.Exhausted))
}

func TestWriteResult_Completed(t *testing.T) {
	var buf bytes.Buffer
	code := writeResult(&buf, agent.Result{Status: agent.Completed, Answer: "**42**"})

	assert.Equal(t, exitCompleted, code)
	assert.Equal(t, "**42**\n", buf.String())
}

func TestWriteResult_Exhausted(t *testing.T) {
	c := chat.New(message.NewUser("count forever"))
	for i := range 10 {
		id := string(rune('a' + i))
		c.Append(
			message.NewAssistant("general", "", content.ToolCall{ID: id, Name: "calculator", Arguments: `{"expression":"1+1"}`}),
			message.NewToolResult("general", content.ToolResult{ToolCallID: id, ToolName: "calculator", Content: "2"}),
		)
	}

	var buf bytes.Buffer
	code := writeResult(&buf, agent.Result{
		Status:     agent.Exhausted,
		State:      agent.BudgetExhausted,
		Agent:      "general",
		Iterations: 10,
		Chat:       c,
	})

	assert.Equal(t, exitExhausted, code)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 1+diagnosticTurns)
	assert.Contains(t, lines[0], "exhausted: agent general")
	assert.Contains(t, lines[0], "after 10 iteration(s)")
	assert.True(t, strings.HasSuffix(lines[0], ": iteration budget exhausted"), lines[0])
	assert.Equal(t, `  [tool] calculator -> 2`, lines[len(lines)-1])
}

func TestWriteResult_Failed(t *testing.T) {
	var buf bytes.Buffer
	code := writeResult(&buf, agent.Result{
		Status: agent.Failed,
		State:  agent.ModelError,
		Agent:  "bash",
		Err:    errors.New("model call failed"),
		Chat:   chat.New(message.NewUser("run ls")),
	})

	assert.Equal(t, exitFailed, code)
	assert.Contains(t, buf.String(), "failed: agent bash stopped in state")
	assert.Contains(t, buf.String(), "model call failed")
	assert.Contains(t, buf.String(), "  [user] run ls")
}

func TestReason(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain", errors.New("model call failed"), "model call failed"},
		{"model call", &modeladapter.ModelCallError{Provider: "openai", Reason: "api error", Err: errors.New("429 Too Many Requests")}, "api error: 429 Too Many Requests"},
		{"wrapped sentinel", fmt.Errorf("engine: %w", agent.ErrCancelled), "cancelled"},
		{"label only", errors.New("agent: "), "agent: "},
		{"sentence head kept", errors.New("Bad input: engine: x"), "Bad input: engine: x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reason(tt.err))
		})
	}
}

func TestWriteRequestError(t *testing.T) {
	var buf bytes.Buffer
	writeRequestError(&buf, fmt.Errorf("engine: %w: %q", errors.New("router: unknown agent"), "ghost"))

	assert.Equal(t, "error: unknown agent: \"ghost\"\n", buf.String())
}

func TestDiagnostics_TruncatesWide(t *testing.T) {
	long := strings.Repeat("字", 200)
	c := chat.New(message.NewUser(long))

	lines := diagnostics(c, 6, 40)
	require.Len(t, lines, 1)
	assert.LessOrEqual(t, runewidth.StringWidth(lines[0]), 40)
	assert.True(t, strings.HasSuffix(lines[0], "..."))
}

func TestDiagnostics_NilChat(t *testing.T) {
	assert.Nil(t, diagnostics(nil, 6, 40))
}

func TestTurnLine(t *testing.T) {
	code := 3
	tests := []struct {
		name string
		msg  message.Message
		want string
	}{
		{"user", message.NewUser("hello\n  world"), "[user] hello world"},
		{
			"assistant with calls",
			message.NewAssistant("general", "checking", content.ToolCall{ID: "1", Name: "bash", Arguments: `{"command":"ls"}`}),
			`[assistant] checking; call bash({"command":"ls"})`,
		},
		{
			"tool error",
			message.NewToolResult("general", content.ToolResult{
				ToolName: "bash", Content: "boom", IsError: true, Kind: content.ErrorExecution, ExitCode: &code,
			}),
			"[tool] bash -> error (execution_error, exit code 3): boom",
		},
		{"empty", message.New("x", role.Assistant), "[assistant] (empty)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, turnLine(tt.msg))
		})
	}
}

func TestMarkdownRenderer_ZeroValue(t *testing.T) {
	assert.Equal(t, "plain", markdownRenderer{}.render("plain"))
}
