package toolbox

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/germanamz/actloop/pkg/chats/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoHandler(_ context.Context, input json.RawMessage) (string, error) {
	return string(input), nil
}

func errorHandler(_ context.Context, _ json.RawMessage) (string, error) {
	return "", errors.New("tool failed")
}

func newEchoTool(name string) Tool {
	return Tool{
		Name:        name,
		Description: "Echoes input",
		Handler:     echoHandler,
	}
}

func TestNew(t *testing.T) {
	tb := New()
	assert.NotNil(t, tb)
	assert.Empty(t, tb.Tools())
	assert.Equal(t, 0, tb.Len())
}

func TestRegisterAndGet(t *testing.T) {
	tb := New()
	require.NoError(t, tb.Register(newEchoTool("echo")))

	got, ok := tb.Get("echo")
	assert.True(t, ok)
	assert.Equal(t, "echo", got.Name)
}

func TestGetNotFound(t *testing.T) {
	tb := New()

	_, ok := tb.Get("missing")
	assert.False(t, ok)
}

func TestRegister_Duplicate(t *testing.T) {
	tb := New()
	require.NoError(t, tb.Register(newEchoTool("tool")))

	err := tb.Register(newEchoTool("other"), newEchoTool("tool"))
	require.ErrorIs(t, err, ErrDuplicateTool)

	// Nothing from the failed batch is registered.
	_, ok := tb.Get("other")
	assert.False(t, ok)
	assert.Equal(t, 1, tb.Len())
}

func TestRegister_DuplicateWithinBatch(t *testing.T) {
	tb := New()

	err := tb.Register(newEchoTool("a"), newEchoTool("a"))
	require.ErrorIs(t, err, ErrDuplicateTool)
	assert.Equal(t, 0, tb.Len())
}

func TestRegister_Invalid(t *testing.T) {
	tb := New()

	require.ErrorIs(t, tb.Register(Tool{Name: "nohandler"}), ErrInvalidTool)
	require.ErrorIs(t, tb.Register(Tool{Handler: echoHandler}), ErrInvalidTool)
}

func TestMustRegister_Panics(t *testing.T) {
	tb := New()
	tb.MustRegister(newEchoTool("a"))

	assert.Panics(t, func() { tb.MustRegister(newEchoTool("a")) })
}

func TestTools_RegistrationOrder(t *testing.T) {
	tb := New()
	require.NoError(t, tb.Register(newEchoTool("zeta"), newEchoTool("alpha")))
	require.NoError(t, tb.Register(newEchoTool("mid")))

	names := make([]string, 0, 3)
	for _, tool := range tb.Tools() {
		names = append(names, tool.Name)
	}

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, names)
	assert.Equal(t, names, tb.Names())
}

func TestTools_Idempotent(t *testing.T) {
	tb := New()
	require.NoError(t, tb.Register(newEchoTool("c"), newEchoTool("a"), newEchoTool("b")))

	assert.Equal(t, tb.Names(), tb.Names())
	first := tb.Tools()
	second := tb.Tools()
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Name, second[i].Name)
	}
}

func TestMerge(t *testing.T) {
	tb1 := New()
	tb1.MustRegister(newEchoTool("a"))

	tb2 := New()
	tb2.MustRegister(newEchoTool("b"), newEchoTool("c"))

	require.NoError(t, tb1.Merge(tb2))
	assert.Equal(t, []string{"a", "b", "c"}, tb1.Names())

	require.ErrorIs(t, tb1.Merge(tb2), ErrDuplicateTool)
}

func TestSubset(t *testing.T) {
	tb := New()
	tb.MustRegister(newEchoTool("a"), newEchoTool("b"), newEchoTool("c"))

	sub, err := tb.Subset("c", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, sub.Names())

	all, err := tb.Subset()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, all.Names())

	_, err = tb.Subset("a", "search")
	require.ErrorIs(t, err, ErrUnknownTool)
}

func TestCall_Success(t *testing.T) {
	tb := New()
	tb.MustRegister(newEchoTool("echo"))

	result := tb.Call(context.Background(), content.ToolCall{
		ID:        "call-1",
		Name:      "echo",
		Arguments: `{"msg":"hi"}`,
	})

	assert.Equal(t, "call-1", result.ToolCallID)
	assert.Equal(t, "echo", result.ToolName)
	assert.JSONEq(t, `{"msg":"hi"}`, result.Content)
	assert.False(t, result.IsError)
	assert.Equal(t, content.ErrorNone, result.Kind)
}

func TestCall_EmptyArguments(t *testing.T) {
	tb := New()
	tb.MustRegister(newEchoTool("echo"))

	result := tb.Call(context.Background(), content.ToolCall{ID: "c", Name: "echo"})

	assert.False(t, result.IsError)
	assert.Equal(t, "{}", result.Content)
}

func TestCall_UnknownTool(t *testing.T) {
	tb := New()

	for _, name := range []string{"search", "", "ECHO"} {
		var result content.ToolResult
		assert.NotPanics(t, func() {
			result = tb.Call(context.Background(), content.ToolCall{ID: "call-2", Name: name})
		})

		assert.Equal(t, "call-2", result.ToolCallID)
		assert.True(t, result.IsError)
		assert.Equal(t, content.ErrorUnknownTool, result.Kind)
		assert.Contains(t, result.Content, "unknown tool")
	}
}

func TestCall_InvalidArguments(t *testing.T) {
	called := false
	tb := New()
	tb.MustRegister(Tool{
		Name:   "calculator",
		Params: []Param{{Name: "a", Type: TypeNumber, Required: true}, {Name: "b", Type: TypeNumber, Required: true}},
		Handler: func(_ context.Context, _ json.RawMessage) (string, error) {
			called = true
			return "", nil
		},
	})

	result := tb.Call(context.Background(), content.ToolCall{ID: "c", Name: "calculator", Arguments: `{"a": 7}`})

	assert.True(t, result.IsError)
	assert.Equal(t, content.ErrorInvalidArguments, result.Kind)
	assert.Contains(t, result.Content, `missing required parameter "b"`)
	assert.False(t, called)
}

func TestCall_HandlerError(t *testing.T) {
	tb := New()
	tb.MustRegister(Tool{Name: "fail", Handler: errorHandler})

	result := tb.Call(context.Background(), content.ToolCall{ID: "call-3", Name: "fail"})

	assert.Equal(t, "call-3", result.ToolCallID)
	assert.True(t, result.IsError)
	assert.Equal(t, content.ErrorExecution, result.Kind)
	assert.Equal(t, "tool failed", result.Content)
	assert.Nil(t, result.ExitCode)
}

func TestCall_ExitCode(t *testing.T) {
	tb := New()
	tb.MustRegister(Tool{Name: "bash", Handler: func(_ context.Context, _ json.RawMessage) (string, error) {
		return "", Exit(127, "command not found")
	}})

	result := tb.Call(context.Background(), content.ToolCall{ID: "c", Name: "bash"})

	assert.True(t, result.IsError)
	assert.Equal(t, content.ErrorExecution, result.Kind)
	require.NotNil(t, result.ExitCode)
	assert.Equal(t, 127, *result.ExitCode)
	assert.Equal(t, "command not found", result.Content)
}

func TestCall_HandlerPanic(t *testing.T) {
	tb := New()
	tb.MustRegister(Tool{Name: "boom", Handler: func(_ context.Context, _ json.RawMessage) (string, error) {
		panic("kaboom")
	}})

	var result content.ToolResult
	require.NotPanics(t, func() {
		result = tb.Call(context.Background(), content.ToolCall{ID: "c", Name: "boom"})
	})

	assert.True(t, result.IsError)
	assert.Equal(t, content.ErrorExecution, result.Kind)
	assert.Equal(t, "panic: kaboom", result.Content)
}

func TestCall_CancelledBeforeStart(t *testing.T) {
	called := false
	tb := New()
	tb.MustRegister(Tool{Name: "slow", Handler: func(_ context.Context, _ json.RawMessage) (string, error) {
		called = true
		return "", nil
	}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := tb.Call(ctx, content.ToolCall{ID: "c", Name: "slow"})

	assert.True(t, result.IsError)
	assert.Equal(t, content.ErrorCancelled, result.Kind)
	assert.False(t, called)
}

func TestCall_CancelledDuringRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	tb := New()
	tb.MustRegister(Tool{Name: "slow", Handler: func(ctx context.Context, _ json.RawMessage) (string, error) {
		cancel()
		<-ctx.Done()
		return "", ctx.Err()
	}})

	result := tb.Call(ctx, content.ToolCall{ID: "c", Name: "slow"})

	assert.True(t, result.IsError)
	assert.Equal(t, content.ErrorCancelled, result.Kind)
}

func TestCall_Truncation(t *testing.T) {
	tb := NewWithOptions(Options{MaxResultLen: 5})
	tb.MustRegister(Tool{Name: "long", Handler: func(_ context.Context, _ json.RawMessage) (string, error) {
		return "héllo wörld", nil
	}})

	result := tb.Call(context.Background(), content.ToolCall{ID: "c", Name: "long"})

	assert.Equal(t, "héllo\n... (truncated)", result.Content)
}

func TestCall_TruncationDisabled(t *testing.T) {
	long := strings.Repeat("x", DefaultMaxResultLen+10)
	tb := NewWithOptions(Options{MaxResultLen: -1})
	tb.MustRegister(Tool{Name: "long", Handler: func(_ context.Context, _ json.RawMessage) (string, error) {
		return long, nil
	}})

	result := tb.Call(context.Background(), content.ToolCall{ID: "c", Name: "long"})

	assert.Equal(t, long, result.Content)
}

func TestCall_DefaultTruncation(t *testing.T) {
	tb := New()
	tb.MustRegister(Tool{Name: "long", Handler: func(_ context.Context, _ json.RawMessage) (string, error) {
		return strings.Repeat("x", DefaultMaxResultLen+1), nil
	}})

	result := tb.Call(context.Background(), content.ToolCall{ID: "c", Name: "long"})

	assert.True(t, strings.HasSuffix(result.Content, "(truncated)"))
}

func TestCall_DeadlineIsExecutionError(t *testing.T) {
	tb := New()
	tb.MustRegister(Tool{Name: "hang", Handler: func(ctx context.Context, _ json.RawMessage) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	result := tb.Call(ctx, content.ToolCall{ID: "c", Name: "hang"})

	assert.True(t, result.IsError)
	assert.Equal(t, content.ErrorExecution, result.Kind)
	assert.Equal(t, "timed out: context deadline exceeded", result.Content)
}
