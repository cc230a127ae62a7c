package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/germanamz/actloop/pkg/tools/toolbox"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registry() *toolbox.ToolBox {
	tb := toolbox.New()
	tb.MustRegister(
		toolbox.Tool{
			Name:        "upper",
			Description: "Upper-case a word",
			Params:      []toolbox.Param{{Name: "word", Type: toolbox.TypeString, Required: true}},
			Handler: func(_ context.Context, in json.RawMessage) (string, error) {
				var args struct {
					Word string `json:"word"`
				}
				if err := json.Unmarshal(in, &args); err != nil {
					return "", err
				}
				return strings.ToUpper(args.Word), nil
			},
		},
		toolbox.Tool{
			Name:        "grep",
			Description: "Fails with an exit code",
			Handler: func(context.Context, json.RawMessage) (string, error) {
				return "", toolbox.Exit(1, "no matches")
			},
		},
		toolbox.Tool{
			Name:        "boom",
			Description: "Always fails",
			Handler: func(context.Context, json.RawMessage) (string, error) {
				return "", errors.New("disk full")
			},
		},
	)
	return tb
}

// connectClient serves s over in-memory transports and returns a client
// session. Both ends stop when the test finishes.
func connectClient(t *testing.T, s *Server) *mcp.ClientSession {
	t.Helper()

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.run(ctx, serverT) }()

	client := mcp.NewClient(&mcp.Implementation{Name: "tester", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientT, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = session.Close()
		cancel()
		<-done
	})

	return session
}

func callText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()

	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestNew_PublishesAll(t *testing.T) {
	s, err := New(registry(), Options{Name: "actloop", Version: "test"})
	require.NoError(t, err)
	session := connectClient(t, s)

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
		if tool.Name == "upper" {
			schema, err := json.Marshal(tool.InputSchema)
			require.NoError(t, err)
			assert.JSONEq(t, `{"type":"object","properties":{"word":{"type":"string"}},"required":["word"]}`, string(schema))
		}
	}
	assert.ElementsMatch(t, []string{"upper", "grep", "boom"}, names)
}

func TestNew_Subset(t *testing.T) {
	s, err := New(registry(), Options{Tools: []string{"upper"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"upper"}, s.Tools())

	_, err = New(registry(), Options{Tools: []string{"upper", "nope"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mcpserver:")
}

func TestCall_Success(t *testing.T) {
	s, err := New(registry(), Options{})
	require.NoError(t, err)
	session := connectClient(t, s)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "upper",
		Arguments: map[string]any{"word": "react"},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "REACT", callText(t, res))
}

func TestCall_Errors(t *testing.T) {
	s, err := New(registry(), Options{})
	require.NoError(t, err)
	session := connectClient(t, s)

	tests := []struct {
		tool string
		args map[string]any
		want string
	}{
		{"upper", map[string]any{"word": 42}, "error (invalid_arguments): "},
		{"grep", map[string]any{}, "error (execution_error, exit code 1): no matches"},
		{"boom", map[string]any{}, "error (execution_error): disk full"},
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: tt.tool, Arguments: tt.args})
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, callText(t, res), tt.want)
		})
	}
}

func TestCall_UnknownTool(t *testing.T) {
	s, err := New(registry(), Options{Tools: []string{"upper"}})
	require.NoError(t, err)
	session := connectClient(t, s)

	_, err = session.CallTool(context.Background(), &mcp.CallToolParams{Name: "boom", Arguments: map[string]any{}})
	require.Error(t, err)
}

func TestRun_Cancelled(t *testing.T) {
	s, err := New(toolbox.New(), Options{})
	require.NoError(t, err)
	serverT, _ := mcp.NewInMemoryTransports()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.run(ctx, serverT), context.Canceled)
}
