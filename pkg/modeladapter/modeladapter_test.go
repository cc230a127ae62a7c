package modeladapter_test

import (
	"context"
	"testing"

	"github.com/germanamz/actloop/pkg/chats/content"
	"github.com/germanamz/actloop/pkg/chats/message"
	"github.com/germanamz/actloop/pkg/chats/role"
	"github.com/germanamz/actloop/pkg/modeladapter"
	"github.com/germanamz/actloop/pkg/modeladapter/usage"
	"github.com/germanamz/actloop/pkg/tools/toolbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface checks.
var (
	_ modeladapter.Completer     = modeladapter.CompleterFunc(nil)
	_ modeladapter.UsageReporter = (*modeladapter.ModelAdapter)(nil)
)

func TestCompleterFunc(t *testing.T) {
	var got modeladapter.Request
	c := modeladapter.CompleterFunc(func(_ context.Context, req modeladapter.Request) (modeladapter.Response, error) {
		got = req
		return modeladapter.Response{Kind: modeladapter.FinalAnswer, Text: "hi"}, nil
	})

	req := modeladapter.Request{System: "be brief", Turns: []message.Message{message.NewUser("hello")}}
	resp, err := c.Complete(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "hi", resp.Text)
	assert.Equal(t, "be brief", got.System)
	assert.Len(t, got.Turns, 1)
}

func TestResponseKind_String(t *testing.T) {
	assert.Equal(t, "final_answer", modeladapter.FinalAnswer.String())
	assert.Equal(t, "tool_calls", modeladapter.ToolCalls.String())
	assert.Equal(t, "unknown", modeladapter.ResponseKind(9).String())
}

func TestResponse_Message_FinalAnswer(t *testing.T) {
	resp := modeladapter.Response{Kind: modeladapter.FinalAnswer, Text: "56"}

	m := resp.Message("general")

	assert.Equal(t, role.Assistant, m.Role)
	assert.Equal(t, "general", m.Sender)
	assert.Equal(t, "56", m.TextContent())
	assert.Empty(t, m.ToolCalls())
}

func TestResponse_Message_ToolCalls(t *testing.T) {
	resp := modeladapter.Response{
		Kind:  modeladapter.ToolCalls,
		Text:  "computing",
		Calls: []content.ToolCall{{ID: "c1", Name: "calculator", Arguments: `{"expression":"7*8"}`}},
	}

	m := resp.Message("general")

	assert.Equal(t, "computing", m.TextContent())
	require.Len(t, m.ToolCalls(), 1)
	assert.Equal(t, "c1", m.ToolCalls()[0].ID)
}

func TestModelAdapter_Logger_Nop(t *testing.T) {
	var a modeladapter.ModelAdapter
	assert.NotNil(t, a.Logger())
}

func TestModelAdapter_Record_Reported(t *testing.T) {
	var a modeladapter.ModelAdapter

	got := a.Record(modeladapter.Request{}, modeladapter.Response{}, usage.TokenCount{InputTokens: 10, OutputTokens: 3})

	assert.Equal(t, 13, got.Total())
	calls, _ := a.UsageTracker().Calls()
	assert.Equal(t, 1, calls)
}

func TestModelAdapter_Record_Estimated(t *testing.T) {
	var a modeladapter.ModelAdapter

	req := modeladapter.Request{
		System: "You are helpful.",
		Turns:  []message.Message{message.NewUser("What is 7 * 8?")},
		Tools:  []toolbox.Tool{{Name: "calculator", Description: "Evaluates math"}},
	}
	got := a.Record(req, modeladapter.Response{Text: "56"}, usage.TokenCount{})

	assert.Positive(t, got.InputTokens)
	assert.Positive(t, got.OutputTokens)
	assert.True(t, got.Estimated)
	assert.Equal(t, got, a.UsageTracker().Total())
}
