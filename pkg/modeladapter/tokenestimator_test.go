package modeladapter_test

import (
	"testing"

	"github.com/germanamz/actloop/pkg/chats/content"
	"github.com/germanamz/actloop/pkg/chats/message"
	"github.com/germanamz/actloop/pkg/chats/role"
	"github.com/germanamz/actloop/pkg/modeladapter"
	"github.com/germanamz/actloop/pkg/tools/toolbox"
	"github.com/stretchr/testify/assert"
)

func TestEstimateTurns_Empty(t *testing.T) {
	e := &modeladapter.TokenEstimator{}

	assert.Equal(t, 0, e.EstimateTurns(nil))
}

func TestEstimateTurns_TextMessages(t *testing.T) {
	e := &modeladapter.TokenEstimator{}
	turns := []message.Message{
		message.NewText("user", role.User, "Hello, how are you?"),       // 19 chars
		message.NewText("bot", role.Assistant, "I am fine, thank you!"), // 21 chars
	}

	// 2 * 4 overhead + ceil(19/4) + ceil(21/4) = 8 + 5 + 6
	assert.Equal(t, 19, e.EstimateTurns(turns))
}

func TestEstimateTurns_WithToolCalls(t *testing.T) {
	e := &modeladapter.TokenEstimator{}
	turns := []message.Message{
		message.NewUser("Search for golang"),
		message.NewAssistant("bot", "Let me search.",
			content.ToolCall{ID: "c1", Name: "search_files", Arguments: `{"pattern":"golang"}`},
		),
		message.NewToolResult("bot", content.ToolResult{ToolCallID: "c1", Content: "Found results."}),
	}

	assert.Greater(t, e.EstimateTurns(turns), 12) // 3 messages * 4 overhead minimum
}

func TestEstimateTools(t *testing.T) {
	e := &modeladapter.TokenEstimator{}

	assert.Equal(t, 0, e.EstimateTools(nil))

	one := e.EstimateTools([]toolbox.Tool{{
		Name:        "calculator",
		Description: "Evaluates arithmetic",
		Params:      []toolbox.Param{{Name: "expression", Type: toolbox.TypeString, Required: true}},
	}})
	assert.Greater(t, one, 10)
}

func TestEstimateRequest_IncludesSystem(t *testing.T) {
	e := &modeladapter.TokenEstimator{}
	turns := []message.Message{message.NewUser("hi")}

	without := e.EstimateRequest(modeladapter.Request{Turns: turns})
	with := e.EstimateRequest(modeladapter.Request{System: "You are a helpful agent.", Turns: turns})

	assert.Greater(t, with, without)
}

func TestEstimateResponse(t *testing.T) {
	e := &modeladapter.TokenEstimator{}

	assert.Equal(t, 0, e.EstimateResponse(modeladapter.Response{}))
	assert.Equal(t, 1, e.EstimateResponse(modeladapter.Response{Text: "56"}))
}
