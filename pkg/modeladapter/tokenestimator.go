package modeladapter

import (
	"github.com/germanamz/actloop/pkg/chats/content"
	"github.com/germanamz/actloop/pkg/chats/message"
	"github.com/germanamz/actloop/pkg/tools/toolbox"
)

// perMessageOverhead is the estimated token overhead for each message (role,
// structure delimiters, etc.).
const perMessageOverhead = 4

// perToolOverhead is the estimated token overhead for each tool definition.
const perToolOverhead = 10

// TokenEstimator estimates token counts for providers that do not report
// usage. It uses a 1 token per 4 characters heuristic with structural
// overheads. The zero value is ready to use.
type TokenEstimator struct{}

func charsToTokens(chars int) int {
	return (chars + 3) / 4 // round up
}

// EstimateTurns estimates the input tokens for a sequence of turns.
func (e *TokenEstimator) EstimateTurns(turns []message.Message) int {
	tokens := 0
	for _, m := range turns {
		tokens += perMessageOverhead + e.estimateParts(m.Parts)
	}
	return tokens
}

func (e *TokenEstimator) estimateParts(parts []content.Part) int {
	tokens := 0
	for _, p := range parts {
		switch v := p.(type) {
		case content.Text:
			tokens += charsToTokens(len(v.Text))
		case content.ToolCall:
			tokens += charsToTokens(len(v.ID) + len(v.Name) + len(v.Arguments))
		case content.ToolResult:
			tokens += charsToTokens(len(v.ToolCallID) + len(v.Content))
		}
	}
	return tokens
}

// EstimateTools estimates the token cost of tool definitions.
func (e *TokenEstimator) EstimateTools(tools []toolbox.Tool) int {
	tokens := 0
	for _, t := range tools {
		chars := len(t.Name) + len(t.Description) + len(t.InputSchema())
		tokens += charsToTokens(chars) + perToolOverhead
	}
	return tokens
}

// EstimateRequest estimates the input tokens of a full model request.
func (e *TokenEstimator) EstimateRequest(req Request) int {
	tokens := e.EstimateTurns(req.Turns) + e.EstimateTools(req.Tools)
	if req.System != "" {
		tokens += charsToTokens(len(req.System)) + perMessageOverhead
	}
	return tokens
}

// EstimateResponse estimates the output tokens of a response.
func (e *TokenEstimator) EstimateResponse(resp Response) int {
	tokens := charsToTokens(len(resp.Text))
	for _, c := range resp.Calls {
		tokens += charsToTokens(len(c.ID) + len(c.Name) + len(c.Arguments))
	}
	return tokens
}
