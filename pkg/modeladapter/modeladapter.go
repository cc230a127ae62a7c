package modeladapter

import (
	"context"

	"github.com/germanamz/actloop/pkg/chats/content"
	"github.com/germanamz/actloop/pkg/chats/message"
	"github.com/germanamz/actloop/pkg/chats/role"
	"github.com/germanamz/actloop/pkg/modeladapter/usage"
	"github.com/germanamz/actloop/pkg/tools/toolbox"
	"go.uber.org/zap"
)

// Request is one model call: the system prompt, the conversation snapshot and
// the tools the model may request.
type Request struct {
	System string
	Turns  []message.Message
	Tools  []toolbox.Tool
}

// ResponseKind tags the two shapes a model response may take.
type ResponseKind int

const (
	// FinalAnswer means the model considers the task complete.
	FinalAnswer ResponseKind = iota
	// ToolCalls means the model requests one or more tool invocations.
	ToolCalls
)

func (k ResponseKind) String() string {
	switch k {
	case FinalAnswer:
		return "final_answer"
	case ToolCalls:
		return "tool_calls"
	}
	return "unknown"
}

// Response is the validated reply of a model call. For ToolCalls responses
// Text holds any reasoning the model emitted alongside the calls.
type Response struct {
	Kind  ResponseKind
	Text  string
	Calls []content.ToolCall
	Usage usage.TokenCount
}

// Message converts the response into an assistant turn.
func (r Response) Message(sender string) message.Message {
	if r.Kind == ToolCalls {
		return message.NewAssistant(sender, r.Text, r.Calls...)
	}
	return message.NewText(sender, role.Assistant, r.Text)
}

// Completer sends a request to a language model and returns its reply.
// Implementations must honour ctx cancellation and return a *ModelCallError
// for network, timeout and malformed-output failures.
type Completer interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, req Request) (Response, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// UsageReporter provides token usage information from a completer.
// Completers that embed ModelAdapter implement this interface automatically.
type UsageReporter interface {
	UsageTracker() *usage.Tracker
}

// ModelAdapter holds shared state for provider implementations. Embed it in
// concrete provider structs to get model settings, logging and usage
// tracking.
type ModelAdapter struct {
	Provider    string      // Provider name used in errors and logs.
	Name        string      // Model identifier (e.g. "gpt-4o-mini").
	Temperature float64     // Sampling temperature.
	MaxTokens   int         // Maximum tokens in the response; zero leaves the provider default.
	Log         *zap.Logger // Nil means no logging.
	Usage       usage.Tracker

	estimator TokenEstimator
}

// UsageTracker returns the adapter's token usage tracker.
func (a *ModelAdapter) UsageTracker() *usage.Tracker { return &a.Usage }

// Logger returns the configured logger or a no-op logger.
func (a *ModelAdapter) Logger() *zap.Logger {
	if a.Log == nil {
		return zap.NewNop()
	}
	return a.Log
}

// Record adds tc to the usage tracker. When the provider reported no usage the
// count is estimated from the request and response.
func (a *ModelAdapter) Record(req Request, resp Response, tc usage.TokenCount) usage.TokenCount {
	if tc.Total() == 0 {
		tc = usage.TokenCount{
			InputTokens:  a.estimator.EstimateRequest(req),
			OutputTokens: a.estimator.EstimateResponse(resp),
			Estimated:    true,
		}
	}
	a.Usage.Add(tc)
	return tc
}
