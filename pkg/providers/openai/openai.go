// Package openai provides a Completer for OpenAI-compatible Chat Completions
// APIs, including Moonshot and OpenRouter.
package openai

import (
	"context"
	"errors"
	"net/http"

	"github.com/germanamz/actloop/pkg/chats/content"
	"github.com/germanamz/actloop/pkg/chats/message"
	"github.com/germanamz/actloop/pkg/chats/role"
	"github.com/germanamz/actloop/pkg/modeladapter"
	"github.com/germanamz/actloop/pkg/modeladapter/usage"
	"github.com/germanamz/actloop/pkg/tools/toolbox"
	goopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// DefaultBaseURL is the OpenAI API base URL.
const DefaultBaseURL = "https://api.openai.com/v1"

const providerName = "openai"

var _ modeladapter.Completer = (*Adapter)(nil)

// Config configures an Adapter.
type Config struct {
	BaseURL     string // Including the version path, e.g. https://api.moonshot.cn/v1.
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	HTTPClient  *http.Client
	Log         *zap.Logger
}

// Adapter implements modeladapter.Completer for OpenAI-compatible APIs.
type Adapter struct {
	modeladapter.ModelAdapter

	client *goopenai.Client
}

// New creates an Adapter.
func New(cfg Config) *Adapter {
	oc := goopenai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = DefaultBaseURL
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	}

	a := &Adapter{client: goopenai.NewClientWithConfig(oc)}
	a.Provider = providerName
	a.Name = cfg.Model
	a.Temperature = cfg.Temperature
	a.MaxTokens = cfg.MaxTokens
	a.Log = cfg.Log

	return a
}

// Complete sends the request to the Chat Completions endpoint.
func (a *Adapter) Complete(ctx context.Context, req modeladapter.Request) (modeladapter.Response, error) {
	log := a.Logger()

	creq := goopenai.ChatCompletionRequest{
		Model:       a.Name,
		Messages:    convertMessages(req.System, req.Turns),
		Tools:       convertTools(req.Tools),
		Temperature: float32(a.Temperature),
		MaxTokens:   a.MaxTokens,
	}

	log.Debug("chat completion request",
		zap.String("model", a.Name),
		zap.Int("messages", len(creq.Messages)),
		zap.Int("tools", len(creq.Tools)),
	)

	resp, err := a.client.CreateChatCompletion(ctx, creq)
	if err != nil {
		return modeladapter.Response{}, wrapError(err)
	}

	if len(resp.Choices) == 0 {
		return modeladapter.Response{}, modeladapter.Malformed(providerName, "empty choices in response")
	}

	out, err := parseMessage(resp.Choices[0].Message)
	if err != nil {
		return modeladapter.Response{}, err
	}

	out.Usage = a.Record(req, out, usage.TokenCount{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	})

	log.Debug("chat completion response",
		zap.Stringer("kind", out.Kind),
		zap.Int("tool_calls", len(out.Calls)),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
	)

	return out, nil
}

func wrapError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return &modeladapter.ModelCallError{Provider: providerName, Reason: modeladapter.ReasonAPI, Err: err}
	}
	return modeladapter.Wrap(providerName, err)
}

func convertMessages(system string, turns []message.Message) []goopenai.ChatCompletionMessage {
	out := make([]goopenai.ChatCompletionMessage, 0, len(turns)+1)
	if system != "" {
		out = append(out, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: system})
	}

	for _, m := range turns {
		switch m.Role {
		case role.System:
			out = append(out, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: m.TextContent()})
		case role.User:
			out = append(out, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: m.TextContent()})
		case role.Assistant:
			msg := goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleAssistant, Content: m.TextContent()}
			for _, tc := range m.ToolCalls() {
				msg.ToolCalls = append(msg.ToolCalls, goopenai.ToolCall{
					ID:   tc.ID,
					Type: goopenai.ToolTypeFunction,
					Function: goopenai.FunctionCall{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
			out = append(out, msg)
		case role.Tool:
			for _, p := range m.Parts {
				tr, ok := p.(content.ToolResult)
				if !ok {
					continue
				}
				out = append(out, goopenai.ChatCompletionMessage{
					Role:       goopenai.ChatMessageRoleTool,
					Content:    modeladapter.ResultText(tr),
					ToolCallID: tr.ToolCallID,
				})
			}
		}
	}

	return out
}

func convertTools(tools []toolbox.Tool) []goopenai.Tool {
	if len(tools) == 0 {
		return nil
	}

	out := make([]goopenai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, goopenai.Tool{
			Type: goopenai.ToolTypeFunction,
			Function: &goopenai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema(),
			},
		})
	}
	return out
}

func parseMessage(msg goopenai.ChatCompletionMessage) (modeladapter.Response, error) {
	calls := make([]content.ToolCall, 0, len(msg.ToolCalls))
	for _, tc := range msg.ToolCalls {
		calls = append(calls, content.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return modeladapter.NewResponse(providerName, msg.Content, calls)
}
