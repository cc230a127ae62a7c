// Package ollama provides a Completer backed by a local Ollama server.
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/germanamz/actloop/pkg/chats/content"
	"github.com/germanamz/actloop/pkg/chats/message"
	"github.com/germanamz/actloop/pkg/chats/role"
	"github.com/germanamz/actloop/pkg/modeladapter"
	"github.com/germanamz/actloop/pkg/modeladapter/usage"
	"github.com/germanamz/actloop/pkg/tools/toolbox"
	jsoniter "github.com/json-iterator/go"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// DefaultBaseURL is where a local Ollama server listens.
const DefaultBaseURL = "http://localhost:11434"

const providerName = "ollama"

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

var _ modeladapter.Completer = (*Adapter)(nil)

// Config configures an Adapter.
type Config struct {
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	HTTPClient  *http.Client
	Log         *zap.Logger
}

// Adapter implements modeladapter.Completer for the Ollama chat API.
type Adapter struct {
	modeladapter.ModelAdapter

	client *api.Client
}

// New creates an Adapter. It fails only when BaseURL cannot be parsed.
func New(cfg Config) (*Adapter, error) {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}

	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("ollama: invalid base URL: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	a := &Adapter{client: api.NewClient(u, httpClient)}
	a.Provider = providerName
	a.Name = cfg.Model
	a.Temperature = cfg.Temperature
	a.MaxTokens = cfg.MaxTokens
	a.Log = cfg.Log

	return a, nil
}

// Complete sends a non-streaming chat request.
func (a *Adapter) Complete(ctx context.Context, req modeladapter.Request) (modeladapter.Response, error) {
	msgs, err := convertMessages(req.System, req.Turns)
	if err != nil {
		return modeladapter.Response{}, err
	}

	tools, err := convertTools(req.Tools)
	if err != nil {
		return modeladapter.Response{}, err
	}

	stream := false
	creq := &api.ChatRequest{
		Model:    a.Name,
		Messages: msgs,
		Tools:    tools,
		Options:  a.options(),
		Stream:   &stream,
	}

	a.Logger().Debug("ollama chat request",
		zap.String("model", a.Name),
		zap.Int("messages", len(msgs)),
		zap.Int("tools", len(tools)),
	)

	var (
		final api.ChatResponse
		got   bool
	)
	err = a.client.Chat(ctx, creq, func(resp api.ChatResponse) error {
		if resp.Message.Role != "" {
			final.Message.Role = resp.Message.Role
		}
		final.Message.Content += resp.Message.Content
		final.Message.ToolCalls = append(final.Message.ToolCalls, resp.Message.ToolCalls...)
		if resp.Done {
			final.Metrics = resp.Metrics
			final.Done = true
		}
		got = true
		return nil
	})
	if err != nil {
		return modeladapter.Response{}, modeladapter.Wrap(providerName, err)
	}
	if !got {
		return modeladapter.Response{}, modeladapter.Malformed(providerName, "empty response")
	}

	out, err := parseMessage(final.Message)
	if err != nil {
		return modeladapter.Response{}, err
	}

	out.Usage = a.Record(req, out, usage.TokenCount{
		InputTokens:  final.PromptEvalCount,
		OutputTokens: final.EvalCount,
	})

	return out, nil
}

func (a *Adapter) options() map[string]any {
	opts := map[string]any{"temperature": a.Temperature}
	if a.MaxTokens > 0 {
		opts["num_predict"] = a.MaxTokens
	}
	return opts
}

func convertMessages(system string, turns []message.Message) ([]api.Message, error) {
	out := make([]api.Message, 0, len(turns)+1)
	if system != "" {
		out = append(out, api.Message{Role: "system", Content: system})
	}

	for _, m := range turns {
		switch m.Role {
		case role.System, role.User:
			out = append(out, api.Message{Role: m.Role.String(), Content: m.TextContent()})
		case role.Assistant:
			msg := api.Message{Role: "assistant", Content: m.TextContent()}
			for _, tc := range m.ToolCalls() {
				args, err := convertArguments(tc.Arguments)
				if err != nil {
					return nil, modeladapter.Malformed(providerName, "tool call %q history: %v", tc.Name, err)
				}
				msg.ToolCalls = append(msg.ToolCalls, api.ToolCall{
					ID: tc.ID,
					Function: api.ToolCallFunction{
						Name:      tc.Name,
						Arguments: args,
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
				out = append(out, api.Message{
					Role:       "tool",
					Content:    modeladapter.ResultText(tr),
					ToolName:   tr.ToolName,
					ToolCallID: tr.ToolCallID,
				})
			}
		}
	}

	return out, nil
}

// convertArguments goes through JSON because the SDK argument type is an
// ordered map that only unmarshals cleanly from its wire form.
func convertArguments(raw string) (api.ToolCallFunctionArguments, error) {
	var args api.ToolCallFunctionArguments
	if raw == "" {
		raw = "{}"
	}
	var obj map[string]any
	if err := jsonAPI.UnmarshalFromString(raw, &obj); err != nil {
		return args, err
	}
	err := jsonAPI.UnmarshalFromString(raw, &args)
	return args, err
}

type wireFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type wireTool struct {
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

func convertTools(tools []toolbox.Tool) ([]api.Tool, error) {
	if len(tools) == 0 {
		return nil, nil
	}

	wire := make([]wireTool, 0, len(tools))
	for _, t := range tools {
		wire = append(wire, wireTool{
			Type: "function",
			Function: wireFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema(),
			},
		})
	}

	raw, err := jsonAPI.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("ollama: marshal tools: %w", err)
	}

	var out []api.Tool
	if err := jsonAPI.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("ollama: convert tools: %w", err)
	}

	return out, nil
}

func parseMessage(msg api.Message) (modeladapter.Response, error) {
	if msg.Role != "" {
		if r, ok := role.Parse(msg.Role); !ok || r != role.Assistant {
			return modeladapter.Response{}, modeladapter.Malformed(providerName, "unexpected reply role %q", msg.Role)
		}
	}
	calls := make([]content.ToolCall, 0, len(msg.ToolCalls))
	for _, tc := range msg.ToolCalls {
		args, err := jsonAPI.MarshalToString(tc.Function.Arguments)
		if err != nil {
			return modeladapter.Response{}, modeladapter.Malformed(providerName, "tool call %q arguments: %v", tc.Function.Name, err)
		}
		calls = append(calls, content.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}
	return modeladapter.NewResponse(providerName, msg.Content, calls)
}
