// Package gemini provides a Completer for the Google Gemini API built on the
// genai SDK.
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/germanamz/actloop/pkg/chats/content"
	"github.com/germanamz/actloop/pkg/chats/message"
	"github.com/germanamz/actloop/pkg/chats/role"
	"github.com/germanamz/actloop/pkg/modeladapter"
	"github.com/germanamz/actloop/pkg/modeladapter/usage"
	"github.com/germanamz/actloop/pkg/tools/toolbox"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const providerName = "gemini"

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

var _ modeladapter.Completer = (*Adapter)(nil)

// Config configures an Adapter.
type Config struct {
	BaseURL     string // Empty uses the SDK default endpoint.
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	HTTPClient  *http.Client
	Log         *zap.Logger
}

// Adapter implements modeladapter.Completer for the Gemini API.
type Adapter struct {
	modeladapter.ModelAdapter

	client *genai.Client
}

// New creates an Adapter.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	a := &Adapter{client: client}
	a.Provider = providerName
	a.Name = cfg.Model
	a.Temperature = cfg.Temperature
	a.MaxTokens = cfg.MaxTokens
	a.Log = cfg.Log

	return a, nil
}

// Complete sends a generateContent request.
func (a *Adapter) Complete(ctx context.Context, req modeladapter.Request) (modeladapter.Response, error) {
	contents, err := convertTurns(req.Turns)
	if err != nil {
		return modeladapter.Response{}, err
	}

	temp := float32(a.Temperature)
	gcfg := &genai.GenerateContentConfig{
		Temperature: &temp,
		Tools:       convertTools(req.Tools),
	}
	if req.System != "" {
		gcfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	if a.MaxTokens > 0 {
		gcfg.MaxOutputTokens = int32(a.MaxTokens)
	}

	a.Logger().Debug("gemini generate request",
		zap.String("model", a.Name),
		zap.Int("contents", len(contents)),
		zap.Int("tools", len(req.Tools)),
	)

	resp, err := a.client.Models.GenerateContent(ctx, a.Name, contents, gcfg)
	if err != nil {
		return modeladapter.Response{}, modeladapter.Wrap(providerName, err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return modeladapter.Response{}, modeladapter.Malformed(providerName, "empty candidates in response")
	}

	out, err := parseContent(resp.Candidates[0].Content)
	if err != nil {
		return modeladapter.Response{}, err
	}

	var tc usage.TokenCount
	if md := resp.UsageMetadata; md != nil {
		tc.InputTokens = int(md.PromptTokenCount)
		tc.OutputTokens = int(md.CandidatesTokenCount)
	}
	out.Usage = a.Record(req, out, tc)

	return out, nil
}

func convertTurns(turns []message.Message) ([]*genai.Content, error) {
	out := make([]*genai.Content, 0, len(turns))

	for _, m := range turns {
		switch m.Role {
		case role.System, role.User:
			// System turns inside the conversation are passed as user text;
			// the system prompt proper travels in SystemInstruction.
			out = append(out, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: m.TextContent()}}})
		case role.Assistant:
			c := &genai.Content{Role: "model"}
			if text := m.TextContent(); text != "" {
				c.Parts = append(c.Parts, &genai.Part{Text: text})
			}
			for _, tc := range m.ToolCalls() {
				var args map[string]any
				if err := jsonAPI.UnmarshalFromString(tc.Arguments, &args); err != nil {
					return nil, modeladapter.Malformed(providerName, "tool call %q history: %v", tc.Name, err)
				}
				c.Parts = append(c.Parts, &genai.Part{FunctionCall: &genai.FunctionCall{ID: tc.ID, Name: tc.Name, Args: args}})
			}
			if len(c.Parts) > 0 {
				out = append(out, c)
			}
		case role.Tool:
			c := &genai.Content{Role: "user"}
			for _, p := range m.Parts {
				tr, ok := p.(content.ToolResult)
				if !ok {
					continue
				}
				resp := map[string]any{"output": tr.Content}
				if tr.IsError {
					resp = map[string]any{"error": modeladapter.ResultText(tr)}
				}
				c.Parts = append(c.Parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
					ID:       tr.ToolCallID,
					Name:     tr.ToolName,
					Response: resp,
				}})
			}
			if len(c.Parts) > 0 {
				out = append(out, c)
			}
		}
	}

	return out, nil
}

func convertTools(tools []toolbox.Tool) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}

	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		var raw map[string]any
		_ = jsonAPI.Unmarshal(t.InputSchema(), &raw)
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  convertSchema(raw),
		})
	}

	return []*genai.Tool{{FunctionDeclarations: decls}}
}

// convertSchema maps a JSON Schema document onto the SDK's schema subset.
// Keywords the SDK has no field for are dropped.
func convertSchema(raw map[string]any) *genai.Schema {
	if raw == nil {
		return nil
	}

	s := &genai.Schema{}
	if t, ok := raw["type"].(string); ok {
		s.Type = genai.Type(strings.ToUpper(t))
	}
	if d, ok := raw["description"].(string); ok {
		s.Description = d
	}
	if enum, ok := raw["enum"].([]any); ok {
		for _, v := range enum {
			s.Enum = append(s.Enum, fmt.Sprint(v))
		}
	}
	if req, ok := raw["required"].([]any); ok {
		for _, v := range req {
			if name, ok := v.(string); ok {
				s.Required = append(s.Required, name)
			}
		}
	}
	if props, ok := raw["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, p := range props {
			if pm, ok := p.(map[string]any); ok {
				s.Properties[name] = convertSchema(pm)
			}
		}
	}
	if items, ok := raw["items"].(map[string]any); ok {
		s.Items = convertSchema(items)
	}

	return s
}

func parseContent(c *genai.Content) (modeladapter.Response, error) {
	var (
		text  strings.Builder
		calls []content.ToolCall
	)

	for _, p := range c.Parts {
		if p == nil {
			continue
		}
		if p.FunctionCall != nil {
			args, err := jsonAPI.MarshalToString(p.FunctionCall.Args)
			if err != nil {
				return modeladapter.Response{}, modeladapter.Malformed(providerName, "function call %q arguments: %v", p.FunctionCall.Name, err)
			}
			if p.FunctionCall.Args == nil {
				args = "{}"
			}
			calls = append(calls, content.ToolCall{ID: p.FunctionCall.ID, Name: p.FunctionCall.Name, Arguments: args})
			continue
		}
		if p.Thought {
			continue
		}
		text.WriteString(p.Text)
	}

	return modeladapter.NewResponse(providerName, text.String(), calls)
}
