// Package mcpclient connects to external MCP servers and imports their tools
// into a ToolBox. Calls on an imported tool are forwarded to the server that
// announced it.
package mcpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"strings"

	"github.com/germanamz/actloop/pkg/tools/toolbox"
	jsoniter "github.com/json-iterator/go"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Version is announced to servers during the handshake.
const Version = "0.1.0"

// ErrNoEndpoint is returned when an Endpoint has neither a command nor a URL.
var ErrNoEndpoint = errors.New("mcpclient: endpoint needs a command or a url")

// Endpoint locates one MCP server. Command starts a local server speaking
// over stdio; URL reaches a remote one. URLs whose path ends in /sse use the
// legacy SSE transport, anything else the streamable HTTP transport.
type Endpoint struct {
	Name    string
	Command string
	Args    []string
	URL     string
}

func (ep Endpoint) transport() (mcp.Transport, error) {
	switch {
	case ep.Command != "":
		return &mcp.CommandTransport{
			Command: exec.Command(ep.Command, ep.Args...), //nolint:gosec // command comes from the operator's config
		}, nil
	case ep.URL != "":
		u, err := url.Parse(ep.URL)
		if err != nil {
			return nil, fmt.Errorf("mcpclient: %s: %w", ep.Name, err)
		}
		if strings.HasSuffix(u.Path, "/sse") {
			return &mcp.SSEClientTransport{Endpoint: ep.URL}, nil
		}
		return &mcp.StreamableClientTransport{Endpoint: ep.URL}, nil
	}
	return nil, ErrNoEndpoint
}

// Server is a live session with one MCP server.
type Server struct {
	name    string
	session *mcp.ClientSession
	log     *zap.Logger
}

// Connect opens a session with the server at ep. A nil logger disables
// logging.
func Connect(ctx context.Context, ep Endpoint, log *zap.Logger) (*Server, error) {
	t, err := ep.transport()
	if err != nil {
		return nil, err
	}
	return connect(ctx, ep.Name, t, log)
}

func connect(ctx context.Context, name string, t mcp.Transport, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}

	client := mcp.NewClient(&mcp.Implementation{Name: "actloop", Version: Version}, nil)
	session, err := client.Connect(ctx, t, nil)
	if err != nil {
		return nil, fmt.Errorf("mcpclient: %s: connect: %w", name, err)
	}

	return &Server{name: name, session: session, log: log.With(zap.String("mcp_server", name))}, nil
}

// Name returns the configured server name.
func (s *Server) Name() string { return s.name }

// Tools lists every tool the server announces, following pagination. The
// returned tools forward their calls to s.
func (s *Server) Tools(ctx context.Context) ([]toolbox.Tool, error) {
	var tools []toolbox.Tool
	for remote, err := range s.session.Tools(ctx, nil) {
		if err != nil {
			return nil, fmt.Errorf("mcpclient: %s: list tools: %w", s.name, err)
		}
		t, err := s.importTool(remote)
		if err != nil {
			return nil, fmt.Errorf("mcpclient: %s: tool %q: %w", s.name, remote.Name, err)
		}
		tools = append(tools, t)
	}
	return tools, nil
}

// Import registers the server's tools in tb and returns their names in the
// order the server announced them. A name already present in tb fails with
// toolbox.ErrDuplicateTool and nothing is registered.
func (s *Server) Import(ctx context.Context, tb *toolbox.ToolBox) ([]string, error) {
	tools, err := s.Tools(ctx)
	if err != nil {
		return nil, err
	}
	if err := tb.Register(tools...); err != nil {
		return nil, fmt.Errorf("mcpclient: %s: %w", s.name, err)
	}

	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}
	s.log.Debug("mcp tools imported", zap.Strings("tools", names))

	return names, nil
}

// Call invokes a tool on the server. Results the server flags as failed come
// back as a *toolbox.ExecError so the loop reports them as execution errors.
func (s *Server) Call(ctx context.Context, tool string, input json.RawMessage) (string, error) {
	var args map[string]any
	if len(input) > 0 {
		if err := jsonAPI.Unmarshal(input, &args); err != nil {
			return "", fmt.Errorf("mcpclient: %s: arguments: %w", s.name, err)
		}
	}

	res, err := s.session.CallTool(ctx, &mcp.CallToolParams{Name: tool, Arguments: args})
	if err != nil {
		return "", fmt.Errorf("mcpclient: %s: call %s: %w", s.name, tool, err)
	}

	out := render(res)
	s.log.Debug("mcp tool call", zap.String("tool", tool), zap.Bool("error", res.IsError))
	if res.IsError {
		return "", &toolbox.ExecError{Message: out}
	}
	return out, nil
}

// Close ends the session. Command servers get their stdin closed and are
// signalled if they do not exit.
func (s *Server) Close() error {
	return s.session.Close()
}

func (s *Server) importTool(remote *mcp.Tool) (toolbox.Tool, error) {
	schema, err := jsonAPI.Marshal(remote.InputSchema)
	if err != nil {
		return toolbox.Tool{}, fmt.Errorf("input schema: %w", err)
	}

	name := remote.Name
	return toolbox.Tool{
		Name:        name,
		Description: remote.Description,
		RawSchema:   schema,
		Handler: func(ctx context.Context, input json.RawMessage) (string, error) {
			return s.Call(ctx, name, input)
		},
	}, nil
}

// render flattens a call result into the text the model sees. Non-text
// content is summarised by kind; structured content is used when the server
// sent nothing else.
func render(res *mcp.CallToolResult) string {
	var parts []string
	for _, c := range res.Content {
		switch c := c.(type) {
		case *mcp.TextContent:
			parts = append(parts, c.Text)
		case *mcp.ImageContent:
			parts = append(parts, fmt.Sprintf("[image %s]", c.MIMEType))
		case *mcp.AudioContent:
			parts = append(parts, fmt.Sprintf("[audio %s]", c.MIMEType))
		case *mcp.ResourceLink:
			parts = append(parts, fmt.Sprintf("[resource %s]", c.URI))
		case *mcp.EmbeddedResource:
			if c.Resource != nil {
				parts = append(parts, fmt.Sprintf("[resource %s]", c.Resource.URI))
			}
		default:
			parts = append(parts, "[unsupported content]")
		}
	}

	if len(parts) == 0 && res.StructuredContent != nil {
		if b, err := jsonAPI.Marshal(res.StructuredContent); err == nil {
			return string(b)
		}
	}

	return strings.Join(parts, "\n")
}
