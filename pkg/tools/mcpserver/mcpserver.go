// Package mcpserver publishes a ToolBox to MCP clients. Every call runs
// through ToolBox.Call, so a remote caller sees the same argument checks,
// timeouts and error kinds as an agent does.
package mcpserver

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/germanamz/actloop/pkg/chats/content"
	"github.com/germanamz/actloop/pkg/modeladapter"
	"github.com/germanamz/actloop/pkg/tools/toolbox"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// Options configures a Server.
type Options struct {
	Name    string
	Version string
	// Tools limits the published tools to these names. Empty publishes all.
	Tools []string
	Log   *zap.Logger
}

// Server publishes tools over MCP.
type Server struct {
	srv   *mcp.Server
	tools *toolbox.ToolBox
	log   *zap.Logger
	calls atomic.Int64
}

// New builds a server for tb. Unknown names in opts.Tools are an error.
func New(tb *toolbox.ToolBox, opts Options) (*Server, error) {
	if len(opts.Tools) > 0 {
		sub, err := tb.Subset(opts.Tools...)
		if err != nil {
			return nil, fmt.Errorf("mcpserver: %w", err)
		}
		tb = sub
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}

	s := &Server{
		srv:   mcp.NewServer(&mcp.Implementation{Name: opts.Name, Version: opts.Version}, nil),
		tools: tb,
		log:   opts.Log,
	}
	for _, t := range tb.Tools() {
		s.srv.AddTool(&mcp.Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema(),
		}, s.handle(t.Name))
	}

	return s, nil
}

// Tools returns the published tool names.
func (s *Server) Tools() []string { return s.tools.Names() }

// Serve speaks MCP over in and out until ctx ends or in reaches EOF.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	return s.run(ctx, &mcp.IOTransport{
		Reader: io.NopCloser(in),
		Writer: writeCloser{out},
	})
}

// ServeStdio speaks MCP over the process's stdin and stdout.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.run(ctx, &mcp.StdioTransport{})
}

func (s *Server) run(ctx context.Context, t mcp.Transport) error {
	s.log.Info("mcp server ready", zap.Strings("tools", s.Tools()))
	return s.srv.Run(ctx, t)
}

func (s *Server) handle(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := "{}"
		if len(req.Params.Arguments) > 0 {
			args = string(req.Params.Arguments)
		}

		id := fmt.Sprintf("mcp-%d", s.calls.Add(1))
		start := time.Now()
		res := s.tools.Call(ctx, content.ToolCall{ID: id, Name: name, Arguments: args})

		fields := []zap.Field{
			zap.String("call_id", id),
			zap.String("tool", name),
			zap.Duration("took", time.Since(start)),
		}
		if res.IsError {
			s.log.Warn("mcp tool call failed", append(fields, zap.String("kind", string(res.Kind)))...)
		} else {
			s.log.Debug("mcp tool call", fields...)
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: modeladapter.ResultText(res)}},
			IsError: res.IsError,
		}, nil
	}
}

type writeCloser struct{ io.Writer }

func (writeCloser) Close() error { return nil }
