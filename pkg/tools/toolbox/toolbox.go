package toolbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/germanamz/actloop/pkg/chats/content"
)

// DefaultMaxResultLen is the default rune limit for a tool result before it
// is truncated.
const DefaultMaxResultLen = 20000

const truncatedMarker = "\n... (truncated)"

// Options configures a ToolBox.
type Options struct {
	// MaxResultLen caps the runes of a result fed back to the model.
	// Zero means DefaultMaxResultLen; a negative value disables truncation.
	MaxResultLen int
}

// ToolBox is the tool registry. Tools are kept in registration order, which
// is the order they are advertised to models. A ToolBox is safe for concurrent
// use; tools are expected to be registered at startup.
type ToolBox struct {
	mu    sync.RWMutex
	order []string
	tools map[string]Tool
	opts  Options
}

// New creates a new ToolBox ready for use.
func New() *ToolBox {
	return NewWithOptions(Options{})
}

// NewWithOptions creates a ToolBox with the given options.
func NewWithOptions(opts Options) *ToolBox {
	if opts.MaxResultLen == 0 {
		opts.MaxResultLen = DefaultMaxResultLen
	}
	return &ToolBox{
		tools: make(map[string]Tool),
		opts:  opts,
	}
}

// Register adds one or more tools. It fails with ErrDuplicateTool if a name is
// already registered, in which case none of the given tools are added.
func (tb *ToolBox) Register(tools ...Tool) error {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	seen := make(map[string]struct{}, len(tools))
	for _, t := range tools {
		if t.Name == "" || t.Handler == nil {
			return fmt.Errorf("%w: %q needs a name and a handler", ErrInvalidTool, t.Name)
		}
		if _, ok := tb.tools[t.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateTool, t.Name)
		}
		if _, ok := seen[t.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateTool, t.Name)
		}
		seen[t.Name] = struct{}{}
	}

	for _, t := range tools {
		tb.tools[t.Name] = t
		tb.order = append(tb.order, t.Name)
	}

	return nil
}

// MustRegister is like Register but panics on error. Intended for static
// wiring in main packages and tests.
func (tb *ToolBox) MustRegister(tools ...Tool) {
	if err := tb.Register(tools...); err != nil {
		panic(err)
	}
}

// Get returns a tool by name and a boolean indicating whether it was found.
func (tb *ToolBox) Get(name string) (Tool, bool) {
	tb.mu.RLock()
	defer tb.mu.RUnlock()

	t, ok := tb.tools[name]
	return t, ok
}

// Merge registers all tools from another ToolBox into this one, in the other
// ToolBox's order. Name collisions fail with ErrDuplicateTool.
func (tb *ToolBox) Merge(other *ToolBox) error {
	return tb.Register(other.Tools()...)
}

// Tools returns all registered tools in registration order. Two calls without
// an intervening Register return identical sequences.
func (tb *ToolBox) Tools() []Tool {
	tb.mu.RLock()
	defer tb.mu.RUnlock()

	result := make([]Tool, 0, len(tb.order))
	for _, name := range tb.order {
		result = append(result, tb.tools[name])
	}
	return result
}

// Names returns the registered tool names in registration order.
func (tb *ToolBox) Names() []string {
	tb.mu.RLock()
	defer tb.mu.RUnlock()

	out := make([]string, len(tb.order))
	copy(out, tb.order)
	return out
}

// Len returns the number of registered tools.
func (tb *ToolBox) Len() int {
	tb.mu.RLock()
	defer tb.mu.RUnlock()

	return len(tb.order)
}

// Subset returns a new ToolBox holding only the named tools, keeping this
// ToolBox's registration order. An empty name list selects every tool.
// Unknown names fail with ErrUnknownTool.
func (tb *ToolBox) Subset(names ...string) (*ToolBox, error) {
	sub := NewWithOptions(tb.opts)
	if len(names) == 0 {
		if err := sub.Register(tb.Tools()...); err != nil {
			return nil, err
		}
		return sub, nil
	}

	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := tb.Get(n); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTool, n)
		}
		want[n] = struct{}{}
	}

	for _, t := range tb.Tools() {
		if _, ok := want[t.Name]; !ok {
			continue
		}
		if err := sub.Register(t); err != nil {
			return nil, err
		}
	}

	return sub, nil
}

// Call executes a tool call and returns its ToolResult. Call never panics and
// never returns an error: unknown tools, invalid arguments, handler failures
// and cancellation all produce a result with IsError set and Kind describing
// the failure. A failed handler's own message becomes Content. The result
// always echoes the call's ID and tool name.
func (tb *ToolBox) Call(ctx context.Context, tc content.ToolCall) content.ToolResult {
	res := content.ToolResult{ToolCallID: tc.ID, ToolName: tc.Name}

	if err := ctx.Err(); err != nil {
		return failed(res, content.ErrorCancelled, err)
	}

	t, ok := tb.Get(tc.Name)
	if !ok {
		return failed(res, content.ErrorUnknownTool, fmt.Errorf("%w: %s", ErrUnknownTool, tc.Name))
	}

	input := json.RawMessage(tc.Arguments)
	if len(input) == 0 {
		input = json.RawMessage(`{}`)
	}

	if err := t.validate(input); err != nil {
		return failed(res, content.ErrorInvalidArguments, err)
	}

	out, err := safeInvoke(ctx, t.Handler, input)
	if err != nil {
		if ctx.Err() != nil && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return failed(res, content.ErrorCancelled, fmt.Errorf("%w: %w", ctx.Err(), err))
		}
		res = failed(res, content.ErrorExecution, err)
		var ee *ExecError
		if errors.As(err, &ee) {
			// The exit code travels in its own field.
			res.Content = ee.Message
			if ee.Code != nil {
				code := *ee.Code
				res.ExitCode = &code
			}
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			res.Content = "timed out: " + res.Content
		}
		res.Content = tb.truncate(res.Content)
		return res
	}

	res.Content = tb.truncate(out)
	return res
}

func failed(res content.ToolResult, kind content.ErrorKind, err error) content.ToolResult {
	res.IsError = true
	res.Kind = kind
	res.Content = err.Error()
	return res
}

func safeInvoke(ctx context.Context, h Handler, input json.RawMessage) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ExecError{Message: fmt.Sprintf("panic: %v", r)}
		}
	}()

	return h(ctx, input)
}

func (tb *ToolBox) truncate(s string) string {
	limit := tb.opts.MaxResultLen
	if limit < 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}

	runes := []rune(s)
	return string(runes[:limit]) + truncatedMarker
}
