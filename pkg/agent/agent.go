// Package agent runs the bounded ReAct loop (reason + act): it asks a model
// for the next step, executes requested tools sequentially through a
// registry, folds their results back into the conversation and stops on a
// final answer, an exhausted budget, a model failure or cancellation.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/germanamz/actloop/pkg/chats/chat"
	"github.com/germanamz/actloop/pkg/chats/message"
	"github.com/germanamz/actloop/pkg/modeladapter"
	"github.com/germanamz/actloop/pkg/tools/toolbox"
)

// DefaultMaxIterations is the iteration budget used when neither the Config
// nor the Options set one.
const DefaultMaxIterations = 10

// Options configures the loop behaviour of an Agent.
type Options struct {
	MaxIterations int               // Thinking cycle budget (0 = DefaultMaxIterations).
	ModelTimeout  time.Duration     // Per model call; 0 = no extra deadline.
	ToolTimeout   time.Duration     // Per tool call; 0 = no extra deadline.
	Trim          chat.TrimStrategy // Applied to the snapshot sent to the model.
	Middleware    []Middleware      // Applied around every run.
	Notify        Notifier          // Receives loop events.
}

// Agent binds a Config to a model and the tools it may call. An Agent holds no
// per-request state: every Run gets its own conversation and loop, so one
// Agent may serve concurrent requests.
type Agent struct {
	cfg       Config
	completer modeladapter.Completer
	tools     *toolbox.ToolBox
	options   Options
	system    string
}

// New creates an Agent. The agent only sees the registry tools named in
// cfg.Tools (all of them when the list is empty); naming an unregistered
// tool is an error.
func New(cfg Config, completer modeladapter.Completer, registry *toolbox.ToolBox, opts Options) (*Agent, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("agent: config needs a name")
	}
	if completer == nil {
		return nil, fmt.Errorf("agent: %s: no completer", cfg.Name)
	}
	if registry == nil {
		registry = toolbox.New()
	}

	tools, err := registry.Subset(cfg.Tools...)
	if err != nil {
		return nil, fmt.Errorf("agent: %s: %w", cfg.Name, err)
	}

	return &Agent{
		cfg:       cfg,
		completer: completer,
		tools:     tools,
		options:   opts,
		system:    buildSystemPrompt(cfg, tools.Tools()),
	}, nil
}

// Name returns the agent's name.
func (a *Agent) Name() string { return a.cfg.Name }

// Config returns the agent's configuration.
func (a *Agent) Config() Config { return a.cfg }

// SystemPrompt returns the system prompt sent with every model call.
func (a *Agent) SystemPrompt() string { return a.system }

// Tools returns the tools advertised to the model, in registration order.
func (a *Agent) Tools() []toolbox.Tool { return a.tools.Tools() }

// MaxIterations returns the effective iteration budget.
func (a *Agent) MaxIterations() int {
	switch {
	case a.cfg.MaxIterations > 0:
		return a.cfg.MaxIterations
	case a.options.MaxIterations > 0:
		return a.options.MaxIterations
	}
	return DefaultMaxIterations
}

// Run handles one user request in a fresh conversation.
func (a *Agent) Run(ctx context.Context, request string) Result {
	return a.Continue(ctx, chat.New(), request)
}

// Continue appends the request to an existing conversation and runs the loop
// over it. The caller must not use c concurrently.
func (a *Agent) Continue(ctx context.Context, c *chat.Chat, request string) Result {
	c.Append(message.NewUser(request))

	var runner Runner = RunnerFunc(func(ctx context.Context, c *chat.Chat) Result {
		l := &loop{agent: a, chat: c, budget: a.MaxIterations()}
		return l.run(ctx)
	})

	// Apply middleware in reverse order so the first middleware is outermost.
	for i := len(a.options.Middleware) - 1; i >= 0; i-- {
		runner = a.options.Middleware[i](runner)
	}

	res := runner.Run(ctx, c)
	res.Agent = a.cfg.Name
	return res
}
