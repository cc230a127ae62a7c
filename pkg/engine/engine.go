package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/germanamz/actloop/pkg/agent"
	"github.com/germanamz/actloop/pkg/chats/chat"
	"github.com/germanamz/actloop/pkg/codingtoolbox/defaults"
	"github.com/germanamz/actloop/pkg/codingtoolbox/exec"
	"github.com/germanamz/actloop/pkg/codingtoolbox/filesystem"
	"github.com/germanamz/actloop/pkg/codingtoolbox/search"
	"github.com/germanamz/actloop/pkg/codingtoolbox/web"
	"github.com/germanamz/actloop/pkg/modeladapter"
	"github.com/germanamz/actloop/pkg/router"
	"github.com/germanamz/actloop/pkg/tools/mcpclient"
	"github.com/germanamz/actloop/pkg/tools/toolbox"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrEmptyRequest is returned for blank request text.
var ErrEmptyRequest = errors.New("engine: empty request")

// Request is one user request. Agent pre-selects an agent and skips routing.
type Request struct {
	Text  string
	Agent string
}

// Outcome is the result of handling a request.
type Outcome struct {
	Decision router.Decision
	Result   agent.Result
}

// Engine is the composition root that assembles all framework components from
// configuration and exposes them through a frontend-agnostic API.
type Engine struct {
	cfg        Config
	log        *zap.Logger
	events     *EventBus
	registry   *toolbox.ToolBox
	completers map[string]modeladapter.Completer
	agents     map[string]*agent.Agent
	router     *router.Router
	mcpClients []*mcpclient.Server

	mu       sync.Mutex
	sessions map[string]*Session
}

// New creates an Engine from the given configuration. It validates the config,
// creates provider adapters, builds the tool registry, connects MCP clients
// and builds the agents and the router. A nil log disables logging.
func New(ctx context.Context, cfg Config, log *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	e := &Engine{
		cfg:        cfg,
		log:        log,
		events:     NewEventBus(),
		completers: make(map[string]modeladapter.Completer, len(cfg.Providers)),
		agents:     make(map[string]*agent.Agent, len(cfg.Agents)),
		sessions:   make(map[string]*Session),
	}

	for _, pc := range cfg.Providers {
		c, err := buildCompleter(ctx, pc, log)
		if err != nil {
			return nil, err
		}
		e.completers[pc.Name] = c
		log.Debug("provider ready", zap.String("provider", pc.Name), zap.String("kind", pc.Kind), zap.String("model", pc.Model))
	}

	if err := e.buildRegistry(); err != nil {
		return nil, err
	}

	mcpTools, err := e.connectMCP(ctx)
	if err != nil {
		_ = e.Close()
		return nil, err
	}

	for _, ac := range cfg.Agents {
		if err := e.buildAgent(ac, mcpTools); err != nil {
			_ = e.Close()
			return nil, err
		}
	}

	if err := e.buildRouter(); err != nil {
		_ = e.Close()
		return nil, err
	}

	return e, nil
}

// Events returns the engine's event bus.
func (e *Engine) Events() *EventBus { return e.events }

// Tools returns the tool registry shared by every agent.
func (e *Engine) Tools() *toolbox.ToolBox { return e.registry }

// Router returns the engine's router.
func (e *Engine) Router() *router.Router { return e.router }

// Agents returns the agent configurations in table order.
func (e *Engine) Agents() []agent.Config { return e.router.Table().List() }

// Agent returns the agent with the given name.
func (e *Engine) Agent(name string) (*agent.Agent, bool) {
	a, ok := e.agents[name]
	return a, ok
}

// Handle routes a request to an agent and runs it in a fresh conversation.
// Loop failures are reported through Outcome.Result; the error is only set
// for a blank request or an unknown pre-selected agent.
func (e *Engine) Handle(ctx context.Context, req Request) (Outcome, error) {
	d, err := e.decide(ctx, "", req)
	if err != nil {
		return Outcome{}, err
	}

	res := e.run(ctx, "", d.Agent.Name, chat.New(), req.Text)
	return Outcome{Decision: d, Result: res}, nil
}

// NewSession creates an interactive session. A non-empty agentName pins the
// session to that agent; otherwise the first message is routed.
func (e *Engine) NewSession(agentName string) (*Session, error) {
	if agentName != "" {
		if _, ok := e.agents[agentName]; !ok {
			return nil, fmt.Errorf("engine: %w: %q", router.ErrUnknownAgent, agentName)
		}
	}

	s := newSession(uuid.NewString(), e, agentName)

	e.mu.Lock()
	e.sessions[s.id] = s
	e.mu.Unlock()

	return s, nil
}

// Session returns the session with the given ID.
func (e *Engine) Session(id string) (*Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[id]
	return s, ok
}

// RemoveSession forgets the session with the given ID.
func (e *Engine) RemoveSession(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.sessions, id)
}

// Close shuts down MCP clients. It is safe to call more than once.
func (e *Engine) Close() error {
	e.mu.Lock()
	clients := e.mcpClients
	e.mcpClients = nil
	e.mu.Unlock()

	var errs []error
	for _, c := range clients {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// decide selects the agent for a request and publishes the decision.
func (e *Engine) decide(ctx context.Context, sessionID string, req Request) (router.Decision, error) {
	if isBlank(req.Text) {
		return router.Decision{}, ErrEmptyRequest
	}

	var d router.Decision
	if req.Agent != "" {
		var err error
		if d, err = e.router.Select(req.Agent); err != nil {
			return router.Decision{}, fmt.Errorf("engine: %w", err)
		}
	} else {
		d = e.router.Route(ctx, req.Text)
	}

	e.events.Publish(Event{
		Kind:      EventRouted,
		SessionID: sessionID,
		Agent:     d.Agent.Name,
		Data:      d,
	})

	return d, nil
}

// run executes one loop run of the named agent over c.
func (e *Engine) run(ctx context.Context, sessionID, agentName string, c *chat.Chat, text string) agent.Result {
	a := e.agents[agentName]
	ctx = withRunInfo(ctx, runInfo{sessionID: sessionID, agent: agentName})

	e.events.Publish(Event{Kind: EventAgentStart, SessionID: sessionID, Agent: agentName, Data: text})

	res := a.Continue(ctx, c, text)

	if res.Status == agent.Failed && res.Err != nil {
		e.events.Publish(Event{
			Kind:      EventError,
			SessionID: sessionID,
			Agent:     agentName,
			Iteration: res.Iterations,
			Data:      res.Err,
		})
	}
	e.events.Publish(Event{
		Kind:      EventAgentEnd,
		SessionID: sessionID,
		Agent:     agentName,
		Iteration: res.Iterations,
		Data:      res,
	})

	return res
}

// notify forwards loop events to the bus.
func (e *Engine) notify(ctx context.Context, ev agent.Event) {
	info, _ := runInfoFromContext(ctx)

	out := Event{SessionID: info.sessionID, Agent: ev.Agent, Iteration: ev.Iteration}
	switch ev.Kind {
	case agent.EventStateChanged:
		out.Kind, out.Data = EventStateChanged, ev
	case agent.EventToolCallStarted:
		out.Kind, out.Data = EventToolCallStart, ev.Call
	case agent.EventToolCallFinished:
		out.Kind, out.Data = EventToolCallEnd, ev.Result
	default:
		return
	}

	e.events.Publish(out)
}

// fileChanged publishes write_file notices.
func (e *Engine) fileChanged(ctx context.Context, msg string) {
	info, _ := runInfoFromContext(ctx)
	e.events.Publish(Event{Kind: EventFileChange, SessionID: info.sessionID, Agent: info.agent, Data: msg})
}

func (e *Engine) buildRegistry() error {
	// Durations were checked by Validate.
	execTimeout, _ := parseDuration(e.cfg.Tools.Exec.Timeout)
	webTimeout, _ := parseDuration(e.cfg.Tools.Web.Timeout)

	reg, err := defaults.Builtins(defaults.Config{
		Registry: toolbox.Options{MaxResultLen: e.cfg.Loop.MaxResultLen},
		Exec:     exec.Config{Timeout: execTimeout, WorkDir: e.cfg.Tools.Exec.WorkDir},
		Filesystem: filesystem.Config{
			Root:   e.cfg.Tools.Filesystem.Root,
			Notify: e.fileChanged,
		},
		Search: search.Config{Root: e.cfg.Tools.Filesystem.Root},
		Web:    web.Config{Timeout: webTimeout, MaxBytes: e.cfg.Tools.Web.MaxBytes},
	})
	if err != nil {
		return fmt.Errorf("engine: tools: %w", err)
	}

	e.registry = reg
	return nil
}

// connectMCP imports the tools of every configured MCP server into the
// registry and returns the tool names per server.
func (e *Engine) connectMCP(ctx context.Context) (map[string][]string, error) {
	byServer := make(map[string][]string, len(e.cfg.MCPServers))

	for _, mc := range e.cfg.MCPServers {
		client, err := mcpclient.Connect(ctx, mcpclient.Endpoint{
			Name:    mc.Name,
			Command: mc.Command,
			Args:    mc.Args,
			URL:     mc.URL,
		}, e.log)
		if err != nil {
			return nil, fmt.Errorf("engine: mcp %q: %w", mc.Name, err)
		}

		e.mu.Lock()
		e.mcpClients = append(e.mcpClients, client)
		e.mu.Unlock()

		names, err := client.Import(ctx, e.registry)
		if err != nil {
			return nil, fmt.Errorf("engine: mcp %q: %w", mc.Name, err)
		}
		byServer[mc.Name] = names

		e.log.Info("mcp server connected", zap.String("server", mc.Name), zap.Strings("tools", names))
	}

	return byServer, nil
}

func (e *Engine) buildAgent(ac agent.Config, mcpTools map[string][]string) error {
	providerName := ac.Provider
	if providerName == "" {
		providerName = e.cfg.Providers[0].Name
	}
	completer := e.completers[providerName]

	// MCP server names stand for every tool the server exposes.
	if len(ac.Tools) > 0 {
		tools := make([]string, 0, len(ac.Tools))
		for _, name := range ac.Tools {
			if imported, ok := mcpTools[name]; ok {
				tools = append(tools, imported...)
				continue
			}
			tools = append(tools, name)
		}
		if len(tools) == 0 {
			return fmt.Errorf("engine: agent %q: mcp servers expose no tools", ac.Name)
		}
		ac.Tools = tools
	}

	opts := e.agentOptions(ac.Name)

	a, err := agent.New(ac, completer, e.registry, opts)
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	e.agents[ac.Name] = a
	return nil
}

func (e *Engine) agentOptions(name string) agent.Options {
	modelTimeout, _ := parseDuration(e.cfg.Loop.ModelTimeout)
	toolTimeout, _ := parseDuration(e.cfg.Loop.ToolTimeout)

	opts := agent.Options{
		MaxIterations: e.cfg.Loop.MaxIterations,
		ModelTimeout:  modelTimeout,
		ToolTimeout:   toolTimeout,
		Middleware: []agent.Middleware{
			agent.Recovery(),
			agent.Logger(e.log, name),
		},
		Notify: e.notify,
	}
	if e.cfg.Loop.MaxTurns > 0 {
		opts.Trim = chat.KeepLast(e.cfg.Loop.MaxTurns)
	}

	return opts
}

func (e *Engine) buildRouter() error {
	table := router.NewTable()
	if err := table.Add(e.cfg.Agents...); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	for _, r := range e.cfg.Router.Rules {
		if err := table.AddRule(r); err != nil {
			return fmt.Errorf("engine: %w", err)
		}
	}
	if err := table.SetDefault(e.cfg.defaultAgent()); err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	opts := router.Options{Log: e.log.Named("router")}
	if cc := e.cfg.Router.Classifier; cc.Enabled {
		provider := cc.Provider
		if provider == "" {
			provider = e.cfg.Providers[0].Name
		}
		opts.Classifier = router.ModelClassifier{Completer: e.completers[provider]}
	}

	r, err := router.New(table, opts)
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	e.router = r
	return nil
}

type runInfoKey struct{}

type runInfo struct {
	sessionID string
	agent     string
}

func withRunInfo(ctx context.Context, info runInfo) context.Context {
	return context.WithValue(ctx, runInfoKey{}, info)
}

func runInfoFromContext(ctx context.Context) (runInfo, bool) {
	info, ok := ctx.Value(runInfoKey{}).(runInfo)
	return info, ok
}
