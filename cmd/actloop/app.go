package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/germanamz/actloop/pkg/engine"
	"go.uber.org/zap"
)

// app holds the wired engine and terminal plumbing for one invocation.
type app struct {
	opts     options
	stdout   io.Writer
	stderr   io.Writer
	log      *zap.Logger
	closeLog func()
	eng      *engine.Engine
	prompter prompter
	markdown markdownRenderer
}

func newApp(ctx context.Context, opts options, stdout, stderr io.Writer) (*app, error) {
	if err := engine.LoadEnv(opts.envFile); err != nil {
		return nil, err
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	applyOverrides(&cfg, opts)

	log, closeLog, err := newLogger(opts.verbose, opts.logFile, stderr)
	if err != nil {
		return nil, err
	}

	eng, err := engine.New(ctx, cfg, log)
	if err != nil {
		closeLog()
		return nil, err
	}

	return &app{
		opts:     opts,
		stdout:   stdout,
		stderr:   stderr,
		log:      log,
		closeLog: closeLog,
		eng:      eng,
		prompter: huhPrompter{},
		markdown: newMarkdownRenderer(100),
	}, nil
}

func (a *app) close() {
	if err := a.eng.Close(); err != nil {
		a.log.Warn("close engine", zap.Error(err))
	}
	a.closeLog()
}

// loadConfig reads path, or actloop.yaml when path is empty. Without either
// the built-in defaults are used.
func loadConfig(path string) (engine.Config, error) {
	if path == "" {
		if _, err := os.Stat(engine.DefaultConfigFile); errors.Is(err, fs.ErrNotExist) {
			return engine.DefaultConfig(), nil
		}
		path = engine.DefaultConfigFile
	}

	return engine.LoadConfig(path)
}

// applyOverrides applies command line settings that take precedence over the
// configuration file.
func applyOverrides(cfg *engine.Config, opts options) {
	if opts.maxIterations <= 0 {
		return
	}

	cfg.Loop.MaxIterations = opts.maxIterations
	for i := range cfg.Agents {
		cfg.Agents[i].MaxIterations = opts.maxIterations
	}
}

// runMode runs the selected mode and returns the exit code.
func (a *app) runMode(ctx context.Context) int {
	if a.opts.verbose {
		stop := watchEvents(a.eng.Events(), a.stderr)
		defer stop()
	}

	switch a.opts.mode {
	case modeOnce:
		return a.runOnce(ctx, a.opts.request)
	case modeDemo:
		return a.runDemo(ctx, singleAgentDemo)
	case modeRouteDemo:
		return a.runDemo(ctx, routingDemo)
	case modeInteractive:
		return a.runInteractive(ctx)
	case modeMenu:
		return a.runMenu(ctx)
	}

	fmt.Fprintf(a.stderr, "error: unknown mode %q\n", a.opts.mode)
	return exitUsage
}

// handle runs one request while showing progress.
func (a *app) handle(ctx context.Context, req engine.Request) (engine.Outcome, error) {
	var (
		out engine.Outcome
		err error
	)
	a.busy(ctx, func() { out, err = a.eng.Handle(ctx, req) })

	return out, err
}

// busy runs fn under a spinner unless verbose progress is printed.
func (a *app) busy(ctx context.Context, fn func()) {
	if a.opts.verbose {
		fn()
		return
	}
	withSpinner(ctx, a.stderr, randomThinkingMessage(), fn)
}

// runOnce handles a single request. The answer, or the reason there is none,
// goes to stdout.
func (a *app) runOnce(ctx context.Context, text string) int {
	out, err := a.handle(ctx, engine.Request{Text: text, Agent: a.opts.agent})
	if err != nil {
		writeRequestError(a.stdout, err)
		return exitUsage
	}

	return writeResult(a.stdout, out.Result)
}
