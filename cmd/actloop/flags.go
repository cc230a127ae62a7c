package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/baalimago/go_away_boilerplate/pkg/misc"
)

// Run modes.
const (
	modeOnce        = "once"
	modeDemo        = "demo"
	modeRouteDemo   = "route-demo"
	modeInteractive = "interactive"
	modeMenu        = "menu"
)

var modes = []string{modeOnce, modeDemo, modeRouteDemo, modeInteractive, modeMenu}

// options holds the parsed command line.
type options struct {
	configPath    string
	envFile       string
	agent         string
	maxIterations int
	mode          string
	verbose       bool
	logFile       string
	request       string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("actloop", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: actloop [flags] [request...]\n       actloop <command> [flags]\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nCommands:\n  init    Write the default configuration file\n  mcp     Serve the built-in tools over MCP stdio\n")
		fmt.Fprintf(stderr, "\nExit codes: 0 completed, 1 failed, 2 iteration budget exhausted, 3 usage or config error\n")
	}

	fs.StringVar(&opts.configPath, "config", "", "path to configuration file (default: actloop.yaml if present, else built-in defaults)")
	fs.StringVar(&opts.envFile, "env", ".env", "path to .env file (ignored if missing)")
	fs.StringVar(&opts.agent, "agent", "", "pre-selected agent; skips routing")
	fs.IntVar(&opts.maxIterations, "max-iterations", 0, "iteration budget override for every agent (0 = configured)")
	fs.StringVar(&opts.mode, "mode", "", "run mode: "+strings.Join(modes, "|")+" (default: once with a request, menu otherwise)")
	fs.BoolVar(&opts.verbose, "verbose", false, "print loop progress to stderr (also ACTLOOP_VERBOSE)")
	fs.StringVar(&opts.logFile, "log-file", "", "write JSON logs to this file")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	opts.request = strings.TrimSpace(strings.Join(fs.Args(), " "))
	opts.verbose = opts.verbose || misc.Truthy(os.Getenv("ACTLOOP_VERBOSE"))

	if opts.maxIterations < 0 {
		return opts, fmt.Errorf("-max-iterations must not be negative")
	}

	switch {
	case opts.mode == "" && opts.request != "":
		opts.mode = modeOnce
	case opts.mode == "":
		opts.mode = modeMenu
	}

	if !slices.Contains(modes, opts.mode) {
		return opts, fmt.Errorf("unknown mode %q (want %s)", opts.mode, strings.Join(modes, ", "))
	}

	if opts.mode == modeOnce && opts.request == "" {
		return opts, fmt.Errorf("mode once needs a request")
	}

	return opts, nil
}
