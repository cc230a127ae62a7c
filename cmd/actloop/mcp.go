package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/germanamz/actloop/pkg/engine"
	"github.com/germanamz/actloop/pkg/tools/mcpserver"
)

const version = "0.1.0"

// runMCPCmd serves the tool registry over MCP on stdin/stdout. Logs never go
// to stdout, which carries the protocol.
func runMCPCmd(ctx context.Context, args []string, stderr io.Writer) int {
	flags := flag.NewFlagSet("mcp", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: actloop mcp [flags]\n\nServe the tool registry over MCP stdio.\n\nFlags:\n")
		flags.PrintDefaults()
	}
	configPath := flags.String("config", "", "path to configuration file")
	envFile := flags.String("env", ".env", "path to .env file (ignored if missing)")
	verbose := flags.Bool("verbose", false, "log to stderr")
	logFile := flags.String("log-file", "", "write JSON logs to this file")
	tools := flags.String("tools", "", "comma-separated tools to publish (default all)")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitCompleted
		}
		return exitUsage
	}

	if err := engine.LoadEnv(*envFile); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}

	log, closeLog, err := newLogger(*verbose, *logFile, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	defer closeLog()

	eng, err := engine.New(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	defer func() { _ = eng.Close() }()

	srv, err := mcpserver.New(eng.Tools(), mcpserver.Options{
		Name:    "actloop",
		Version: version,
		Tools:   splitList(*tools),
		Log:     log,
	})
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}

	if err := srv.ServeStdio(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailed
	}

	return exitCompleted
}

// splitList splits a comma-separated flag value, dropping empty items.
func splitList(s string) []string {
	var out []string
	for item := range strings.SplitSeq(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
