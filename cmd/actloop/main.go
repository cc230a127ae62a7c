package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// Process exit codes.
const (
	exitCompleted = 0
	exitFailed    = 1
	exitExhausted = 2
	exitUsage     = 3
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// run dispatches subcommands and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 {
		switch args[0] {
		case "init":
			return runInitCmd(args[1:], stdout, stderr)
		case "mcp":
			return runMCPCmd(ctx, args[1:], stderr)
		}
	}

	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitCompleted
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}

	app, err := newApp(ctx, opts, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	defer app.close()

	return app.runMode(ctx)
}
