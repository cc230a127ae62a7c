// Package exec provides the bash tool that lets agents run shell commands.
// Commands run through "sh -c" in a configurable working directory and are
// killed when their timeout expires or the run is cancelled.
package exec

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	osexec "os/exec"
	"strings"
	"time"

	"github.com/germanamz/actloop/pkg/tools/toolbox"
	jsoniter "github.com/json-iterator/go"
)

// DefaultTimeout bounds a single command.
const DefaultTimeout = 60 * time.Second

const noOutput = "(no output)"

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Config configures the bash tool.
type Config struct {
	Timeout time.Duration // Zero means DefaultTimeout.
	WorkDir string        // Empty means the process working directory.
	Shell   string        // Empty means "sh".
}

// Exec provides the bash tool.
type Exec struct {
	cfg Config
}

// New creates an Exec.
func New(cfg Config) *Exec {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Shell == "" {
		cfg.Shell = "sh"
	}

	return &Exec{cfg: cfg}
}

// Tools returns a ToolBox containing the bash tool.
func (e *Exec) Tools() *toolbox.ToolBox {
	tb := toolbox.New()
	tb.MustRegister(e.bashTool())

	return tb
}

type bashInput struct {
	Command string `json:"command"`
}

func (e *Exec) bashTool() toolbox.Tool {
	return toolbox.Tool{
		Name:        "bash",
		Description: "Run a shell command and return its output. Use it to run system commands, install dependencies or execute scripts.",
		Params: []toolbox.Param{
			{Name: "command", Type: toolbox.TypeString, Description: "The shell command to run", Required: true},
		},
		Handler: e.handleBash,
	}
}

func (e *Exec) handleBash(ctx context.Context, input json.RawMessage) (string, error) {
	var in bashInput
	if err := jsonAPI.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("bash: invalid input: %w", err)
	}

	if strings.TrimSpace(in.Command) == "" {
		return "", fmt.Errorf("bash: command is required")
	}

	runCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	cmd := osexec.CommandContext(runCtx, e.cfg.Shell, "-c", in.Command) //nolint:gosec // running model-chosen commands is the tool's job
	cmd.Dir = e.cfg.WorkDir
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("bash: %w", err)
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("bash: command timed out after %s", e.cfg.Timeout)
	}

	out := formatOutput(stdout.String(), stderr.String(), 0)

	var exitErr *osexec.ExitError
	switch {
	case runErr == nil:
		return out, nil
	case errors.As(runErr, &exitErr):
		code := exitErr.ExitCode()
		return "", toolbox.Exit(code, formatOutput(stdout.String(), stderr.String(), code))
	default:
		return "", fmt.Errorf("bash: %w", runErr)
	}
}

// formatOutput renders stdout followed by the stderr and exit code sections.
func formatOutput(stdout, stderr string, code int) string {
	var b strings.Builder
	b.WriteString(stdout)

	if stderr != "" {
		b.WriteString("\n[stderr]: ")
		b.WriteString(stderr)
	}
	if code != 0 {
		fmt.Fprintf(&b, "\n[exit code]: %d", code)
	}

	if strings.TrimSpace(b.String()) == "" {
		return noOutput
	}

	return b.String()
}
