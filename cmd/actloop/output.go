package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/germanamz/actloop/pkg/agent"
	"github.com/germanamz/actloop/pkg/chats/chat"
	"github.com/germanamz/actloop/pkg/chats/message"
	"github.com/germanamz/actloop/pkg/modeladapter"
	"github.com/mattn/go-runewidth"
)

const (
	diagnosticTurns = 6
	diagnosticWidth = 100
)

// exitCodeFor maps a run status to the process exit code.
func exitCodeFor(s agent.Status) int {
	switch s {
	case agent.Completed:
		return exitCompleted
	case agent.Exhausted:
		return exitExhausted
	default:
		return exitFailed
	}
}

// writeResult prints a run's outcome: the answer verbatim for completed runs,
// otherwise a summary line followed by the last turns of the conversation.
// It returns the exit code for the run.
func writeResult(w io.Writer, res agent.Result) int {
	if res.Status == agent.Completed {
		fmt.Fprintln(w, res.Answer)
		return exitCompleted
	}

	fmt.Fprintln(w, summaryLine(res))
	for _, line := range diagnostics(res.Chat, diagnosticTurns, diagnosticWidth) {
		fmt.Fprintln(w, "  "+line)
	}

	return exitCodeFor(res.Status)
}

func summaryLine(res agent.Result) string {
	return fmt.Sprintf("%s: agent %s stopped in state %s after %d iteration(s): %s",
		res.Status, res.Agent, res.State, res.Iterations, reason(res.Error()))
}

// writeRequestError reports a request the engine refused to run. Like run
// outcomes it goes to stdout.
func writeRequestError(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %s\n", reason(err))
}

// reason renders err for a person: the leading "pkg: provider: " labels of
// the wrapped chain are dropped, the rest is kept.
func reason(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for {
		head, rest, ok := strings.Cut(msg, ": ")
		if !ok || rest == "" || !isLabel(head) {
			return msg
		}
		msg = rest
	}
}

func isLabel(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-', r == '.':
		default:
			return false
		}
	}
	return true
}

// diagnostics renders the last n turns of c, one line each, truncated to
// width terminal cells.
func diagnostics(c *chat.Chat, n, width int) []string {
	if c == nil {
		return nil
	}

	turns := c.Tail(n)
	lines := make([]string, 0, len(turns))
	for _, m := range turns {
		lines = append(lines, runewidth.Truncate(turnLine(m), width, "..."))
	}

	return lines
}

// turnLine summarises one turn on a single line.
func turnLine(m message.Message) string {
	var parts []string

	if text := strings.TrimSpace(m.TextContent()); text != "" {
		parts = append(parts, text)
	}
	for _, tc := range m.ToolCalls() {
		parts = append(parts, fmt.Sprintf("call %s(%s)", tc.Name, tc.Arguments))
	}
	if tr, ok := m.ToolResult(); ok {
		parts = append(parts, fmt.Sprintf("%s -> %s", tr.ToolName, modeladapter.ResultText(tr)))
	}
	if len(parts) == 0 {
		parts = append(parts, "(empty)")
	}

	line := m.Role.Tag() + " " + strings.Join(parts, "; ")
	return strings.Join(strings.Fields(line), " ")
}

// markdownRenderer renders answers for the terminal. It falls back to plain
// text when the renderer cannot be built.
type markdownRenderer struct {
	r *glamour.TermRenderer
}

func newMarkdownRenderer(width int) markdownRenderer {
	if width <= 0 {
		width = 100
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return markdownRenderer{}
	}
	return markdownRenderer{r: r}
}

func (m markdownRenderer) render(text string) string {
	if m.r == nil {
		return text
	}
	out, err := m.r.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}
