package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/germanamz/actloop/pkg/agent"
	"github.com/germanamz/actloop/pkg/chats/content"
	"github.com/germanamz/actloop/pkg/engine"
	"github.com/germanamz/actloop/pkg/modeladapter"
	"github.com/germanamz/actloop/pkg/router"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

const progressWidth = 120

// progressKinds are the events formatEvent knows how to render.
var progressKinds = []engine.EventKind{
	engine.EventRouted,
	engine.EventStateChanged,
	engine.EventToolCallStart,
	engine.EventToolCallEnd,
	engine.EventFileChange,
	engine.EventAgentEnd,
	engine.EventError,
}

// watchEvents prints engine events to w until the returned func is called.
// The func unsubscribes, waits for pending output and notes lost events.
func watchEvents(bus *engine.EventBus, w io.Writer) func() {
	sub := bus.Subscribe(256, progressKinds...)

	var wg sync.WaitGroup
	wg.Go(func() {
		for ev := range sub.C {
			if line, ok := formatEvent(ev); ok {
				fmt.Fprintln(w, line)
			}
		}
	})

	return func() {
		bus.Unsubscribe(sub)
		wg.Wait()
		if n := sub.Dropped(); n > 0 {
			fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("(%d progress events dropped)", n)))
		}
	}
}

// formatEvent renders an engine event as a progress line. Events without a
// useful rendering report false.
func formatEvent(ev engine.Event) (string, bool) {
	switch ev.Kind {
	case engine.EventRouted:
		d, ok := ev.Data.(router.Decision)
		if !ok {
			return "", false
		}
		line := fmt.Sprintf("[router] %s (%s)", d.Agent.Name, d.Method)
		if d.Reason != "" {
			line += ": " + d.Reason
		}
		return routeStyle.Render(clip(line)), true

	case engine.EventStateChanged:
		e, ok := ev.Data.(agent.Event)
		if !ok {
			return "", false
		}
		line := fmt.Sprintf("%s > iteration %d: %s", ev.Agent, e.Iteration, e.State)
		if text := strings.TrimSpace(e.Text); text != "" && e.State == agent.ActionNeeded {
			line += "\n" + treePipe + clip(text)
		}
		return thinkingStyle.Render(line), true

	case engine.EventToolCallStart:
		tc, ok := ev.Data.(content.ToolCall)
		if !ok {
			return "", false
		}
		return treeCorner + toolNameStyle.Render(tc.Name) + dimStyle.Render(clip(" "+tc.Arguments)), true

	case engine.EventToolCallEnd:
		tr, ok := ev.Data.(content.ToolResult)
		if !ok {
			return "", false
		}
		if tr.IsError {
			return "  " + toolErrorStyle.Render(clip(modeladapter.ResultText(tr))), true
		}
		return "  " + toolResultStyle.Render(clip(tr.Content)), true

	case engine.EventFileChange:
		msg, ok := ev.Data.(string)
		if !ok {
			return "", false
		}
		return dimStyle.Render(msg), true

	case engine.EventAgentEnd:
		res, ok := ev.Data.(agent.Result)
		if !ok || res.Iterations == 0 {
			return "", false
		}
		return dimStyle.Render(fmt.Sprintf("%s > %s after %d iteration(s), tokens %s", ev.Agent, res.Status, res.Iterations, res.Usage)), true

	case engine.EventError:
		err, ok := ev.Data.(error)
		if !ok {
			return "", false
		}
		return errorBlockStyle.Render(err.Error()), true
	}

	return "", false
}

// clip flattens s to one line and truncates it to the progress width.
func clip(s string) string {
	return runewidth.Truncate(strings.Join(strings.Fields(s), " "), progressWidth, "...")
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit in int
}

// --- spinner ---

type workDoneMsg struct{}

type spinnerModel struct {
	spinner spinner.Model
	label   string
	done    bool
}

func newSpinnerModel(label string) spinnerModel {
	s := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(spinnerStyle))
	return spinnerModel{spinner: s, label: label}
}

func (m spinnerModel) Init() tea.Cmd { return m.spinner.Tick }

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case workDoneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + spinnerStyle.Render(m.label)
}

// withSpinner runs fn while animating a spinner on w. Without a terminal fn
// simply runs.
func withSpinner(ctx context.Context, w io.Writer, label string, fn func()) {
	if !isTerminal(w) {
		fn()
		return
	}

	p := tea.NewProgram(newSpinnerModel(label),
		tea.WithOutput(w),
		tea.WithInput(nil),
		tea.WithContext(ctx),
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
		p.Send(workDoneMsg{})
	}()

	_, _ = p.Run()
	<-done
}
