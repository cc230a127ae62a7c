package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/germanamz/actloop/pkg/engine"
)

// demo is a scripted list of requests.
type demo struct {
	title  string
	routed bool // Route every task instead of using a single agent.
	tasks  []string
}

var singleAgentDemo = demo{
	title: "Single agent demo",
	tasks: []string{
		"List all files in the current directory",
		"Calculate (15 + 27) * 3 - 18 / 2",
	},
}

var routingDemo = demo{
	title:  "Multi-agent routing demo",
	routed: true,
	tasks: []string{
		"Find all Python files in the current directory",
		"Run the command echo 'Hello ReAct!'",
	},
}

// runDemo runs every task of d and returns the exit code of the first task
// that did not complete.
func (a *app) runDemo(ctx context.Context, d demo) int {
	agentName := ""
	if !d.routed {
		agentName = a.opts.agent
		if agentName == "" {
			def, _ := a.eng.Router().Table().Default()
			agentName = def.Name
		}
	}

	fmt.Fprintln(a.stdout, headerStyle.Render(banner(d.title)))

	code := exitCompleted
	for _, task := range d.tasks {
		if ctx.Err() != nil {
			return exitFailed
		}

		fmt.Fprintln(a.stdout, dimStyle.Render(strings.Repeat("-", 70)))
		fmt.Fprintln(a.stdout, userPrefixStyle.Render("Task > ")+task)

		out, err := a.handle(ctx, engine.Request{Text: task, Agent: agentName})
		if err != nil {
			writeRequestError(a.stdout, err)
			return exitUsage
		}

		if c := a.printOutcome(out); c != exitCompleted && code == exitCompleted {
			code = c
		}
	}

	return code
}

// printOutcome prints a decorated outcome for the demo and interactive modes
// and returns its exit code.
func (a *app) printOutcome(out engine.Outcome) int {
	fmt.Fprintln(a.stdout, routeStyle.Render(fmt.Sprintf("[%s via %s]", out.Decision.Agent.Name, out.Decision.Method)))

	if out.Result.OK() {
		fmt.Fprintln(a.stdout, answerPrefixStyle.Render("Answer >"))
		fmt.Fprintln(a.stdout, a.markdown.render(out.Result.Answer))
		return exitCompleted
	}

	return writeResult(a.stdout, out.Result)
}

func banner(title string) string {
	line := strings.Repeat("=", 70)
	return line + "\n" + title + "\n" + line
}
