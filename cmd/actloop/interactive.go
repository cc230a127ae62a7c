package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/germanamz/actloop/pkg/chats/role"
	"github.com/germanamz/actloop/pkg/engine"
)

// runInteractive runs a multi-turn conversation until the user quits.
func (a *app) runInteractive(ctx context.Context) int {
	sess, err := a.eng.NewSession(a.opts.agent)
	if err != nil {
		writeRequestError(a.stdout, err)
		return exitUsage
	}
	defer a.eng.RemoveSession(sess.ID())

	fmt.Fprintln(a.stdout, headerStyle.Render(banner("Interactive chat")))
	fmt.Fprintln(a.stdout, dimStyle.Render("Type 'quit' or 'exit' to leave, 'reset' to clear the conversation."))

	for ctx.Err() == nil {
		line, err := a.prompter.Input("You")
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			fmt.Fprintf(a.stderr, "error: %v\n", err)
			return exitFailed
		}

		line = strings.TrimSpace(line)
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit":
			ancli.Okf("bye!\n")
			return exitCompleted
		case "reset":
			asked := sess.Chat().Count(role.User)
			if err := sess.Reset(); err != nil {
				ancli.PrintWarn(fmt.Sprintf("reset: %v\n", err))
				continue
			}
			ancli.Okf("conversation reset, %d request(s) forgotten\n", asked)
			continue
		}

		fmt.Fprintln(a.stdout, userPrefixStyle.Render("You > ")+line)

		var (
			out     engine.Outcome
			sendErr error
		)
		a.busy(ctx, func() { out, sendErr = sess.Send(ctx, line) })

		if sendErr != nil {
			writeRequestError(a.stdout, sendErr)
			continue
		}
		a.printOutcome(out)
	}

	ancli.Okf("bye!\n")
	return exitCompleted
}

// runMenu lets the user pick a mode until they quit.
func (a *app) runMenu(ctx context.Context) int {
	options := []menuOption{
		{Label: singleAgentDemo.title, Value: modeDemo},
		{Label: routingDemo.title, Value: modeRouteDemo},
		{Label: "Interactive chat", Value: modeInteractive},
		{Label: "Quit", Value: "quit"},
	}

	for ctx.Err() == nil {
		choice, err := a.prompter.Select("Choose a mode", options)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			fmt.Fprintf(a.stderr, "error: %v\n", err)
			return exitFailed
		}

		switch choice {
		case modeDemo:
			a.runDemo(ctx, singleAgentDemo)
		case modeRouteDemo:
			a.runDemo(ctx, routingDemo)
		case modeInteractive:
			a.runInteractive(ctx)
		default:
			ancli.Okf("bye!\n")
			return exitCompleted
		}
	}

	return exitCompleted
}
