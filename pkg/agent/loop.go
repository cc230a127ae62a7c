package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/germanamz/actloop/pkg/chats/chat"
	"github.com/germanamz/actloop/pkg/chats/content"
	"github.com/germanamz/actloop/pkg/chats/message"
	"github.com/germanamz/actloop/pkg/modeladapter"
	"github.com/germanamz/actloop/pkg/modeladapter/usage"
)

// loop is the state of a single run. It serves exactly one request.
type loop struct {
	agent      *Agent
	chat       *chat.Chat
	budget     int
	state      State
	iterations int
	usage      usage.TokenCount
}

func (l *loop) run(ctx context.Context) Result {
	l.enter(ctx, Thinking, "")

	for {
		if l.iterations >= l.budget {
			return l.finish(ctx, BudgetExhausted, "", fmt.Errorf("%w after %d iterations", ErrBudgetExhausted, l.iterations))
		}
		if err := ctx.Err(); err != nil {
			return l.cancelled(ctx, err)
		}

		l.iterations++
		if l.iterations > 1 {
			l.enter(ctx, Thinking, "")
		}

		resp, err := l.think(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return l.cancelled(ctx, ctx.Err())
			}
			return l.finish(ctx, ModelError, "", err)
		}

		l.chat.Append(resp.Message(l.agent.cfg.Name))

		if resp.Kind == modeladapter.FinalAnswer {
			answer := resp.Text
			if answer == "" {
				answer = NoAnswer
			}
			return l.finish(ctx, Done, answer, nil)
		}

		l.enter(ctx, ActionNeeded, resp.Text)
		if err := l.act(ctx, resp.Calls); err != nil {
			return l.cancelled(ctx, err)
		}
	}
}

// think performs one model call over the trimmed conversation snapshot.
func (l *loop) think(ctx context.Context) (modeladapter.Response, error) {
	a := l.agent

	if a.options.ModelTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.options.ModelTimeout)
		defer cancel()
	}

	req := modeladapter.Request{
		System: a.system,
		Turns:  l.chat.Window(a.options.Trim),
		Tools:  a.tools.Tools(),
	}

	resp, err := a.completer.Complete(ctx, req)
	if err != nil {
		err = modeladapter.Wrap("", err)
		if !errors.Is(err, modeladapter.ErrModelCall) {
			err = &modeladapter.ModelCallError{Reason: modeladapter.ReasonAPI, Err: err}
		}
		return modeladapter.Response{}, err
	}

	if err := resp.Validate(""); err != nil {
		return modeladapter.Response{}, err
	}

	l.usage = l.usage.Add(resp.Usage)

	return resp, nil
}

// act executes the calls strictly in order, appending each result before the
// next call starts. On cancellation the remaining calls are answered with
// cancelled results so every call keeps a matching result turn.
func (l *loop) act(ctx context.Context, calls []content.ToolCall) error {
	a := l.agent

	for i, tc := range calls {
		if err := ctx.Err(); err != nil {
			l.skip(calls[i:], err)
			return err
		}

		l.notify(ctx, Event{Kind: EventToolCallStarted, Call: tc})

		result := l.callTool(ctx, tc)
		l.chat.Append(message.NewToolResult(a.cfg.Name, result))

		l.notify(ctx, Event{Kind: EventToolCallFinished, Call: tc, Result: result})
	}

	return ctx.Err()
}

func (l *loop) callTool(ctx context.Context, tc content.ToolCall) content.ToolResult {
	if d := l.agent.options.ToolTimeout; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	return l.agent.tools.Call(ctx, tc)
}

func (l *loop) skip(calls []content.ToolCall, cause error) {
	for _, tc := range calls {
		l.chat.Append(message.NewToolResult(l.agent.cfg.Name, content.ToolResult{
			ToolCallID: tc.ID,
			ToolName:   tc.Name,
			Content:    fmt.Sprintf("not executed: %v", cause),
			IsError:    true,
			Kind:       content.ErrorCancelled,
		}))
	}
}

func (l *loop) cancelled(ctx context.Context, cause error) Result {
	return l.finish(ctx, Cancelled, "", fmt.Errorf("%w: %w", ErrCancelled, cause))
}

func (l *loop) finish(ctx context.Context, s State, answer string, err error) Result {
	l.enter(ctx, s, answer)

	return Result{
		Status:     statusOf(s),
		Answer:     answer,
		Err:        err,
		State:      s,
		Iterations: l.iterations,
		Chat:       l.chat,
		Usage:      l.usage,
	}
}

// enter moves the loop to state s. Leaving a terminal state is a programming
// error.
func (l *loop) enter(ctx context.Context, s State, text string) {
	if l.state.Terminal() {
		panic(fmt.Sprintf("agent: transition from terminal state %s to %s", l.state, s))
	}
	l.state = s
	l.notify(ctx, Event{Kind: EventStateChanged, State: s, Text: text})
}

func (l *loop) notify(ctx context.Context, e Event) {
	if l.agent.options.Notify == nil {
		return
	}
	e.Agent = l.agent.cfg.Name
	e.Iteration = l.iterations
	if e.Kind != EventStateChanged {
		e.State = l.state
	}
	l.agent.options.Notify(ctx, e)
}
