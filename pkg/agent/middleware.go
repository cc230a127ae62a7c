package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/germanamz/actloop/pkg/chats/chat"
	"go.uber.org/zap"
)

// Runner executes a loop run over a conversation whose last turn is the
// user's request.
type Runner interface {
	Run(ctx context.Context, c *chat.Chat) Result
}

// RunnerFunc adapts a plain function to the Runner interface.
type RunnerFunc func(ctx context.Context, c *chat.Chat) Result

// Run calls the underlying function.
func (f RunnerFunc) Run(ctx context.Context, c *chat.Chat) Result {
	return f(ctx, c)
}

// Middleware wraps a Runner, returning a new Runner with added behaviour.
type Middleware func(next Runner) Runner

// --- Timeout middleware ---

// Timeout returns a Middleware that bounds the whole run with a deadline. An
// expired deadline ends the run as cancelled.
func Timeout(d time.Duration) Middleware {
	return func(next Runner) Runner {
		return RunnerFunc(func(ctx context.Context, c *chat.Chat) Result {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()

			return next.Run(ctx, c)
		})
	}
}

// --- Recovery middleware ---

// Recovery returns a Middleware that converts panics into Failed results.
func Recovery() Middleware {
	return func(next Runner) Runner {
		return RunnerFunc(func(ctx context.Context, c *chat.Chat) (res Result) {
			defer func() {
				if r := recover(); r != nil {
					res = Result{
						Status: Failed,
						Err:    fmt.Errorf("%w: %v", ErrPanic, r),
						State:  ModelError,
						Chat:   c,
					}
				}
			}()

			return next.Run(ctx, c)
		})
	}
}

// --- Logger middleware ---

// Logger returns a Middleware that logs run start, outcome and duration.
func Logger(log *zap.Logger, name string) Middleware {
	return func(next Runner) Runner {
		return RunnerFunc(func(ctx context.Context, c *chat.Chat) Result {
			log.Info("agent started", zap.String("agent", name))

			start := time.Now()

			res := next.Run(ctx, c)

			fields := []zap.Field{
				zap.String("agent", name),
				zap.Stringer("status", res.Status),
				zap.Stringer("state", res.State),
				zap.Int("iterations", res.Iterations),
				zap.Duration("duration", time.Since(start)),
			}

			switch res.Status {
			case Completed:
				log.Info("agent finished", fields...)
			case Exhausted:
				log.Warn("agent exhausted its budget", fields...)
			default:
				log.Error("agent failed", append(fields, zap.Error(res.Err))...)
			}

			return res
		})
	}
}
