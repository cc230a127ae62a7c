package agent

import (
	"errors"

	"github.com/germanamz/actloop/pkg/chats/chat"
	"github.com/germanamz/actloop/pkg/modeladapter/usage"
)

var (
	// ErrBudgetExhausted is reported by Exhausted results.
	ErrBudgetExhausted = errors.New("agent: iteration budget exhausted")
	// ErrCancelled is reported by results of cancelled runs. The context error
	// is wrapped alongside it.
	ErrCancelled = errors.New("agent: cancelled")
	// ErrPanic is reported when a run panicked and was recovered.
	ErrPanic = errors.New("agent: panicked")
)

// NoAnswer is the answer reported when the model finishes with empty text.
const NoAnswer = "[no answer]"

// Result is the terminal value of one loop run.
type Result struct {
	Status     Status
	Answer     string // Set for Completed results.
	Err        error  // Set for Exhausted and Failed results.
	State      State  // Final loop state.
	Agent      string
	Iterations int        // Thinking cycles performed.
	Chat       *chat.Chat // The conversation, including partial state for Exhausted runs.
	Usage      usage.TokenCount
}

// OK reports whether the run completed with an answer.
func (r Result) OK() bool { return r.Status == Completed }

// Error returns the error of a non-completed result, or nil.
func (r Result) Error() error {
	if r.Status == Completed {
		return nil
	}
	if r.Err != nil {
		return r.Err
	}
	if r.Status == Exhausted {
		return ErrBudgetExhausted
	}
	return errors.New("agent: failed")
}
