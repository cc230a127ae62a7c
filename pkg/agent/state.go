package agent

// State is a state of the ReAct loop.
type State int

const (
	// Thinking means the loop is waiting on the model.
	Thinking State = iota
	// ActionNeeded means the model requested tools and they are being executed.
	ActionNeeded
	// Done means the model produced a final answer.
	Done
	// BudgetExhausted means the iteration budget ran out with actions still pending.
	BudgetExhausted
	// ModelError means the model call failed.
	ModelError
	// Cancelled means the caller cancelled the run.
	Cancelled
)

var stateNames = [...]string{
	Thinking:        "thinking",
	ActionNeeded:    "action_needed",
	Done:            "done",
	BudgetExhausted: "budget_exhausted",
	ModelError:      "model_error",
	Cancelled:       "cancelled",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no transition may leave s.
func (s State) Terminal() bool {
	switch s {
	case Done, BudgetExhausted, ModelError, Cancelled:
		return true
	}
	return false
}

// Status is the outcome of a loop run.
type Status int

const (
	// Completed means the model produced a final answer.
	Completed Status = iota
	// Exhausted means the iteration budget ran out. It is an expected outcome,
	// not a failure; callers may resume with a fresh budget.
	Exhausted
	// Failed means the model call failed or the run was cancelled.
	Failed
)

func (s Status) String() string {
	switch s {
	case Completed:
		return "completed"
	case Exhausted:
		return "exhausted"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// statusOf maps a terminal state to the run status.
func statusOf(s State) Status {
	switch s {
	case Done:
		return Completed
	case BudgetExhausted:
		return Exhausted
	}
	return Failed
}
