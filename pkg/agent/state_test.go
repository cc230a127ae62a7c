package agent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_String(t *testing.T) {
	assert.Equal(t, "thinking", Thinking.String())
	assert.Equal(t, "action_needed", ActionNeeded.String())
	assert.Equal(t, "budget_exhausted", BudgetExhausted.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestState_Terminal(t *testing.T) {
	assert.False(t, Thinking.Terminal())
	assert.False(t, ActionNeeded.Terminal())
	for _, s := range []State{Done, BudgetExhausted, ModelError, Cancelled} {
		assert.True(t, s.Terminal(), s.String())
	}
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, Completed, statusOf(Done))
	assert.Equal(t, Exhausted, statusOf(BudgetExhausted))
	assert.Equal(t, Failed, statusOf(ModelError))
	assert.Equal(t, Failed, statusOf(Cancelled))
}

func TestResult_Error(t *testing.T) {
	assert.NoError(t, Result{Status: Completed}.Error())
	assert.ErrorIs(t, Result{Status: Exhausted}.Error(), ErrBudgetExhausted)

	boom := errors.New("boom")
	assert.Same(t, boom, Result{Status: Failed, Err: boom}.Error())
	assert.Error(t, Result{Status: Failed}.Error())
}
