// Package usage accounts for the tokens spent by model calls.
package usage

import (
	"fmt"
	"sync"
)

// TokenCount is the token spend of one or more model calls. Estimated is set
// when at least one of the counted calls had no provider-reported usage.
type TokenCount struct {
	InputTokens  int
	OutputTokens int
	Estimated    bool
}

// Total returns input plus output tokens.
func (tc TokenCount) Total() int {
	return tc.InputTokens + tc.OutputTokens
}

// Add returns the sum of tc and other.
func (tc TokenCount) Add(other TokenCount) TokenCount {
	return TokenCount{
		InputTokens:  tc.InputTokens + other.InputTokens,
		OutputTokens: tc.OutputTokens + other.OutputTokens,
		Estimated:    tc.Estimated || other.Estimated,
	}
}

func (tc TokenCount) String() string {
	s := fmt.Sprintf("%d in / %d out", tc.InputTokens, tc.OutputTokens)
	if tc.Estimated {
		s += " (estimated)"
	}
	return s
}

// Tracker keeps a running sum of model calls. It is safe for concurrent use
// since one completer may serve several agents at once.
type Tracker struct {
	mu        sync.Mutex
	calls     int
	estimated int
	last      TokenCount
	sum       TokenCount
}

// Add records the usage of one model call.
func (t *Tracker) Add(tc TokenCount) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.calls++
	if tc.Estimated {
		t.estimated++
	}
	t.last = tc
	t.sum = t.sum.Add(tc)
}

// Last returns the usage of the most recent call. ok is false before the
// first call.
func (t *Tracker) Last() (tc TokenCount, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.last, t.calls > 0
}

// Total returns the usage summed over every recorded call.
func (t *Tracker) Total() TokenCount {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.sum
}

// Calls returns how many calls were recorded and how many of them were
// estimated.
func (t *Tracker) Calls() (total, estimated int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.calls, t.estimated
}

// Reset forgets every recorded call.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.calls, t.estimated = 0, 0
	t.last, t.sum = TokenCount{}, TokenCount{}
}
