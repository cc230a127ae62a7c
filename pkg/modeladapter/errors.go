package modeladapter

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrModelCall matches every *ModelCallError through errors.Is.
var ErrModelCall = errors.New("modeladapter: model call failed")

// Failure reasons reported by ModelCallError.
const (
	ReasonNetwork   = "network"
	ReasonTimeout   = "timeout"
	ReasonMalformed = "malformed response"
	ReasonAPI       = "api error"
)

// ModelCallError reports a failed model call.
type ModelCallError struct {
	Provider string
	Reason   string
	Err      error
}

func (e *ModelCallError) Error() string {
	msg := "modeladapter: " + e.Reason
	if e.Provider != "" {
		msg = fmt.Sprintf("modeladapter: %s: %s", e.Provider, e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ModelCallError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrModelCall) hold for every ModelCallError.
func (e *ModelCallError) Is(target error) bool { return target == ErrModelCall }

// Malformed creates a ModelCallError for provider output that could not be
// turned into a valid Response.
func Malformed(provider string, format string, args ...any) *ModelCallError {
	return &ModelCallError{Provider: provider, Reason: ReasonMalformed, Err: fmt.Errorf(format, args...)}
}

// Wrap classifies err as a ModelCallError. Errors that already are
// ModelCallErrors and context cancellation are returned unchanged so callers
// can still tell a cancelled run from a failed call.
func Wrap(provider string, err error) error {
	if err == nil {
		return nil
	}

	var mce *ModelCallError
	if errors.As(err, &mce) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	reason := ReasonAPI
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		reason = ReasonTimeout
	case errors.As(err, &netErr):
		reason = ReasonNetwork
		if netErr.Timeout() {
			reason = ReasonTimeout
		}
	}

	return &ModelCallError{Provider: provider, Reason: reason, Err: err}
}
