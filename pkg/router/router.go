// Package router selects the agent configuration that owns a request before
// the loop starts. Requests are matched against an ordered rule table, then
// optionally classified by a model; anything left undecided falls back to
// the default agent, so a route always yields an agent.
package router

import (
	"context"
	"fmt"

	"github.com/germanamz/actloop/pkg/agent"
	"go.uber.org/zap"
)

// Method records how a decision was made.
type Method string

const (
	MethodSelected   Method = "selected"
	MethodRule       Method = "rule"
	MethodClassifier Method = "classifier"
	MethodFallback   Method = "fallback"
)

// Decision is the outcome of routing one request.
type Decision struct {
	Agent  agent.Config
	Method Method
	Reason string
}

// Options configures a Router.
type Options struct {
	Classifier Classifier  // Optional; consulted when no rule matches.
	Log        *zap.Logger // Nil means no logging.
}

// Router routes requests to agent configurations. It is safe for concurrent
// use.
type Router struct {
	table      *Table
	classifier Classifier
	log        *zap.Logger
}

// New creates a Router over table. The table must have a default agent.
func New(table *Table, opts Options) (*Router, error) {
	if _, ok := table.Default(); !ok {
		return nil, ErrNoDefault
	}

	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	return &Router{table: table, classifier: opts.Classifier, log: log}, nil
}

// Table returns the router's table.
func (r *Router) Table() *Table { return r.table }

// Route picks the agent for text. It never fails: rule matches win, then a
// conclusive classification, then the default agent.
func (r *Router) Route(ctx context.Context, text string) Decision {
	if name, i, ok := r.table.match(text); ok {
		if cfg, found := r.table.Get(name); found {
			return r.decided(Decision{Agent: cfg, Method: MethodRule, Reason: fmt.Sprintf("rule %d", i)})
		}
	}

	if r.classifier != nil {
		name, err := r.classifier.Classify(ctx, text, r.table.List())
		switch {
		case err != nil:
			r.log.Warn("classification failed", zap.Error(err))
		default:
			if cfg, ok := r.table.Get(name); ok {
				return r.decided(Decision{Agent: cfg, Method: MethodClassifier, Reason: "classified as " + name})
			}
			r.log.Debug("classification inconclusive", zap.String("answer", name))
		}
	}

	cfg, _ := r.table.Default()
	return r.decided(Decision{Agent: cfg, Method: MethodFallback, Reason: "no match"})
}

// Select returns the pre-selected agent name as a decision.
func (r *Router) Select(name string) (Decision, error) {
	cfg, ok := r.table.Get(name)
	if !ok {
		return Decision{}, fmt.Errorf("%w: %s", ErrUnknownAgent, name)
	}
	return r.decided(Decision{Agent: cfg, Method: MethodSelected}), nil
}

func (r *Router) decided(d Decision) Decision {
	r.log.Debug("routed request",
		zap.String("agent", d.Agent.Name),
		zap.String("method", string(d.Method)),
		zap.String("reason", d.Reason),
	)
	return d
}
