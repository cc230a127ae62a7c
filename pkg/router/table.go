package router

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/germanamz/actloop/pkg/agent"
)

var (
	// ErrDuplicateAgent is returned when an agent name is registered twice.
	ErrDuplicateAgent = errors.New("router: duplicate agent")
	// ErrUnknownAgent is returned when a name does not match any agent.
	ErrUnknownAgent = errors.New("router: unknown agent")
	// ErrNoDefault is returned when a router is built without a default agent.
	ErrNoDefault = errors.New("router: no default agent")
	// ErrInvalidRule is returned for rules without a pattern or keywords, or
	// with a pattern that does not compile.
	ErrInvalidRule = errors.New("router: invalid rule")
)

// Rule routes requests matching Pattern (a case-insensitive regular
// expression) or containing any of Keywords (case-insensitive) to Agent.
type Rule struct {
	Pattern  string   `yaml:"pattern"`
	Keywords []string `yaml:"keywords"`
	Agent    string   `yaml:"agent"`
}

type compiledRule struct {
	Rule
	re       *regexp.Regexp
	keywords []string
}

func (r compiledRule) match(text string) bool {
	if r.re != nil && r.re.MatchString(text) {
		return true
	}
	lower := strings.ToLower(text)
	for _, k := range r.keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// Table is the ordered set of agent configurations and routing rules. It is
// built once at startup and only read afterwards.
type Table struct {
	mu     sync.RWMutex
	order  []string
	agents map[string]agent.Config
	rules  []compiledRule
	def    string
}

// NewTable creates an empty Table.
func NewTable() *Table {
	return &Table{agents: make(map[string]agent.Config)}
}

// Add registers agent configurations in order.
func (t *Table) Add(cfgs ...agent.Config) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, cfg := range cfgs {
		if cfg.Name == "" {
			return fmt.Errorf("%w: empty name", ErrUnknownAgent)
		}
		if _, ok := t.agents[cfg.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateAgent, cfg.Name)
		}
		t.agents[cfg.Name] = cfg
		t.order = append(t.order, cfg.Name)
	}
	return nil
}

// AddRule compiles and appends a routing rule. Rules are evaluated in the
// order they were added.
func (t *Table) AddRule(r Rule) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.agents[r.Agent]; !ok {
		return fmt.Errorf("%w: rule target %q", ErrUnknownAgent, r.Agent)
	}

	cr := compiledRule{Rule: r}
	if r.Pattern != "" {
		re, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			return fmt.Errorf("%w: %q: %w", ErrInvalidRule, r.Pattern, err)
		}
		cr.re = re
	}
	for _, k := range r.Keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			cr.keywords = append(cr.keywords, k)
		}
	}
	if cr.re == nil && len(cr.keywords) == 0 {
		return fmt.Errorf("%w: rule for %q has no pattern or keywords", ErrInvalidRule, r.Agent)
	}

	t.rules = append(t.rules, cr)
	return nil
}

// SetDefault sets the agent used when nothing else matches.
func (t *Table) SetDefault(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.agents[name]; !ok {
		return fmt.Errorf("%w: default %q", ErrUnknownAgent, name)
	}
	t.def = name
	return nil
}

// Default returns the default agent configuration.
func (t *Table) Default() (agent.Config, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	cfg, ok := t.agents[t.def]
	return cfg, ok
}

// Get returns the named agent configuration.
func (t *Table) Get(name string) (agent.Config, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	cfg, ok := t.agents[name]
	return cfg, ok
}

// List returns all agent configurations in registration order.
func (t *Table) List() []agent.Config {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]agent.Config, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.agents[name])
	}
	return out
}

// match returns the target of the first rule matching text and its index.
func (t *Table) match(text string) (string, int, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for i, r := range t.rules {
		if r.match(text) {
			return r.Agent, i, true
		}
	}
	return "", -1, false
}
