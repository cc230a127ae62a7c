package router

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/germanamz/actloop/pkg/agent"
	"github.com/germanamz/actloop/pkg/chats/message"
	"github.com/germanamz/actloop/pkg/modeladapter"
)

// Classifier picks an agent name for a request. An empty name or an error
// means the classification is inconclusive.
type Classifier interface {
	Classify(ctx context.Context, text string, agents []agent.Config) (string, error)
}

// ClassifierFunc adapts a plain function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, text string, agents []agent.Config) (string, error)

// Classify calls f.
func (f ClassifierFunc) Classify(ctx context.Context, text string, agents []agent.Config) (string, error) {
	return f(ctx, text, agents)
}

// ModelClassifier classifies requests with a lightweight model call that must
// answer with a single agent name.
type ModelClassifier struct {
	Completer modeladapter.Completer
}

// Classify asks the model which agent fits text best. The answer is trimmed,
// lower-cased and stripped of surrounding punctuation.
func (m ModelClassifier) Classify(ctx context.Context, text string, agents []agent.Config) (string, error) {
	resp, err := m.Completer.Complete(ctx, modeladapter.Request{
		System: classifierPrompt(agents),
		Turns:  []message.Message{message.NewUser(text)},
	})
	if err != nil {
		return "", fmt.Errorf("router: classify: %w", err)
	}

	answer := strings.ToLower(strings.TrimSpace(resp.Text))
	if fields := strings.Fields(answer); len(fields) > 0 {
		answer = fields[0]
	}
	answer = strings.TrimFunc(answer, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_'
	})

	return answer, nil
}

func classifierPrompt(agents []agent.Config) string {
	var b strings.Builder

	b.WriteString("You are a task classification expert. Analyse the user's request and return the most suitable agent.\n\n")
	b.WriteString("Agents:\n")

	names := make([]string, 0, len(agents))
	for _, a := range agents {
		fmt.Fprintf(&b, "- %s: %s\n", a.Name, a.Description)
		names = append(names, a.Name)
	}

	fmt.Fprintf(&b, "\nReply with exactly one word: %s", strings.Join(names, "/"))

	return b.String()
}
