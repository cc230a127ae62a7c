package main

import (
	"errors"
	"io"
	"math/rand/v2"

	"github.com/charmbracelet/huh"
)

// thinkingMessages are displayed while an agent is working.
var thinkingMessages = []string{
	"Thinking...",
	"Reasoning step by step...",
	"Consulting the tools...",
	"Brewing a response...",
	"Connecting synapses...",
}

func randomThinkingMessage() string {
	return thinkingMessages[rand.IntN(len(thinkingMessages))] //nolint:gosec // cosmetic randomness
}

// menuOption is one choice of a select prompt.
type menuOption struct {
	Label string
	Value string
}

// prompter reads user input. Implementations return io.EOF when the user
// aborts.
type prompter interface {
	Input(title string) (string, error)
	Select(title string, options []menuOption) (string, error)
}

// huhPrompter prompts with huh forms on the terminal.
type huhPrompter struct{}

func (huhPrompter) Input(title string) (string, error) {
	var value string
	err := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title(title).Value(&value),
	)).Run()
	return value, mapAbort(err)
}

func (huhPrompter) Select(title string, options []menuOption) (string, error) {
	opts := make([]huh.Option[string], len(options))
	for i, o := range options {
		opts[i] = huh.NewOption(o.Label, o.Value)
	}

	var value string
	err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().Title(title).Options(opts...).Value(&value),
	)).Run()
	return value, mapAbort(err)
}

func mapAbort(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		return io.EOF
	}
	return err
}
