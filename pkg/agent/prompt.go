package agent

import (
	"fmt"
	"strings"

	"github.com/germanamz/actloop/pkg/tools/toolbox"
)

const reactGuide = `## Working mode

You work in a ReAct (reasoning + acting) loop:
1. Think: analyse the request and decide the next step.
2. Act: when needed, call a suitable tool to gather information or make a change.
3. Observe: read the tool result.
4. Repeat until the task is complete.

## Rules

1. Use tools whenever an action is required. Never simulate or assume a tool result.
2. Think step by step and give every action a clear purpose.
3. When a tool call fails, analyse why and try another approach.
4. When the task is complete, reply without tool calls and give a clear summary.`

// buildSystemPrompt constructs the system prompt from identity, instructions,
// the ReAct guide and the tools the agent may call.
func buildSystemPrompt(cfg Config, tools []toolbox.Tool) string {
	var b strings.Builder

	// Identity.
	fmt.Fprintf(&b, "You are %s.", cfg.Name)
	if cfg.Description != "" {
		fmt.Fprintf(&b, " %s", cfg.Description)
	}
	b.WriteString("\n")

	if cfg.Instructions != "" {
		b.WriteString("\n## Instructions\n\n")
		b.WriteString(strings.TrimSpace(cfg.Instructions))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(reactGuide)
	b.WriteString("\n")

	if len(tools) > 0 {
		b.WriteString("\n## Available tools\n\n")
		for _, t := range tools {
			fmt.Fprintf(&b, "- **%s**: %s\n", t.Name, t.Description)
		}
	}

	return b.String()
}
