package engine

import (
	"os"

	"github.com/germanamz/actloop/pkg/agent"
	"github.com/germanamz/actloop/pkg/providers/openai"
)

// DefaultModel is used when OPENAI_MODEL is unset.
const DefaultModel = "gpt-4o-mini"

// DefaultConfig returns a configuration with one OpenAI-compatible provider
// read from OPENAI_API_KEY, OPENAI_BASE_URL and OPENAI_MODEL, and the four
// built-in agents. Routing uses the model classifier and falls back to the
// general agent.
func DefaultConfig() Config {
	return Config{
		Providers: []ProviderConfig{{
			Name:        "default",
			Kind:        "openai",
			BaseURL:     envOr("OPENAI_BASE_URL", openai.DefaultBaseURL),
			APIKey:      os.Getenv("OPENAI_API_KEY"),
			Model:       envOr("OPENAI_MODEL", DefaultModel),
			Temperature: 0.7,
		}},
		Agents: DefaultAgents(),
		Router: RouterConfig{
			DefaultAgent: "general",
			Classifier:   ClassifierConfig{Enabled: true},
		},
		Loop: LoopConfig{
			MaxIterations: agent.DefaultMaxIterations,
			ModelTimeout:  "2m",
			ToolTimeout:   "2m",
		},
	}
}

// DefaultAgents returns the built-in specialised agents.
func DefaultAgents() []agent.Config {
	return []agent.Config{
		{
			Name:        "explore",
			Description: "Explores code: finds files, reads them and explains project structure.",
			Instructions: "You are a code exploration expert. You are good at searching files and understanding code structure.\n" +
				"Mainly use list_dir, read_file and search_files.\n" +
				"Style: state findings directly and give clear file paths.",
			Tools: []string{"list_dir", "read_file", "search_files"},
		},
		{
			Name:        "code",
			Description: "Writes code: creates and modifies source files.",
			Instructions: "You are a code writing expert. You are good at creating and modifying code.\n" +
				"Mainly use read_file and write_file.\n" +
				"Style: understand the requirement first, then write high quality code.",
			Tools: []string{"read_file", "write_file", "list_dir"},
		},
		{
			Name:        "bash",
			Description: "Runs shell commands and reports their output.",
			Instructions: "You are a command line expert. You are good at running system commands.\n" +
				"Mainly use the bash tool.\n" +
				"Style: be careful and check that a command is safe before running it.",
			Tools: []string{"bash"},
		},
		{
			Name:        "general",
			Description: "General assistant that can use every tool.",
			Instructions: "You are a general assistant. You can use every tool to complete all kinds of tasks.\n" +
				"Pick whichever tools fit the task.",
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
