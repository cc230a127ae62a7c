package agent

// Config describes one agent: its identity, instructions and the subset of
// registry tools it may call. A Config is read-only once the agent is built.
type Config struct {
	Name          string   `yaml:"name"`
	Description   string   `yaml:"description"`
	Instructions  string   `yaml:"instructions"`
	Provider      string   `yaml:"provider"`
	Tools         []string `yaml:"tools"`          // Empty means every registered tool.
	MaxIterations int      `yaml:"max_iterations"` // Zero means the loop default.
}
