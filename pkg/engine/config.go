package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"time"

	"github.com/germanamz/actloop/pkg/agent"
	"github.com/germanamz/actloop/pkg/codingtoolbox/defaults"
	"github.com/germanamz/actloop/pkg/router"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the config path used when none is given.
const DefaultConfigFile = "actloop.yaml"

// Config is the top-level engine configuration.
type Config struct {
	Providers  []ProviderConfig `yaml:"providers"`
	Agents     []agent.Config   `yaml:"agents"`
	Router     RouterConfig     `yaml:"router"`
	Loop       LoopConfig       `yaml:"loop"`
	Tools      ToolsConfig      `yaml:"tools"`
	MCPServers []MCPConfig      `yaml:"mcp_servers"`
}

// ProviderConfig describes an LLM provider instance.
type ProviderConfig struct {
	Name        string  `yaml:"name"`
	Kind        string  `yaml:"kind"` // openai, ollama or gemini.
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"` //nolint:gosec // configuration field, not a hardcoded secret
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// RouterConfig configures request routing.
type RouterConfig struct {
	DefaultAgent string           `yaml:"default_agent"` // Empty means the first agent.
	Rules        []router.Rule    `yaml:"rules"`
	Classifier   ClassifierConfig `yaml:"classifier"`
}

// ClassifierConfig enables model-based routing.
type ClassifierConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Provider string `yaml:"provider"` // Empty means the first provider.
}

// LoopConfig holds agent loop settings shared by every agent. Durations use
// Go duration syntax ("30s", "2m").
type LoopConfig struct {
	MaxIterations int    `yaml:"max_iterations"`
	ModelTimeout  string `yaml:"model_timeout"`
	ToolTimeout   string `yaml:"tool_timeout"`
	MaxTurns      int    `yaml:"max_turns"`      // Turns sent to the model; 0 sends all.
	MaxResultLen  int    `yaml:"max_result_len"` // Tool result rune cap; 0 is the registry default.
}

// ToolsConfig configures the built-in tools.
type ToolsConfig struct {
	Exec       ExecConfig       `yaml:"exec"`
	Filesystem FilesystemConfig `yaml:"filesystem"`
	Web        WebConfig        `yaml:"web"`
}

// ExecConfig configures the bash tool.
type ExecConfig struct {
	Timeout string `yaml:"timeout"`
	WorkDir string `yaml:"work_dir"`
}

// FilesystemConfig configures the file and search tools.
type FilesystemConfig struct {
	Root string `yaml:"root"`
}

// WebConfig configures fetch_url.
type WebConfig struct {
	Timeout  string `yaml:"timeout"`
	MaxBytes int64  `yaml:"max_bytes"`
}

// MCPConfig describes an MCP server whose tools are imported into the
// registry. Exactly one of Command and URL must be set. An agent that lists
// the server's name among its tools gets every tool the server exposes.
type MCPConfig struct {
	Name    string   `yaml:"name"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	URL     string   `yaml:"url"`
}

// LoadEnv loads a .env file into the process environment. A missing file is
// not an error; variables already set are kept.
func LoadEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("engine: load env: %w", err)
	}
	return nil
}

// LoadConfig reads a YAML file and returns a Config.
// Environment variables referenced as ${VAR} or $VAR in the YAML are expanded
// before parsing, so API keys can live in the environment (e.g. a .env file)
// rather than in the config.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		return Config{}, fmt.Errorf("engine: load config: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig expands environment variables in data and decodes it.
func ParseConfig(data []byte) (Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("engine: parse config: %w", err)
	}

	return cfg, nil
}

// Marshal encodes the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("engine: marshal config: %w", err)
	}
	return data, nil
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	if len(c.Providers) == 0 {
		return fmt.Errorf("engine: config: at least one provider is required")
	}

	providerNames := make(map[string]struct{}, len(c.Providers))
	for _, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("engine: config: provider name is required")
		}
		if p.Kind == "" {
			return fmt.Errorf("engine: config: provider %q: kind is required", p.Name)
		}
		if _, ok := getFactory(p.Kind); !ok {
			return fmt.Errorf("engine: config: provider %q: unknown kind %q", p.Name, p.Kind)
		}
		if _, dup := providerNames[p.Name]; dup {
			return fmt.Errorf("engine: config: duplicate provider name %q", p.Name)
		}
		providerNames[p.Name] = struct{}{}
	}

	mcpNames := make(map[string]struct{}, len(c.MCPServers))
	for _, m := range c.MCPServers {
		if m.Name == "" {
			return fmt.Errorf("engine: config: mcp server name is required")
		}
		if (m.Command == "") == (m.URL == "") {
			return fmt.Errorf("engine: config: mcp server %q: exactly one of command and url is required", m.Name)
		}
		if _, dup := mcpNames[m.Name]; dup {
			return fmt.Errorf("engine: config: duplicate mcp server name %q", m.Name)
		}
		mcpNames[m.Name] = struct{}{}
	}

	builtins := make(map[string]struct{}, len(defaults.ToolNames))
	for _, n := range defaults.ToolNames {
		builtins[n] = struct{}{}
	}

	if len(c.Agents) == 0 {
		return fmt.Errorf("engine: config: at least one agent is required")
	}

	agentNames := make(map[string]struct{}, len(c.Agents))
	for _, a := range c.Agents {
		if a.Name == "" {
			return fmt.Errorf("engine: config: agent name is required")
		}
		if _, dup := agentNames[a.Name]; dup {
			return fmt.Errorf("engine: config: duplicate agent name %q", a.Name)
		}
		agentNames[a.Name] = struct{}{}

		if _, ok := providerNames[a.Provider]; a.Provider != "" && !ok {
			return fmt.Errorf("engine: config: agent %q: unknown provider %q", a.Name, a.Provider)
		}

		for _, tool := range a.Tools {
			_, builtin := builtins[tool]
			_, mcp := mcpNames[tool]
			if !builtin && !mcp {
				return fmt.Errorf("engine: config: agent %q: unknown tool %q", a.Name, tool)
			}
		}
	}

	if d := c.Router.DefaultAgent; d != "" {
		if _, ok := agentNames[d]; !ok {
			return fmt.Errorf("engine: config: router default_agent %q not found in agents", d)
		}
	}

	for i, r := range c.Router.Rules {
		if _, ok := agentNames[r.Agent]; !ok {
			return fmt.Errorf("engine: config: router rule %d: unknown agent %q", i, r.Agent)
		}
		if r.Pattern == "" && len(r.Keywords) == 0 {
			return fmt.Errorf("engine: config: router rule %d: pattern or keywords required", i)
		}
		if r.Pattern != "" {
			if _, err := regexp.Compile(r.Pattern); err != nil {
				return fmt.Errorf("engine: config: router rule %d: invalid pattern: %w", i, err)
			}
		}
	}

	if p := c.Router.Classifier.Provider; c.Router.Classifier.Enabled && p != "" {
		if _, ok := providerNames[p]; !ok {
			return fmt.Errorf("engine: config: router classifier: unknown provider %q", p)
		}
	}

	durations := map[string]string{
		"loop.model_timeout": c.Loop.ModelTimeout,
		"loop.tool_timeout":  c.Loop.ToolTimeout,
		"tools.exec.timeout": c.Tools.Exec.Timeout,
		"tools.web.timeout":  c.Tools.Web.Timeout,
	}
	for field, v := range durations {
		if _, err := parseDuration(v); err != nil {
			return fmt.Errorf("engine: config: %s: %w", field, err)
		}
	}

	if c.Loop.MaxIterations < 0 {
		return fmt.Errorf("engine: config: loop.max_iterations must not be negative")
	}

	return nil
}

// parseDuration parses an optional duration; empty means zero.
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}

	return d, nil
}

// defaultAgent returns the configured default agent or the first agent.
func (c Config) defaultAgent() string {
	if c.Router.DefaultAgent != "" {
		return c.Router.DefaultAgent
	}
	if len(c.Agents) > 0 {
		return c.Agents[0].Name
	}
	return ""
}
