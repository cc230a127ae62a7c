package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/germanamz/actloop/pkg/agent"
	"github.com/germanamz/actloop/pkg/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
providers:
  - name: moonshot
    kind: openai
    base_url: https://api.moonshot.cn/v1
    api_key: sk-test
    model: moonshot-v1-8k
    temperature: 0.7
  - name: local
    kind: ollama
    model: llama3.2

mcp_servers:
  - name: search
    command: mcp-search
    args: ["--port", "8080"]

agents:
  - name: explore
    description: Explores code
    instructions: Be concise.
    provider: moonshot
    tools: [list_dir, read_file, search]
    max_iterations: 5
  - name: general
    provider: local

router:
  default_agent: general
  rules:
    - pattern: "^(ls|find)\\b"
      agent: explore
    - keywords: [repository, files]
      agent: explore
  classifier:
    enabled: true
    provider: moonshot

loop:
  max_iterations: 8
  model_timeout: 30s
  tool_timeout: 1m
  max_turns: 20
  max_result_len: 4000

tools:
  exec:
    timeout: 10s
    work_dir: /tmp
  filesystem:
    root: /srv/project
  web:
    timeout: 5s
    max_bytes: 1024
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func validConfig() Config {
	return Config{
		Providers: []ProviderConfig{{Name: "p1", Kind: "openai"}},
		Agents:    []agent.Config{{Name: "a1", Provider: "p1"}},
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	require.Len(t, cfg.Providers, 2)
	assert.Equal(t, "moonshot", cfg.Providers[0].Name)
	assert.Equal(t, "openai", cfg.Providers[0].Kind)
	assert.Equal(t, "https://api.moonshot.cn/v1", cfg.Providers[0].BaseURL)
	assert.Equal(t, "sk-test", cfg.Providers[0].APIKey)
	assert.InDelta(t, 0.7, cfg.Providers[0].Temperature, 1e-9)
	assert.Equal(t, "ollama", cfg.Providers[1].Kind)

	require.Len(t, cfg.MCPServers, 1)
	assert.Equal(t, []string{"--port", "8080"}, cfg.MCPServers[0].Args)

	require.Len(t, cfg.Agents, 2)
	assert.Equal(t, "explore", cfg.Agents[0].Name)
	assert.Equal(t, []string{"list_dir", "read_file", "search"}, cfg.Agents[0].Tools)
	assert.Equal(t, 5, cfg.Agents[0].MaxIterations)
	assert.Empty(t, cfg.Agents[1].Tools)

	assert.Equal(t, "general", cfg.Router.DefaultAgent)
	require.Len(t, cfg.Router.Rules, 2)
	assert.Equal(t, `^(ls|find)\b`, cfg.Router.Rules[0].Pattern)
	assert.Equal(t, []string{"repository", "files"}, cfg.Router.Rules[1].Keywords)
	assert.True(t, cfg.Router.Classifier.Enabled)

	assert.Equal(t, LoopConfig{
		MaxIterations: 8,
		ModelTimeout:  "30s",
		ToolTimeout:   "1m",
		MaxTurns:      20,
		MaxResultLen:  4000,
	}, cfg.Loop)
	assert.Equal(t, "/tmp", cfg.Tools.Exec.WorkDir)
	assert.Equal(t, "/srv/project", cfg.Tools.Filesystem.Root)
	assert.Equal(t, int64(1024), cfg.Tools.Web.MaxBytes)

	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/no/such/file.yaml")
	assert.ErrorContains(t, err, "engine: load config")
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "providers: [\n"))
	assert.ErrorContains(t, err, "engine: parse config")
}

func TestLoadConfig_ExpandsEnvVars(t *testing.T) {
	t.Setenv("ACTLOOP_TEST_API_KEY", "sk-from-env")

	cfg, err := LoadConfig(writeConfig(t, `
providers:
  - name: p1
    kind: openai
    api_key: ${ACTLOOP_TEST_API_KEY}
agents:
  - name: a1
`))
	require.NoError(t, err)

	assert.Equal(t, "sk-from-env", cfg.Providers[0].APIKey)
}

func TestLoadConfig_UnsetEnvVarExpandsToEmpty(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
providers:
  - name: p1
    kind: openai
    api_key: ${ACTLOOP_TEST_UNSET_VAR_12345}
agents:
  - name: a1
`))
	require.NoError(t, err)

	assert.Empty(t, cfg.Providers[0].APIKey)
}

func TestLoadEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ACTLOOP_TEST_DOTENV=from-file\n"), 0o600))
	t.Setenv("ACTLOOP_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("ACTLOOP_TEST_DOTENV"))

	require.NoError(t, LoadEnv(path))
	assert.Equal(t, "from-file", os.Getenv("ACTLOOP_TEST_DOTENV"))
}

func TestLoadEnv_KeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ACTLOOP_TEST_DOTENV_KEEP=from-file\n"), 0o600))
	t.Setenv("ACTLOOP_TEST_DOTENV_KEEP", "from-env")

	require.NoError(t, LoadEnv(path))
	assert.Equal(t, "from-env", os.Getenv("ACTLOOP_TEST_DOTENV_KEEP"))
}

func TestLoadEnv_MissingFile(t *testing.T) {
	assert.NoError(t, LoadEnv(filepath.Join(t.TempDir(), ".env")))
}

func TestConfig_MarshalRoundTrip(t *testing.T) {
	cfg := DefaultConfig()

	data, err := cfg.Marshal()
	require.NoError(t, err)

	back, err := ParseConfig(data)
	require.NoError(t, err)
	require.Len(t, back.Agents, len(cfg.Agents))
	for i := range cfg.Agents {
		assert.Equal(t, cfg.Agents[i].Name, back.Agents[i].Name)
		assert.Equal(t, cfg.Agents[i].Instructions, back.Agents[i].Instructions)
		assert.ElementsMatch(t, cfg.Agents[i].Tools, back.Agents[i].Tools)
	}
	assert.Equal(t, cfg.Router.DefaultAgent, back.Router.DefaultAgent)
	assert.Equal(t, cfg.Loop, back.Loop)
	assert.NoError(t, back.Validate())
}

func TestDefaultConfig(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-default")
	t.Setenv("OPENAI_BASE_URL", "")
	t.Setenv("OPENAI_MODEL", "")

	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	require.Len(t, cfg.Providers, 1)
	assert.Equal(t, "sk-default", cfg.Providers[0].APIKey)
	assert.Equal(t, DefaultModel, cfg.Providers[0].Model)
	assert.Equal(t, "https://api.openai.com/v1", cfg.Providers[0].BaseURL)

	var names []string
	for _, a := range cfg.Agents {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"explore", "code", "bash", "general"}, names)
	assert.Equal(t, "general", cfg.defaultAgent())
	assert.True(t, cfg.Router.Classifier.Enabled)
}

func TestDefaultConfig_ModelFromEnv(t *testing.T) {
	t.Setenv("OPENAI_MODEL", "moonshot-v1-8k")
	t.Setenv("OPENAI_BASE_URL", "https://api.moonshot.cn/v1")

	cfg := DefaultConfig()
	assert.Equal(t, "moonshot-v1-8k", cfg.Providers[0].Model)
	assert.Equal(t, "https://api.moonshot.cn/v1", cfg.Providers[0].BaseURL)
}

func TestConfig_DefaultAgent_FirstWhenUnset(t *testing.T) {
	cfg := validConfig()
	cfg.Agents = append(cfg.Agents, agent.Config{Name: "a2"})
	assert.Equal(t, "a1", cfg.defaultAgent())
}

func TestConfig_Validate_Valid(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestConfig_Validate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no providers", func(c *Config) { c.Providers = nil }, "at least one provider"},
		{"no agents", func(c *Config) { c.Agents = nil }, "at least one agent"},
		{"provider without name", func(c *Config) { c.Providers[0].Name = "" }, "provider name is required"},
		{"provider without kind", func(c *Config) { c.Providers[0].Kind = "" }, "kind is required"},
		{"unknown kind", func(c *Config) { c.Providers[0].Kind = "anthropic" }, `unknown kind "anthropic"`},
		{
			"duplicate provider",
			func(c *Config) { c.Providers = append(c.Providers, ProviderConfig{Name: "p1", Kind: "ollama"}) },
			"duplicate provider name",
		},
		{"agent without name", func(c *Config) { c.Agents[0].Name = "" }, "agent name is required"},
		{
			"duplicate agent",
			func(c *Config) { c.Agents = append(c.Agents, agent.Config{Name: "a1"}) },
			"duplicate agent name",
		},
		{"unknown provider", func(c *Config) { c.Agents[0].Provider = "nope" }, `unknown provider "nope"`},
		{"unknown tool", func(c *Config) { c.Agents[0].Tools = []string{"teleport"} }, `unknown tool "teleport"`},
		{"unknown default agent", func(c *Config) { c.Router.DefaultAgent = "ghost" }, `default_agent "ghost"`},
		{
			"rule with unknown agent",
			func(c *Config) { c.Router.Rules = []router.Rule{{Keywords: []string{"x"}, Agent: "ghost"}} },
			`unknown agent "ghost"`,
		},
		{
			"empty rule",
			func(c *Config) { c.Router.Rules = []router.Rule{{Agent: "a1"}} },
			"pattern or keywords required",
		},
		{
			"invalid pattern",
			func(c *Config) { c.Router.Rules = []router.Rule{{Pattern: "(", Agent: "a1"}} },
			"invalid pattern",
		},
		{
			"unknown classifier provider",
			func(c *Config) { c.Router.Classifier = ClassifierConfig{Enabled: true, Provider: "nope"} },
			"router classifier",
		},
		{"bad duration", func(c *Config) { c.Loop.ModelTimeout = "soon" }, "loop.model_timeout"},
		{"negative duration", func(c *Config) { c.Tools.Exec.Timeout = "-1s" }, "tools.exec.timeout"},
		{"negative iterations", func(c *Config) { c.Loop.MaxIterations = -1 }, "max_iterations"},
		{"mcp without name", func(c *Config) { c.MCPServers = []MCPConfig{{Command: "x"}} }, "mcp server name"},
		{
			"mcp without command or url",
			func(c *Config) { c.MCPServers = []MCPConfig{{Name: "m"}} },
			"exactly one of command and url",
		},
		{
			"duplicate mcp",
			func(c *Config) { c.MCPServers = []MCPConfig{{Name: "m", Command: "x"}, {Name: "m", URL: "http://x"}} },
			"duplicate mcp server name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "engine: config:")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConfig_Validate_MCPServerAsTool(t *testing.T) {
	cfg := validConfig()
	cfg.MCPServers = []MCPConfig{{Name: "github", Command: "mcp-github"}}
	cfg.Agents[0].Tools = []string{"read_file", "github"}

	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate_ClassifierDefaultsToFirstProvider(t *testing.T) {
	cfg := validConfig()
	cfg.Router.Classifier.Enabled = true

	assert.NoError(t, cfg.Validate())
}
