// Package config loads CLI settings from ~/.deepagents/config.json, layered
// under environment overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/statecraft-ai/deepagents-go/pkg/trace"
)

const (
	DefaultModel         = "claude-sonnet-4-20250514"
	DefaultMaxTokens     = 8192
	DefaultMaxIterations = 20
)

type Config struct {
	Agent    AgentConfig    `json:"agent"`
	Provider ProviderConfig `json:"provider"`
	Trace    trace.Config   `json:"trace"`
}

type AgentConfig struct {
	Model         string   `json:"model"`
	MaxTokens     int      `json:"maxTokens"`
	Temperature   *float64 `json:"temperature,omitempty"`
	MaxIterations int      `json:"maxIterations"`

	// AgentsDir holds Markdown sub-agent definitions loaded at startup.
	AgentsDir string `json:"agentsDir,omitempty"`

	// InstructionsFile names a file whose contents become the main agent's
	// instructions.
	InstructionsFile string `json:"instructionsFile,omitempty"`
}

type ProviderConfig struct {
	Type    string `json:"type,omitempty"` // "anthropic" (default) or "openai"
	APIKey  string `json:"apiKey"`
	BaseURL string `json:"baseUrl,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Agent: AgentConfig{
			Model:         DefaultModel,
			MaxTokens:     DefaultMaxTokens,
			MaxIterations: DefaultMaxIterations,
			AgentsDir:     filepath.Join(ConfigDir(), "agents"),
		},
		Provider: ProviderConfig{},
		Trace:    trace.DefaultConfig(),
	}
}

func ConfigDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".deepagents")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// Load reads ConfigPath over the defaults. A missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the named file over the defaults, then applies environment
// overrides.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if cfg.Agent.Model == "" {
		cfg.Agent.Model = DefaultModel
	}
	if cfg.Agent.MaxTokens <= 0 {
		cfg.Agent.MaxTokens = DefaultMaxTokens
	}
	if cfg.Agent.MaxIterations <= 0 {
		cfg.Agent.MaxIterations = DefaultMaxIterations
	}
	if cfg.Trace.ServiceName == "" {
		cfg.Trace.ServiceName = trace.DefaultConfig().ServiceName
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DEEPAGENTS_PROVIDER"); v != "" {
		cfg.Provider.Type = v
	}
	if v := os.Getenv("DEEPAGENTS_API_KEY"); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" && cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_AUTH_TOKEN"); v != "" && cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = v
		if cfg.Provider.Type == "" {
			cfg.Provider.Type = "openai"
		}
	}
	if v := os.Getenv("DEEPAGENTS_BASE_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv("ANTHROPIC_BASE_URL"); v != "" && cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv("DEEPAGENTS_MODEL"); v != "" {
		cfg.Agent.Model = v
	}
	if v := os.Getenv("DEEPAGENTS_MAX_TOKENS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Agent.MaxTokens = parsed
		}
	}
	if v := os.Getenv("DEEPAGENTS_MAX_ITERATIONS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Agent.MaxIterations = parsed
		}
	}
	if v := os.Getenv("DEEPAGENTS_AGENTS_DIR"); v != "" {
		cfg.Agent.AgentsDir = v
	}
	if v := os.Getenv("DEEPAGENTS_INSTRUCTIONS_FILE"); v != "" {
		cfg.Agent.InstructionsFile = v
	}
	if v := os.Getenv("DEEPAGENTS_TRACE_ENABLED"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			cfg.Trace.Enabled = parsed
		}
	}
	if v := os.Getenv("DEEPAGENTS_TRACE_ENDPOINT"); v != "" {
		cfg.Trace.Endpoint = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" && cfg.Trace.Endpoint == "" {
		cfg.Trace.Endpoint = v
	}
}

// Save writes cfg to the default path, creating the directory when needed.
func Save(cfg *Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(ConfigPath(), data, 0644)
}
