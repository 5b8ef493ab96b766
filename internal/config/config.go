// Package config loads the agent pipeline configuration from YAML.
// Secrets prefer the environment or the OS keychain; an api_key set in the
// file is honored for ad-hoc setups but never required.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/abdoukaba/Autogen-BIRD/internal/errors"
)

// DefaultPath is where commands look for configuration when --config is not
// given. A missing default file is not an error; defaults apply.
const DefaultPath = "configs/agent_config.yaml"

// Fallback policies for the selector when pruning cannot be applied.
const (
	FallbackFullSchema = "full_schema"
	FallbackFail       = "fail"
)

// Config holds every tunable of the question-to-SQL pipeline.
type Config struct {
	MaxIterations int `yaml:"max_iterations"`

	Selector   SelectorConfig `yaml:"selector"`
	Decomposer AgentConfig    `yaml:"decomposer"`
	Refiner    RefinerConfig  `yaml:"refiner"`

	Provider  ProviderConfig  `yaml:"provider"`
	Execution ExecutionConfig `yaml:"execution"`

	Workers int           `yaml:"workers"`
	Logging LoggingConfig `yaml:"logging"`
}

// AgentConfig selects the model one agent talks to.
type AgentConfig struct {
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
}

// SelectorConfig adds the pruning fallback policy.
type SelectorConfig struct {
	AgentConfig `yaml:",inline"`
	Fallback    string `yaml:"fallback"`
}

// RefinerConfig adds the conversation-history flag. The refiner sees only
// the failing attempt by default; history embeds all prior attempts.
type RefinerConfig struct {
	AgentConfig `yaml:",inline"`
	History     bool `yaml:"history"`
}

// ProviderConfig describes the LLM endpoint.
type ProviderConfig struct {
	BaseURL           string `yaml:"base_url"`
	APIKey            string `yaml:"api_key"`
	TimeoutSeconds    int    `yaml:"timeout_seconds"`
	MaxRetries        int    `yaml:"max_retries"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
}

// RequestTimeout returns the per-request deadline for provider calls.
func (p ProviderConfig) RequestTimeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// ExecutionConfig governs how candidate SQL is run.
type ExecutionConfig struct {
	TimeoutSeconds  int  `yaml:"timeout_seconds"`
	RefineOnTimeout bool `yaml:"refine_on_timeout"`
	SampleValues    int  `yaml:"sample_values"`
}

// StatementTimeout returns the per-statement deadline for gateway queries.
func (e ExecutionConfig) StatementTimeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// LoggingConfig selects log level and optional file destination.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Defaults returns the configuration used when no file is present.
func Defaults() *Config {
	return &Config{
		MaxIterations: 3,
		Selector: SelectorConfig{
			AgentConfig: AgentConfig{Model: "gpt-4o", Temperature: 0},
			Fallback:    FallbackFullSchema,
		},
		Decomposer: AgentConfig{Model: "gpt-4o", Temperature: 0},
		Refiner: RefinerConfig{
			AgentConfig: AgentConfig{Model: "gpt-4o", Temperature: 0},
		},
		Provider: ProviderConfig{
			TimeoutSeconds:    90,
			MaxRetries:        3,
			RequestsPerMinute: 60,
		},
		Execution: ExecutionConfig{
			TimeoutSeconds:  30,
			RefineOnTimeout: true,
		},
		Workers: 4,
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads configuration from an explicitly given path. A missing file is
// an error here; use LoadDefault for the optional default location.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Config, fmt.Sprintf("read config %s", path), err)
	}
	return parse(data)
}

// LoadDefault reads DefaultPath if it exists and returns defaults otherwise.
func LoadDefault() (*Config, error) {
	data, err := os.ReadFile(DefaultPath)
	if err != nil {
		if os.IsNotExist(err) {
			c := Defaults()
			c.applyEnv()
			return c, c.Validate()
		}
		return nil, apperrors.Wrap(apperrors.Config, fmt.Sprintf("read config %s", DefaultPath), err)
	}
	return parse(data)
}

// parse unmarshals on top of the defaults so absent keys keep their
// documented values.
func parse(data []byte) (*Config, error) {
	c := Defaults()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, apperrors.Wrap(apperrors.Config, "invalid config yaml", err)
	}
	c.applyEnv()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// applyEnv lets the environment override file values. OPENAI_API_KEY keeps
// the key out of the file entirely; BIRDSQL_MODEL repoints all three agents
// at once which is what benchmark sweeps want.
func (c *Config) applyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Provider.APIKey = v
	}
	if v := os.Getenv("BIRDSQL_MODEL"); v != "" {
		c.Selector.Model = v
		c.Decomposer.Model = v
		c.Refiner.Model = v
	}
	if v := os.Getenv("BIRDSQL_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.MaxIterations < 1 {
		return apperrors.New(apperrors.Config, "max_iterations must be at least 1")
	}
	if c.Workers < 1 {
		return apperrors.New(apperrors.Config, "workers must be at least 1")
	}
	if c.Selector.Fallback != FallbackFullSchema && c.Selector.Fallback != FallbackFail {
		return apperrors.New(apperrors.Config,
			fmt.Sprintf("selector.fallback must be %q or %q, got %q", FallbackFullSchema, FallbackFail, c.Selector.Fallback))
	}
	if c.Execution.SampleValues < 0 {
		return apperrors.New(apperrors.Config, "execution.sample_values cannot be negative")
	}
	if c.Provider.MaxRetries < 0 {
		return apperrors.New(apperrors.Config, "provider.max_retries cannot be negative")
	}
	if c.Provider.RequestsPerMinute < 0 {
		return apperrors.New(apperrors.Config, "provider.requests_per_minute cannot be negative")
	}
	for _, a := range []struct {
		name string
		cfg  AgentConfig
	}{
		{"selector", c.Selector.AgentConfig},
		{"decomposer", c.Decomposer},
		{"refiner", c.Refiner.AgentConfig},
	} {
		if a.cfg.Model == "" {
			return apperrors.New(apperrors.Config, fmt.Sprintf("%s.model is required", a.name))
		}
		if a.cfg.Temperature < 0 || a.cfg.Temperature > 2 {
			return apperrors.New(apperrors.Config, fmt.Sprintf("%s.temperature must be between 0 and 2", a.name))
		}
	}
	return nil
}

// Save writes configuration with 0600 permissions.
func Save(c *Config, path string) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return apperrors.Wrap(apperrors.Config, "encode config", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperrors.Wrap(apperrors.Config, "create config dir", err)
		}
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return apperrors.Wrap(apperrors.Config, "write config", err)
	}
	return nil
}
