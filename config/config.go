// Package config loads pipeline configuration from defaults, an optional
// YAML file and environment variables, in that order of precedence. Timeout,
// retry and concurrency knobs are deliberately tunables rather than
// hard-coded values.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config carries every process-wide tunable of the pipeline. It is resolved
// once at startup and treated as read-only afterwards.
type Config struct {
	// Backend selects the capability provider: "anthropic", "openai",
	// "openrouter" or "mock".
	Backend string `yaml:"backend"`
	// Model is the backend-specific model identifier. Empty selects the
	// backend default.
	Model string `yaml:"model"`
	// APIKey authenticates against the selected backend. Usually supplied
	// via environment, not the file.
	APIKey string `yaml:"api_key"`
	// BaseURL overrides the provider endpoint (used for OpenRouter).
	BaseURL string `yaml:"base_url"`

	// StageTimeout bounds one stage execution including fan-out.
	StageTimeout time.Duration `yaml:"stage_timeout"`
	// AdapterTimeout bounds a single adapter call. Must be strictly smaller
	// than StageTimeout.
	AdapterTimeout time.Duration `yaml:"adapter_timeout"`

	// MaxRetries is the per-adapter-call retry budget for transient
	// failures.
	MaxRetries int `yaml:"max_retries"`
	// RetryBaseDelay is the initial exponential backoff delay.
	RetryBaseDelay time.Duration `yaml:"retry_base_delay"`
	// RetryMaxDelay caps the backoff delay.
	RetryMaxDelay time.Duration `yaml:"retry_max_delay"`

	// MaxConcurrentCalls bounds simultaneous in-flight adapter calls within
	// one stage.
	MaxConcurrentCalls int `yaml:"max_concurrent_calls"`
	// AdapterRateLimit caps calls per second towards one adapter's
	// upstream. 0 disables rate limiting.
	AdapterRateLimit float64 `yaml:"adapter_rate_limit"`

	// EventBufferSize sets channel buffering for the event stream.
	EventBufferSize int `yaml:"event_buffer_size"`
	// MaxSearchResults bounds hits requested from literature sources.
	MaxSearchResults int `yaml:"max_search_results"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Backend:            "anthropic",
		StageTimeout:       60 * time.Second,
		AdapterTimeout:     20 * time.Second,
		MaxRetries:         2,
		RetryBaseDelay:     500 * time.Millisecond,
		RetryMaxDelay:      10 * time.Second,
		MaxConcurrentCalls: 4,
		AdapterRateLimit:   5,
		EventBufferSize:    100,
		MaxSearchResults:   30,
	}
}

// Load resolves the effective configuration: defaults, overlaid by the YAML
// file at path (skipped when path is empty), overlaid by environment
// variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// FromEnv resolves configuration from defaults plus environment only.
func FromEnv() (Config, error) { return Load("") }

// applyEnv overlays environment variables. Key names follow the upstream
// deployment convention (LLM_PROVIDER, <PROVIDER>_API_KEY, <PROVIDER>_MODEL).
func (c *Config) applyEnv() {
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.Backend = v
	}

	switch c.Backend {
	case "anthropic":
		if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
			c.APIKey = v
		}
		if v := os.Getenv("ANTHROPIC_MODEL"); v != "" {
			c.Model = v
		}
	case "openai":
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			c.APIKey = v
		}
		if v := os.Getenv("OPENAI_MODEL"); v != "" {
			c.Model = v
		}
	case "openrouter":
		if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
			c.APIKey = v
		}
		if v := os.Getenv("OPENROUTER_MODEL"); v != "" {
			c.Model = v
		}
		if c.BaseURL == "" {
			c.BaseURL = "https://openrouter.ai/api/v1"
		}
	}
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.Backend {
	case "anthropic", "openai", "openrouter", "mock":
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.StageTimeout <= 0 {
		return fmt.Errorf("stage_timeout must be positive, got %s", c.StageTimeout)
	}
	if c.AdapterTimeout <= 0 || c.AdapterTimeout >= c.StageTimeout {
		return fmt.Errorf("adapter_timeout (%s) must be positive and smaller than stage_timeout (%s)", c.AdapterTimeout, c.StageTimeout)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries)
	}
	if c.MaxConcurrentCalls < 1 {
		return fmt.Errorf("max_concurrent_calls must be at least 1, got %d", c.MaxConcurrentCalls)
	}
	if c.EventBufferSize < 1 {
		return fmt.Errorf("event_buffer_size must be at least 1, got %d", c.EventBufferSize)
	}
	return nil
}
