// Package config holds the engine configuration: context budgets, session
// lifecycle timings, LLM provider settings and logging. Values load from
// YAML with environment overrides and are clamped to sane ranges.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all Jota context engine configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	Session SessionConfig `yaml:"session"`
	Context ContextConfig `yaml:"context"`
	LLM     LLMConfig     `yaml:"llm"`
	Logging LoggingConfig `yaml:"logging"`
}

// SessionConfig configures session lifecycle.
type SessionConfig struct {
	// TTL is the inactivity window after which a session is collected.
	TTL string `yaml:"ttl"`
	// SweepInterval is how often the store scans for expired sessions.
	SweepInterval string `yaml:"sweep_interval"`
}

// TTLDuration parses TTL, defaulting to 60 minutes.
func (c SessionConfig) TTLDuration() time.Duration {
	return parseDuration(c.TTL, 60*time.Minute)
}

// SweepIntervalDuration parses SweepInterval, defaulting to 10 minutes.
func (c SessionConfig) SweepIntervalDuration() time.Duration {
	return parseDuration(c.SweepInterval, 10*time.Minute)
}

// ContextConfig configures context assembly budgets.
type ContextConfig struct {
	// Budgets are per-call-type character budgets. Missing call types use
	// built-in defaults.
	Budgets map[string]int `yaml:"budgets"`

	// GlobalCeiling caps the unified context size in characters.
	GlobalCeiling int `yaml:"global_ceiling"`

	// HistoryShare is the fraction of a call budget given to conversation
	// history. StepResultShare likewise for step results.
	HistoryShare    float64 `yaml:"history_share"`
	StepResultShare float64 `yaml:"step_result_share"`
}

// LLMConfig configures the provider cascade.
type LLMConfig struct {
	GroqAPIKey   string `yaml:"groq_api_key"`
	GeminiAPIKey string `yaml:"gemini_api_key"`
	GeminiModel  string `yaml:"gemini_model"`
	Timeout      string `yaml:"timeout"`
	CacheTTL     string `yaml:"cache_ttl"`
	MaxRetries   int    `yaml:"max_retries"`
}

// TimeoutDuration parses Timeout, defaulting to 45 seconds.
func (c LLMConfig) TimeoutDuration() time.Duration {
	return parseDuration(c.Timeout, 45*time.Second)
}

// CacheTTLDuration parses CacheTTL, defaulting to 5 minutes.
func (c LLMConfig) CacheTTLDuration() time.Duration {
	return parseDuration(c.CacheTTL, 5*time.Minute)
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`
}

// DefaultBudgets are the per-call-type character budgets.
func DefaultBudgets() map[string]int {
	return map[string]int{
		"planner":          6000,
		"initial_response": 2000,
		"interpretation":   1500,
		"mente_maior":      8000,
		"capability":       4000,
		"final_response":   6000,
		"follow_up":        5000,
	}
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "jota-context-engine",
		Version: "1.0.0",
		Session: SessionConfig{
			TTL:           "60m",
			SweepInterval: "10m",
		},
		Context: ContextConfig{
			Budgets:         DefaultBudgets(),
			GlobalCeiling:   24000,
			HistoryShare:    0.30,
			StepResultShare: 0.40,
		},
		LLM: LLMConfig{
			GeminiModel: "gemini-2.0-flash",
			Timeout:     "45s",
			CacheTTL:    "5m",
			MaxRetries:  2,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file, layering it over defaults and
// applying environment overrides. A missing file returns defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			cfg.clamp()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	cfg.clamp()
	return cfg, nil
}

// applyEnvOverrides fills API keys from the environment when unset.
func (c *Config) applyEnvOverrides() {
	if c.LLM.GroqAPIKey == "" {
		c.LLM.GroqAPIKey = os.Getenv("GROQ_API_KEY")
	}
	if c.LLM.GeminiAPIKey == "" {
		c.LLM.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if lvl := os.Getenv("JOTA_LOG_LEVEL"); lvl != "" {
		c.Logging.Level = lvl
	}
}

// clamp brings out-of-range values back into working ranges instead of
// failing: the engine should start with a misconfigured file.
func (c *Config) clamp() {
	defaults := DefaultBudgets()
	if c.Context.Budgets == nil {
		c.Context.Budgets = defaults
	} else {
		for call, budget := range defaults {
			if v, ok := c.Context.Budgets[call]; !ok || v < 200 {
				c.Context.Budgets[call] = budget
			}
		}
	}
	if c.Context.GlobalCeiling < 1000 {
		c.Context.GlobalCeiling = 24000
	}
	if c.Context.HistoryShare <= 0 || c.Context.HistoryShare >= 1 {
		c.Context.HistoryShare = 0.30
	}
	if c.Context.StepResultShare <= 0 || c.Context.StepResultShare >= 1 {
		c.Context.StepResultShare = 0.40
	}
	if c.LLM.MaxRetries < 0 {
		c.LLM.MaxRetries = 0
	}
}

// BudgetFor returns the character budget for a call type, falling back to
// the follow_up budget for unknown call types.
func (c *Config) BudgetFor(callType string) int {
	if b, ok := c.Context.Budgets[callType]; ok {
		return b
	}
	return c.Context.Budgets["follow_up"]
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
