package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 6000, cfg.BudgetFor("planner"))
	assert.Equal(t, 1500, cfg.BudgetFor("interpretation"))
	assert.Equal(t, 8000, cfg.BudgetFor("mente_maior"))
	assert.Equal(t, 24000, cfg.Context.GlobalCeiling)
	assert.Equal(t, 60*time.Minute, cfg.Session.TTLDuration())
	assert.Equal(t, 10*time.Minute, cfg.Session.SweepIntervalDuration())
}

func TestBudgetForUnknownCallType(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, cfg.Context.Budgets["follow_up"], cfg.BudgetFor("nonexistent"))
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 6000, cfg.BudgetFor("planner"))
}

func TestLoadOverridesAndClamps(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	yaml := `
session:
  ttl: 30m
context:
  budgets:
    planner: 9000
    interpretation: 50
  global_ceiling: 100
  history_share: 2.5
llm:
  max_retries: -3
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.Session.TTLDuration())
	assert.Equal(t, 9000, cfg.BudgetFor("planner"))
	// Below the floor, clamped back to the default.
	assert.Equal(t, 1500, cfg.BudgetFor("interpretation"))
	assert.Equal(t, 24000, cfg.Context.GlobalCeiling)
	assert.Equal(t, 0.30, cfg.Context.HistoryShare)
	assert.Equal(t, 0, cfg.LLM.MaxRetries)
	// Call types absent from the file keep their defaults.
	assert.Equal(t, 4000, cfg.BudgetFor("capability"))
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{not yaml"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key-123")
	t.Setenv("JOTA_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "test-key-123", cfg.LLM.GeminiAPIKey)
	assert.Equal(t, "debug", cfg.Logging.Level)
}
