package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "OPENAI_API_KEY", "OPENAI_MODEL", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
}

func TestLoadFromFileAppliesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
app:
  name: iq-writer
workers:
  generate-prompt-response:
    enabled: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "localhost:6379", cfg.Database.Redis.GetAddress())
	assert.Equal(t, "gpt-4.1-nano", cfg.APIs.OpenAI.Model)
	assert.Equal(t, 0.4, cfg.APIs.OpenAI.Temperature)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, filepath.Join("resources", "prompt-templates.yaml"), cfg.Resources.TemplatesFile)
	assert.Equal(t, 4, cfg.Writer.Concurrency)
	require.NotEmpty(t, cfg.APIs.Data.Endpoints)
	assert.Equal(t, "get_characters", cfg.APIs.Data.Endpoints[0].Name)

	worker := cfg.Workers["generate-prompt-response"]
	assert.Equal(t, 5, worker.MaxJobsActive)
	assert.Equal(t, 3, worker.MaxRetries)
}

func TestLoadFromFileEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_HOST", "cache.internal")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("IQ_TEST_BASE_URL", "http://data.local")

	path := writeConfig(t, `
database:
  redis:
    address: "ignored:1"
apis:
  data:
    base_url: "${IQ_TEST_BASE_URL}"
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "cache.internal:6380", cfg.Database.Redis.GetAddress())
	assert.Equal(t, "sk-test", cfg.APIs.OpenAI.APIKey)
	assert.Equal(t, "http://data.local", cfg.APIs.Data.BaseURL)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "camunda enabled without broker",
			mutate:  func(c *Config) { c.Camunda.Enabled = true },
			wantErr: "camunda.broker_address",
		},
		{
			name: "duplicate endpoint",
			mutate: func(c *Config) {
				c.APIs.Data.Endpoints = append(c.APIs.Data.Endpoints, c.APIs.Data.Endpoints[0])
			},
			wantErr: "duplicate endpoint",
		},
		{
			name:    "temperature out of range",
			mutate:  func(c *Config) { c.APIs.OpenAI.Temperature = 3 },
			wantErr: "temperature",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			applyDefaults(cfg)
			tt.mutate(cfg)

			err := validateConfig(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWorkerConfigHelpers(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{
		"initialize-prompts": {Enabled: false, Timeout: 500},
	}}

	assert.False(t, IsWorkerEnabled(cfg, "initialize-prompts"))
	assert.True(t, IsWorkerEnabled(cfg, "generate-prompt-response"))
	assert.Equal(t, 120000, GetWorkerConfig(cfg, "generate-prompt-response").Timeout)
	assert.Equal(t, 500*time.Millisecond, GetDuration(GetWorkerConfig(cfg, "initialize-prompts").Timeout))
}
