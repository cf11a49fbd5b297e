package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8001", cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, StoreSQLite, cfg.Storage.Backend)
	assert.True(t, cfg.Tracking.Enabled)
	assert.Equal(t, 10, cfg.Recommendations.Limit)
}

func TestLoad_YAMLThenEnvironment(t *testing.T) {
	path := writeFile(t, "storefront.yaml", `
api:
  base_url: https://api.example.com/
  timeout: 3s
storage:
  backend: memory
recommendations:
  limit: 4
`)
	t.Setenv("STOREFRONT_API_URL", "https://override.example.com")
	t.Setenv("STOREFRONT_API_MAX_RETRIES", "0")

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, "https://override.example.com", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, 0, cfg.API.MaxRetries)
	assert.Equal(t, StoreMemory, cfg.Storage.Backend)
	assert.Equal(t, 4, cfg.Recommendations.Limit)
}

func TestLoad_DotEnvFile(t *testing.T) {
	envFile := writeFile(t, ".env", "STOREFRONT_STORE=memory\nSTOREFRONT_LOG_LEVEL=debug\n")
	t.Cleanup(func() {
		os.Unsetenv("STOREFRONT_STORE")
		os.Unsetenv("STOREFRONT_LOG_LEVEL")
	})

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Storage.Backend)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_MissingDotEnvIgnored(t *testing.T) {
	_, err := Load("", filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"empty url", func(c *Config) { c.API.BaseURL = "" }, "base url is required"},
		{"bad scheme", func(c *Config) { c.API.BaseURL = "ftp://x" }, "http or https"},
		{"no host", func(c *Config) { c.API.BaseURL = "localhost" }, "valid URL"},
		{"redis without url", func(c *Config) { c.Storage.Backend = StoreRedis }, "redis store requires"},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "etcd" }, "unknown store backend"},
		{"zero timeout", func(c *Config) { c.API.Timeout = 0 }, "timeout must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadFromPath_BadYAML(t *testing.T) {
	path := writeFile(t, "bad.yaml", "api: [")
	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}
