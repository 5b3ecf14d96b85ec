package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/meshgen/types"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "https://api.anthropic.com", cfg.Anthropic.BaseURL)
	assert.Equal(t, "2023-06-01", cfg.Anthropic.APIVersion)
	assert.Equal(t, "claude-3-7-sonnet-20250219", cfg.Anthropic.Model)
	assert.Equal(t, 4000, cfg.Anthropic.MaxTokens)
	assert.Equal(t, 0.7, cfg.Anthropic.Temperature)
	assert.Equal(t, 120*time.Second, cfg.Anthropic.Timeout)

	assert.Equal(t, "generated_objects", cfg.Output.Dir)
	assert.False(t, cfg.Output.Overwrite)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoader_LoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "claude-3-7-sonnet-20250219", cfg.Anthropic.Model)
	assert.Equal(t, "generated_objects", cfg.Output.Dir)
	require.NoError(t, cfg.Validate())
}

func TestLoader_LoadFromYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "meshgen.yaml")

	yamlContent := `
anthropic:
  model: "claude-3-5-sonnet-20241022"
  max_tokens: 2000
  temperature: 0.2
  timeout: 60s

output:
  dir: "out"
  overwrite: true

log:
  level: "debug"
  format: "json"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o644))

	cfg, err := NewLoader().WithConfigPath(configPath).Load()
	require.NoError(t, err)

	assert.Equal(t, "claude-3-5-sonnet-20241022", cfg.Anthropic.Model)
	assert.Equal(t, 2000, cfg.Anthropic.MaxTokens)
	assert.Equal(t, 0.2, cfg.Anthropic.Temperature)
	assert.Equal(t, 60*time.Second, cfg.Anthropic.Timeout)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.True(t, cfg.Output.Overwrite)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Untouched sections keep their defaults.
	assert.Equal(t, "https://api.anthropic.com", cfg.Anthropic.BaseURL)
}

func TestLoader_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath("/nonexistent/meshgen.yaml").Load()
	require.NoError(t, err)
	assert.Equal(t, "generated_objects", cfg.Output.Dir)
}

func TestLoader_EnvOverrides(t *testing.T) {
	t.Setenv("MESHGEN_ANTHROPIC_MODEL", "claude-3-opus-20240229")
	t.Setenv("MESHGEN_ANTHROPIC_MAX_TOKENS", "1234")
	t.Setenv("MESHGEN_ANTHROPIC_TIMEOUT", "30s")
	t.Setenv("MESHGEN_OUTPUT_DIR", "env_out")
	t.Setenv("MESHGEN_OUTPUT_OVERWRITE", "true")
	t.Setenv("MESHGEN_LOG_OUTPUT_PATHS", "stdout, stderr")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "claude-3-opus-20240229", cfg.Anthropic.Model)
	assert.Equal(t, 1234, cfg.Anthropic.MaxTokens)
	assert.Equal(t, 30*time.Second, cfg.Anthropic.Timeout)
	assert.Equal(t, "env_out", cfg.Output.Dir)
	assert.True(t, cfg.Output.Overwrite)
	assert.Equal(t, []string{"stdout", "stderr"}, cfg.Log.OutputPaths)
}

func TestLoader_CredentialFromEnvOnly(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "meshgen.yaml")
	// A key smuggled into YAML must be ignored.
	require.NoError(t, os.WriteFile(configPath, []byte("anthropic:\n  api_key: \"from-yaml\"\n"), 0o644))

	t.Setenv(EnvAPIKey, "")
	cfg, err := NewLoader().WithConfigPath(configPath).Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.Anthropic.APIKey)

	err = cfg.RequireCredential()
	require.Error(t, err)
	assert.Equal(t, types.ErrConfig, types.GetErrorCode(err))
	assert.Equal(t, types.StageConfig, types.GetStage(err))

	t.Setenv(EnvAPIKey, "sk-test-123")
	cfg, err = NewLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-test-123", cfg.Anthropic.APIKey)
	require.NoError(t, cfg.RequireCredential())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "empty model",
			mutate:  func(c *Config) { c.Anthropic.Model = "" },
			wantErr: "model",
		},
		{
			name:    "zero max tokens",
			mutate:  func(c *Config) { c.Anthropic.MaxTokens = 0 },
			wantErr: "max_tokens",
		},
		{
			name:    "temperature out of range",
			mutate:  func(c *Config) { c.Anthropic.Temperature = 1.5 },
			wantErr: "temperature",
		},
		{
			name:    "empty output dir",
			mutate:  func(c *Config) { c.Output.Dir = "" },
			wantErr: "output dir",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
