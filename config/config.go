// Package config provides configuration for the meshgen CLI.
//
// Configuration is resolved once at startup with the precedence
// defaults → YAML file → environment variables, and the resulting
// struct is passed explicitly to every component that needs it.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BaSui01/meshgen/types"
)

// EnvAPIKey is the only credential source. It is read directly from the
// environment, never from a config file, and its absence fails a run
// before any image is loaded.
const EnvAPIKey = "ANTHROPIC_API_KEY"

// Config is the complete meshgen configuration.
type Config struct {
	// Anthropic holds the vision model endpoint settings.
	Anthropic AnthropicConfig `yaml:"anthropic" env:"ANTHROPIC"`

	// Output holds artifact export settings.
	Output OutputConfig `yaml:"output" env:"OUTPUT"`

	// Log holds logging settings.
	Log LogConfig `yaml:"log" env:"LOG"`
}

// AnthropicConfig configures the hosted vision model boundary.
type AnthropicConfig struct {
	// API key, sourced exclusively from the ANTHROPIC_API_KEY
	// environment variable.
	APIKey string `yaml:"-" env:"-"`
	// Base URL of the API
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// API version header value
	APIVersion string `yaml:"api_version" env:"API_VERSION"`
	// Model identifier
	Model string `yaml:"model" env:"MODEL"`
	// Response token cap
	MaxTokens int `yaml:"max_tokens" env:"MAX_TOKENS"`
	// Sampling temperature
	Temperature float64 `yaml:"temperature" env:"TEMPERATURE"`
	// Request timeout for the single remote call
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// OutputConfig configures artifact export.
type OutputConfig struct {
	// Directory the .obj/.stl/.json triple is written to
	Dir string `yaml:"dir" env:"DIR"`
	// Replace existing artifacts with the same base name
	Overwrite bool `yaml:"overwrite" env:"OVERWRITE"`
}

// LogConfig configures zap logging.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// Format: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// Output paths
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// Annotate entries with the calling site
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// Attach stacktraces at error level
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// Validate checks the configuration for values no run could succeed with.
func (c *Config) Validate() error {
	var errs []string

	if c.Anthropic.BaseURL == "" {
		errs = append(errs, "anthropic base_url must not be empty")
	}
	if c.Anthropic.Model == "" {
		errs = append(errs, "anthropic model must not be empty")
	}
	if c.Anthropic.MaxTokens <= 0 {
		errs = append(errs, "max_tokens must be positive")
	}
	if c.Anthropic.Temperature < 0 || c.Anthropic.Temperature > 1 {
		errs = append(errs, "temperature must be between 0 and 1")
	}
	if c.Anthropic.Timeout <= 0 {
		errs = append(errs, "timeout must be positive")
	}
	if c.Output.Dir == "" {
		errs = append(errs, "output dir must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// RequireCredential fails when no API key is present. Commands that talk
// to the remote model call this before touching any input file.
func (c *Config) RequireCredential() error {
	if strings.TrimSpace(c.Anthropic.APIKey) == "" {
		return types.NewError(types.ErrConfig,
			fmt.Sprintf("environment variable %s is not set", EnvAPIKey)).
			WithStage(types.StageConfig)
	}
	return nil
}

// readCredential pulls the API key from the environment.
func readCredential() string {
	return os.Getenv(EnvAPIKey)
}
