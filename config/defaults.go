package config

import "time"

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Anthropic: DefaultAnthropicConfig(),
		Output:    DefaultOutputConfig(),
		Log:       DefaultLogConfig(),
	}
}

// DefaultAnthropicConfig returns the default vision model settings.
func DefaultAnthropicConfig() AnthropicConfig {
	return AnthropicConfig{
		BaseURL:     "https://api.anthropic.com",
		APIVersion:  "2023-06-01",
		Model:       "claude-3-7-sonnet-20250219",
		MaxTokens:   4000,
		Temperature: 0.7,
		Timeout:     120 * time.Second,
	}
}

// DefaultOutputConfig returns the default export settings.
func DefaultOutputConfig() OutputConfig {
	return OutputConfig{
		Dir:       "generated_objects",
		Overwrite: false,
	}
}

// DefaultLogConfig returns the default logging settings.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "console",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: true,
	}
}
