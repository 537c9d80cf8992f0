package config

import (
	"fmt"
	"maps"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Load reads configuration from the process environment, applies defaults
// and validates the result.
func Load() (*Config, error) {
	return LoadFrom(env.ToMap(os.Environ()))
}

// LoadFrom is Load over an explicit environment.
func LoadFrom(environment map[string]string) (*Config, error) {
	environment = maps.Clone(environment)
	if environment == nil {
		environment = map[string]string{}
	}
	if environment["SERVER_PORT"] == "" && environment["PORT"] != "" {
		environment["SERVER_PORT"] = environment["PORT"]
	}

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environment}); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "SERVER_REQUEST_TIMEOUT must be positive")
	}

	// Upload validation
	if c.Upload.MaxFileSize <= 0 {
		errs = append(errs, "UPLOAD_MAX_FILE_SIZE must be positive")
	}

	// Generation validation
	if c.Generation.BaseURL == "" {
		errs = append(errs, "GENERATION_BASE_URL is required")
	}
	if c.Generation.Model == "" {
		errs = append(errs, "GENERATION_MODEL is required")
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		errs = append(errs, fmt.Sprintf("GENERATION_TEMPERATURE (%g) must be 0-2", c.Generation.Temperature))
	}
	if c.Generation.MaxTokens <= 0 {
		errs = append(errs, "GENERATION_MAX_TOKENS must be positive")
	}
	if c.Generation.Timeout <= 0 {
		errs = append(errs, "GENERATION_TIMEOUT must be positive")
	}
	if c.Generation.Workers <= 0 {
		errs = append(errs, "GENERATION_WORKERS must be positive")
	}
	if c.Generation.MaxConcurrentRuns <= 0 {
		errs = append(errs, "GENERATION_MAX_CONCURRENT_RUNS must be positive")
	}
	if c.Generation.MaxWaitTime <= 0 {
		errs = append(errs, "GENERATION_MAX_WAIT_TIME must be positive")
	}

	// Metrics validation
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, fmt.Sprintf("METRICS_PATH (%q) must start with /", c.Metrics.Path))
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a log-safe summary of the config.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port)
	fmt.Fprintf(&b, "Upload: {MaxFileSize: %d}, ", c.Upload.MaxFileSize)
	fmt.Fprintf(&b, "Generation: {BaseURL: %q, Model: %q, Workers: %d, MaxConcurrentRuns: %d}, ",
		c.Generation.BaseURL, c.Generation.Model, c.Generation.Workers, c.Generation.MaxConcurrentRuns)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}
