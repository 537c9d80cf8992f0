// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
//
// The chat completion API key is not part of process configuration: every
// request supplies its own.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Upload     UploadConfig
	Generation GenerationConfig
	Security   SecurityConfig
	Logging    LoggingConfig
	Metrics    MetricsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" envDefault:"0.0.0.0"`

	// Port is the port to listen on (default: 8080). PORT is honoured when
	// SERVER_PORT is unset.
	Port int `env:"SERVER_PORT" envDefault:"8080"`

	// ReadTimeout is the maximum duration for reading the request (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`

	// WriteTimeout is the maximum duration for writing the response (default: 0, AI runs can be long)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 5m)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" envDefault:"5m"`
}

// UploadConfig holds CSV upload settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed upload in bytes (default: 10MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" envDefault:"10485760"`
}

// GenerationConfig holds chat completion and drafting settings.
type GenerationConfig struct {
	// BaseURL is the OpenAI-compatible API root (default: https://api.perplexity.ai)
	BaseURL string `env:"GENERATION_BASE_URL" envDefault:"https://api.perplexity.ai"`

	// Model is the chat model name (default: sonar)
	Model string `env:"GENERATION_MODEL" envDefault:"sonar"`

	// Temperature is the sampling temperature (default: 0.7)
	Temperature float64 `env:"GENERATION_TEMPERATURE" envDefault:"0.7"`

	// MaxTokens caps the length of each draft (default: 800)
	MaxTokens int `env:"GENERATION_MAX_TOKENS" envDefault:"800"`

	// Timeout bounds a single completion call (default: 60s)
	Timeout time.Duration `env:"GENERATION_TIMEOUT" envDefault:"60s"`

	// Workers is the number of concurrent completion calls per run (default: 4)
	Workers int `env:"GENERATION_WORKERS" envDefault:"4"`

	// MaxConcurrentRuns is the number of runs processed at once (default: 2)
	MaxConcurrentRuns int `env:"GENERATION_MAX_CONCURRENT_RUNS" envDefault:"2"`

	// MaxWaitTime is how long a run waits for a free slot (default: 30s)
	MaxWaitTime time.Duration `env:"GENERATION_MAX_WAIT_TIME" envDefault:"30s"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" envDefault:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" envDefault:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	// Enabled mounts the metrics handler (default: true)
	Enabled bool `env:"METRICS_ENABLED" envDefault:"true"`

	// Path is the metrics route (default: /metrics)
	Path string `env:"METRICS_PATH" envDefault:"/metrics"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
