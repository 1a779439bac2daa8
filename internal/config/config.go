// Package config provides configuration loading for sesiond.
//
// Configuration is layered: built-in defaults, then an optional YAML or TOML
// file, then SESIOND_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config holds the complete sesiond configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Observability ObservabilityConfig `koanf:"observability"`
	Generator     GeneratorConfig     `koanf:"generator"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"http_port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`

	// MaxUploadSize bounds the request body in bytes.
	MaxUploadSize int64 `koanf:"max_upload_size"`

	// RateLimit is the sustained requests per second allowed per client IP.
	// Zero disables rate limiting.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`
}

// ObservabilityConfig holds logging and OpenTelemetry configuration.
type ObservabilityConfig struct {
	EnableTelemetry bool   `koanf:"enable_telemetry"`
	ServiceName     string `koanf:"service_name"`
	OTLPEndpoint    string `koanf:"otlp_endpoint"`
	OTLPProtocol    string `koanf:"otlp_protocol"` // grpc or http/protobuf
	OTLPInsecure    bool   `koanf:"otlp_insecure"`
	LogLevel        string `koanf:"log_level"`
	LogFormat       string `koanf:"log_format"`
}

// GeneratorConfig holds document generation settings.
type GeneratorConfig struct {
	// DefaultTemplate is used when a request does not upload a template.
	DefaultTemplate string `koanf:"default_template"`

	// WatchTemplate reloads DefaultTemplate when the file changes.
	WatchTemplate bool `koanf:"watch_template"`

	// TemplateCacheSize is the number of parsed uploads kept in memory.
	TemplateCacheSize int `koanf:"template_cache_size"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

const (
	// DefaultPort is the HTTP port used when none is configured.
	DefaultPort = 5000

	// DefaultMaxUploadSize matches the 16 MiB request limit of the web form.
	DefaultMaxUploadSize = 16 << 20

	// DefaultServiceName identifies the service in logs, traces and /health.
	DefaultServiceName = "sesiond"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "",
			Port:            DefaultPort,
			ShutdownTimeout: Duration(10 * time.Second),
			MaxUploadSize:   DefaultMaxUploadSize,
			RateLimit:       0,
			RateBurst:       20,
		},
		Observability: ObservabilityConfig{
			EnableTelemetry: false,
			ServiceName:     DefaultServiceName,
			OTLPEndpoint:    "localhost:4317",
			OTLPProtocol:    "grpc",
			OTLPInsecure:    true,
			LogLevel:        "info",
			LogFormat:       "json",
		},
		Generator: GeneratorConfig{
			WatchTemplate:     true,
			TemplateCacheSize: 32,
		},
	}
}

// Validate validates the configuration.
//
// Returns an error if:
//   - Server port is not between 1 and 65535
//   - Shutdown timeout or upload limit is not positive
//   - Rate limit is negative, or positive with a burst below 1
//   - Service name is empty
//   - Log format, log level or OTLP protocol is unknown
//   - Template cache size is below 1
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	if c.Server.MaxUploadSize <= 0 {
		return errors.New("max upload size must be positive")
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("rate limit must be >= 0, got %v", c.Server.RateLimit)
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst < 1 {
		return fmt.Errorf("rate burst must be >= 1 when rate limiting, got %d", c.Server.RateBurst)
	}

	if c.Observability.ServiceName == "" {
		return errors.New("service name is required")
	}
	switch c.Observability.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("log format must be 'json' or 'console', got %q", c.Observability.LogFormat)
	}
	switch strings.ToLower(c.Observability.LogLevel) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Observability.LogLevel)
	}
	if c.Observability.EnableTelemetry {
		switch c.Observability.OTLPProtocol {
		case "grpc", "http/protobuf":
		default:
			return fmt.Errorf("otlp protocol must be 'grpc' or 'http/protobuf', got %q", c.Observability.OTLPProtocol)
		}
		if c.Observability.OTLPEndpoint == "" {
			return errors.New("otlp endpoint is required when telemetry is enabled")
		}
	}

	if c.Generator.TemplateCacheSize < 1 {
		return fmt.Errorf("template cache size must be >= 1, got %d", c.Generator.TemplateCacheSize)
	}
	return nil
}
