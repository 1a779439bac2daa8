package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, int64(16<<20), cfg.Server.MaxUploadSize)
	assert.Equal(t, DefaultServiceName, cfg.Observability.ServiceName)
	assert.False(t, cfg.Observability.EnableTelemetry)
	assert.Equal(t, 32, cfg.Generator.TemplateCacheSize)
	assert.Equal(t, ":5000", cfg.Server.Addr())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(*Config) {}, ""},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "invalid server port"},
		{"zero shutdown timeout", func(c *Config) { c.Server.ShutdownTimeout = 0 }, "shutdown timeout"},
		{"zero upload size", func(c *Config) { c.Server.MaxUploadSize = 0 }, "max upload size"},
		{"negative rate", func(c *Config) { c.Server.RateLimit = -1 }, "rate limit"},
		{"rate without burst", func(c *Config) { c.Server.RateLimit = 5; c.Server.RateBurst = 0 }, "rate burst"},
		{"empty service name", func(c *Config) { c.Observability.ServiceName = "" }, "service name"},
		{"bad log format", func(c *Config) { c.Observability.LogFormat = "xml" }, "log format"},
		{"bad log level", func(c *Config) { c.Observability.LogLevel = "loud" }, "log level"},
		{"bad protocol with telemetry", func(c *Config) {
			c.Observability.EnableTelemetry = true
			c.Observability.OTLPProtocol = "udp"
		}, "otlp protocol"},
		{"bad protocol without telemetry", func(c *Config) { c.Observability.OTLPProtocol = "udp" }, ""},
		{"missing endpoint", func(c *Config) {
			c.Observability.EnableTelemetry = true
			c.Observability.OTLPEndpoint = ""
		}, "otlp endpoint"},
		{"zero cache", func(c *Config) { c.Generator.TemplateCacheSize = 0 }, "template cache size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.Duration())

	assert.Error(t, d.UnmarshalText([]byte("soon")))
	assert.Error(t, d.UnmarshalText([]byte("-5s")))

	text, err := Duration(2 * time.Second).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2s", string(text))
}
