package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string, perm os.FileMode) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), perm))
	require.NoError(t, os.Chmod(path, perm))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SESIOND_SERVER_HTTP_PORT", "8081")
	t.Setenv("SESIOND_SERVER_SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("SESIOND_OBSERVABILITY_LOG_LEVEL", "debug")
	t.Setenv("SESIOND_GENERATOR_DEFAULT_TEMPLATE", "/srv/plantilla.docx")
	t.Setenv("SESIOND_GENERATOR_WATCH_TEMPLATE", "false")
	t.Setenv("UNRELATED_SERVER_HTTP_PORT", "1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
	assert.Equal(t, "/srv/plantilla.docx", cfg.Generator.DefaultTemplate)
	assert.False(t, cfg.Generator.WatchTemplate)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("SESIOND_SERVER_HTTP_PORT", "99999")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid server port")
}

func TestLoadWithFile_YAML(t *testing.T) {
	path := writeConfig(t, "sesiond.yaml", `
server:
  http_port: 7000
  max_upload_size: 1048576
  rate_limit: 2.5
observability:
  log_format: console
generator:
  template_cache_size: 4
`, 0o600)

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxUploadSize)
	assert.Equal(t, 2.5, cfg.Server.RateLimit)
	assert.Equal(t, "console", cfg.Observability.LogFormat)
	assert.Equal(t, 4, cfg.Generator.TemplateCacheSize)
	// untouched values keep their defaults
	assert.Equal(t, DefaultServiceName, cfg.Observability.ServiceName)
	assert.Equal(t, 20, cfg.Server.RateBurst)
}

func TestLoadWithFile_TOML(t *testing.T) {
	path := writeConfig(t, "sesiond.toml", `
[server]
http_port = 7001
shutdown_timeout = "2s"

[generator]
default_template = "plantillas/sesion.docx"
`, 0o644)

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, "plantillas/sesion.docx", cfg.Generator.DefaultTemplate)
}

func TestLoadWithFile_EnvBeatsFile(t *testing.T) {
	path := writeConfig(t, "sesiond.yaml", "server:\n  http_port: 7000\n", 0o600)
	t.Setenv("SESIOND_SERVER_HTTP_PORT", "7002")

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, 7002, cfg.Server.Port)
}

func TestLoadWithFile_Errors(t *testing.T) {
	t.Run("unsupported extension", func(t *testing.T) {
		path := writeConfig(t, "sesiond.ini", "port=1", 0o600)
		_, err := LoadWithFile(path)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadWithFile(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("traversal", func(t *testing.T) {
		_, err := LoadWithFile("../../etc/sesiond.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "traversal")
	})

	t.Run("too large", func(t *testing.T) {
		content := "server:\n  host: \"" + strings.Repeat("a", maxConfigFileSize) + "\"\n"
		path := writeConfig(t, "big.yaml", content, 0o600)
		_, err := LoadWithFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too large")
	})

	t.Run("world writable", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("permission bits not enforced on windows")
		}
		path := writeConfig(t, "open.yaml", "server:\n  http_port: 7000\n", 0o666)
		_, err := LoadWithFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "insecure config file permissions")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeConfig(t, "bad.yaml", "server: [", 0o600)
		_, err := LoadWithFile(path)
		assert.Error(t, err)
	})

	t.Run("invalid values", func(t *testing.T) {
		path := writeConfig(t, "bad.toml", "[observability]\nlog_format = \"xml\"\n", 0o600)
		_, err := LoadWithFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "log format")
	})
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"SESIOND_SERVER_HTTP_PORT":             "server.http_port",
		"SESIOND_OBSERVABILITY_SERVICE_NAME":   "observability.service_name",
		"SESIOND_GENERATOR_TEMPLATE_CACHE_SIZE": "generator.template_cache_size",
		"SESIOND_DEBUG":                        "debug",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}

func TestTOMLParser_RoundTrip(t *testing.T) {
	p := TOMLParser()
	out, err := p.Marshal(map[string]interface{}{
		"server": map[string]interface{}{"http_port": 7003},
	})
	require.NoError(t, err)
	assert.Contains(t, string(out), "[server]")

	parsed, err := p.Unmarshal(out)
	require.NoError(t, err)
	server, ok := parsed["server"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, int64(7003), server["http_port"])
}
