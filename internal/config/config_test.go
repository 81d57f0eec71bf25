package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8000", cfg.APIBaseURL)
	assert.Equal(t, time.Duration(0), cfg.APITimeout)
	assert.Equal(t, "log", cfg.NotifyBackend)
	assert.Equal(t, 120, cfg.RateLimitPerMin)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://backend:9000")
	t.Setenv("API_TIMEOUT", "5s")
	t.Setenv("NOTIFY_BACKEND", "REDIS")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://backend:9000", cfg.APIBaseURL)
	assert.Equal(t, 5*time.Second, cfg.APITimeout)
	assert.Equal(t, "redis", cfg.NotifyBackend)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "teacherdesk.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_base_url: http://from-file:8000\nhttp_port: \"9999\"\n"), 0o644))
	t.Setenv("HTTP_PORT", "7000")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://from-file:8000", cfg.APIBaseURL)
	assert.Equal(t, "7000", cfg.HTTPPort)
}

func TestLoad_InvalidBackend(t *testing.T) {
	t.Setenv("NOTIFY_BACKEND", "kafka")

	_, err := Load("")
	assert.ErrorContains(t, err, "NOTIFY_BACKEND")
}
