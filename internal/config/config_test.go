package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "formwise.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://forms.example.com
  timeout: 3s
cache:
  ttl: 0s
locale: es
log:
  level: debug
  development: true
theme:
  name: acme
  variant: dark
  css_vars:
    --brand: "#123456"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://forms.example.com", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Zero(t, cfg.Cache.TTL)
	assert.Equal(t, "es", cfg.Locale)
	assert.Equal(t, Log{Level: "debug", Development: true}, cfg.Log)
	assert.Equal(t, "#123456", cfg.Theme.CSSVars["--brand"])
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, "api:\n  base_url: https://forms.example.com\n")
	t.Setenv("FORMWISE_API_BASE_URL", "https://staging.example.com")
	t.Setenv("FORMWISE_API_TOKEN", " secret ")
	t.Setenv("FORMWISE_CACHE_TTL", "1m")
	t.Setenv("FORMWISE_LOG_DEVELOPMENT", "true")
	t.Setenv("FORMWISE_THEME_VARIANT", "dark")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://staging.example.com", cfg.API.BaseURL)
	assert.Equal(t, "secret", cfg.API.Token)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.True(t, cfg.Log.Development)
	assert.Equal(t, "dark", cfg.Theme.Variant)
}

func TestInvalidConfig(t *testing.T) {
	t.Run("bad env duration", func(t *testing.T) {
		t.Setenv("FORMWISE_API_TIMEOUT", "soon")
		_, err := Load("")
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("bad values", func(t *testing.T) {
		path := writeConfig(t, "api:\n  base_url: /relative\ncache:\n  ttl: -1s\nlocale: \"not a tag!\"\n")
		_, err := Load(path)
		require.ErrorIs(t, err, ErrInvalidConfig)
		assert.Contains(t, err.Error(), "api.base_url")
		assert.Contains(t, err.Error(), "cache.ttl")
		assert.Contains(t, err.Error(), "locale")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
