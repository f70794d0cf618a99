package app

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s")
	t.Setenv("CSRF_SECRET", "c")
	t.Setenv("API_BASE_URL", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "http://localhost:5000/api", cfg.APIBaseURL)
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s")
	t.Setenv("CSRF_SECRET", "c")
	t.Setenv("APP_ENV", "production")
	t.Setenv("API_BASE_URL", "https://records.example.com/api")
	t.Setenv("API_TIMEOUT", "5s")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "https://records.example.com/api", cfg.APIBaseURL)
	assert.Equal(t, 5*time.Second, cfg.APITimeout)
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		return Config{SessionSecret: "s", CSRFSecret: "c", APIBaseURL: "http://localhost:5000/api"}
	}
	cases := map[string]func(*Config){
		"missing session secret": func(c *Config) { c.SessionSecret = "" },
		"missing csrf secret":    func(c *Config) { c.CSRFSecret = "" },
		"relative api url":       func(c *Config) { c.APIBaseURL = "/api" },
		"negative rate limit":    func(c *Config) { c.RateLimitPerMinute = -1 },
	}
	base := valid()
	require.NoError(t, base.Validate())
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &Config{LogFormat: "json"})
	logger.Debug("backend call", "outcome", "ok")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "backend call", line["msg"])
	assert.Equal(t, "ok", line["outcome"])

	buf.Reset()
	newLogger(&buf, &Config{AppEnv: "production", LogFormat: "json"}).Debug("hidden")
	assert.Zero(t, buf.Len(), "production drops debug records")
}
