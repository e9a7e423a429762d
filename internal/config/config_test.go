package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USER", "cost")
	t.Setenv("DB_NAME", "costchecker")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8000", cfg.Port)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, SessionBackendRedis, cfg.Session.Backend)
	assert.Equal(t, 5*time.Minute, cfg.Session.TTL)
	assert.Equal(t, time.Minute, cfg.Session.SweepInterval)
	assert.Equal(t, 3*time.Second, cfg.DeepSeek.Timeout)
	assert.Equal(t, "deepseek-chat", cfg.DeepSeek.Model)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 5.0, cfg.RateLimit.RPS)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SESSION_BACKEND", "Memory")
	t.Setenv("SESSION_TTL", "90s")
	t.Setenv("EXTRACTOR_TIMEOUT", "500ms")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("QUERY_RATE_LIMIT", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, SessionBackendMemory, cfg.Session.Backend)
	assert.Equal(t, 90*time.Second, cfg.Session.TTL)
	assert.Equal(t, 500*time.Millisecond, cfg.DeepSeek.Timeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Zero(t, cfg.RateLimit.RPS)
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		msg  string
	}{
		{"missing db", map[string]string{"DB_HOST": ""}, "DB_HOST"},
		{"missing jwt", map[string]string{"JWT_SECRET": ""}, "JWT_SECRET"},
		{"bad backend", map[string]string{"SESSION_BACKEND": "disk"}, "SESSION_BACKEND"},
		{"bad ttl", map[string]string{"SESSION_TTL": "soon"}, "SESSION_TTL"},
		{"zero ttl", map[string]string{"SESSION_TTL": "0s"}, "SESSION_TTL"},
		{"bad rate", map[string]string{"QUERY_RATE_LIMIT": "fast"}, "QUERY_RATE_LIMIT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}
