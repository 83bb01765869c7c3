package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServices(t *testing.T) {
	t.Run("single service", func(t *testing.T) {
		services, err := ParseServices("http")
		require.NoError(t, err)
		assert.True(t, services[ServiceModeHTTP])
		assert.False(t, services[ServiceModeBaseWorker])
	})

	t.Run("multiple services with whitespace", func(t *testing.T) {
		services, err := ParseServices(" http , email-worker ,base-worker")
		require.NoError(t, err)
		assert.True(t, services[ServiceModeHTTP])
		assert.True(t, services[ServiceModeBaseWorker])
		assert.True(t, services[ServiceModeEmailWorker])
	})

	t.Run("empty string", func(t *testing.T) {
		_, err := ParseServices("")
		assert.Error(t, err)
	})

	t.Run("only separators", func(t *testing.T) {
		_, err := ParseServices(",,")
		assert.Error(t, err)
	})

	t.Run("invalid service name", func(t *testing.T) {
		_, err := ParseServices("http,scheduler")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "scheduler")
		assert.Contains(t, err.Error(), "valid options")
	})
}

func TestServiceFlags(t *testing.T) {
	cfg := AppConfig{Services: "http,email-worker"}
	assert.True(t, cfg.IsHTTPServerEnabled())
	assert.False(t, cfg.IsBaseWorkerEnabled())
	assert.True(t, cfg.IsEmailWorkerEnabled())

	broken := AppConfig{Services: "nope"}
	assert.False(t, broken.IsHTTPServerEnabled())
}

func TestSanitizeQueueDatabases(t *testing.T) {
	t.Run("unset databases pick up the reserved ones", func(t *testing.T) {
		cfg := AppConfig{Services: "http"}
		cfg.Sanitize()
		assert.Equal(t, BaseQueueRedisDB, cfg.BaseQueue.DB)
		assert.Equal(t, EmailQueueRedisDB, cfg.EmailQueue.DB)
	})

	t.Run("explicit databases are kept", func(t *testing.T) {
		cfg := AppConfig{Services: "http"}
		cfg.BaseQueue.DB = 5
		cfg.EmailQueue.DB = 6
		cfg.Sanitize()
		assert.Equal(t, 5, cfg.BaseQueue.DB)
		assert.Equal(t, 6, cfg.EmailQueue.DB)
	})
}

func TestWorkerConfigSanitize(t *testing.T) {
	w := WorkerConfig{Concurrency: -2, PopTimeout: 0}
	w.Sanitize()
	assert.Equal(t, 1, w.Concurrency)
	assert.Equal(t, 5*time.Second, w.PopTimeout)

	kept := WorkerConfig{Concurrency: 4, PopTimeout: time.Second}
	kept.Sanitize()
	assert.Equal(t, 4, kept.Concurrency)
	assert.Equal(t, time.Second, kept.PopTimeout)
}

func TestCleanupConfigSanitize(t *testing.T) {
	c := CleanupConfig{RetentionDays: 0}
	c.Sanitize()
	assert.Equal(t, 1, c.RetentionDays)
}

func TestObservabilityMetricsSanitize(t *testing.T) {
	t.Run("blank address disables metrics", func(t *testing.T) {
		m := ObservabilityMetricsConfig{Enabled: true, StatsdAddress: "   "}
		m.Sanitize()
		assert.False(t, m.IsEnabled())
	})

	t.Run("enabled with an address stays enabled", func(t *testing.T) {
		m := ObservabilityMetricsConfig{Enabled: true, StatsdAddress: "127.0.0.1:8125"}
		m.Sanitize()
		assert.True(t, m.IsEnabled())
	})
}

func TestDetectDevMode(t *testing.T) {
	t.Run("DEV flag wins", func(t *testing.T) {
		cfg := AppConfig{IsDev: true, Services: "http"}
		cfg.Sanitize()
		assert.True(t, cfg.IsDev)
	})

	t.Run("APP_ENV fallback", func(t *testing.T) {
		t.Setenv("APP_ENV", "development")
		cfg := AppConfig{Services: "http"}
		cfg.Sanitize()
		assert.True(t, cfg.IsDev)
	})
}
