package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty address", func(c *Config) { c.Server.Address = "" }},
		{"zero read timeout", func(c *Config) { c.Server.ReadTimeout = 0 }},
		{"upgrade health above one", func(c *Config) { c.Bitrate.UpgradeBufferHealth = 1.2 }},
		{"negative rebuffer ratio", func(c *Config) { c.Bitrate.DowngradeRebufferRatio = -0.1 }},
		{"zero poll interval", func(c *Config) { c.Memory.PollInterval = 0 }},
		{"warning ratio at one", func(c *Config) { c.Memory.WarningRatio = 1 }},
		{"warning not below critical", func(c *Config) { c.Memory.WarningRatio = 0.9 }},
		{"unordered network thresholds", func(c *Config) { c.Network.GoodMbps = 0.1 }},
		{"smoothing above one", func(c *Config) { c.Network.Smoothing = 1.5 }},
		{"zero preload rate", func(c *Config) { c.Preload.StartsPerSecond = 0 }},
		{"zero preload burst", func(c *Config) { c.Preload.Burst = 0 }},
		{"negative retry attempts", func(c *Config) { c.Preload.RetryAttempts = -1 }},
		{"unknown alert profile", func(c *Config) { c.Alerts.Profile = "lenient" }},
		{"prometheus without port", func(c *Config) { c.Monitoring.PrometheusPort = 0 }},
		{"tracing without url", func(c *Config) { c.Tracing.Enabled = true; c.Tracing.JaegerURL = "" }},
		{"redis without address", func(c *Config) { c.Redis.Enabled = true; c.Redis.Address = "" }},
		{"auth without secret", func(c *Config) { c.Auth.Enabled = true; c.Auth.JWTSecret = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 5*time.Second, cfg.Memory.PollInterval)
}

func TestLoad_ReadsYAMLOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("server:\n  address: \":9999\"\nalerts:\n  profile: strict_streaming\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Address)
	assert.Equal(t, "strict_streaming", cfg.Alerts.Profile)
	// Untouched sections keep their defaults.
	assert.Equal(t, 0.70, cfg.Memory.WarningRatio)
}

func TestLoad_InvalidYAMLValuesRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("memory:\n  warning_ratio: 0.9\n  critical_ratio: 0.5\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PLAYCORE_SERVER_ADDRESS", ":7070")
	t.Setenv("PLAYCORE_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Address)
	assert.Equal(t, "debug", cfg.Logging.Level)
}
