package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Address         string        `yaml:"address"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Bitrate struct {
		UpgradeBufferHealth    float64 `yaml:"upgrade_buffer_health"`
		DowngradeRebufferRatio float64 `yaml:"downgrade_rebuffer_ratio"`
	} `yaml:"bitrate"`

	Memory struct {
		PollInterval  time.Duration `yaml:"poll_interval"`
		WarningRatio  float64       `yaml:"warning_ratio"`
		CriticalRatio float64       `yaml:"critical_ratio"`
	} `yaml:"memory"`

	Network struct {
		// EWMA thresholds in Mbps; quality is Poor below Fair, and so on.
		FairMbps      float64 `yaml:"fair_mbps"`
		GoodMbps      float64 `yaml:"good_mbps"`
		ExcellentMbps float64 `yaml:"excellent_mbps"`
		Smoothing     float64 `yaml:"smoothing"`
	} `yaml:"network"`

	Preload struct {
		StartsPerSecond float64       `yaml:"starts_per_second"`
		Burst           int           `yaml:"burst"`
		RetryAttempts   int           `yaml:"retry_attempts"`
		CacheTTL        time.Duration `yaml:"cache_ttl"`
	} `yaml:"preload"`

	Alerts struct {
		// "default" or "strict_streaming"
		Profile string `yaml:"profile"`
	} `yaml:"alerts"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Tracing struct {
		Enabled     bool    `yaml:"enabled"`
		JaegerURL   string  `yaml:"jaeger_url"`
		Environment string  `yaml:"environment"`
		SampleRate  float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Auth struct {
		Enabled   bool   `yaml:"enabled"`
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
}

// Validate checks that configuration values are within acceptable ranges.
// Threshold misconfiguration is rejected here, before anything is built.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be > 0")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be > 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0")
	}

	if c.Bitrate.UpgradeBufferHealth < 0 || c.Bitrate.UpgradeBufferHealth > 1 {
		return fmt.Errorf("bitrate.upgrade_buffer_health must be within [0,1]")
	}
	if c.Bitrate.DowngradeRebufferRatio < 0 || c.Bitrate.DowngradeRebufferRatio > 1 {
		return fmt.Errorf("bitrate.downgrade_rebuffer_ratio must be within [0,1]")
	}

	if c.Memory.PollInterval <= 0 {
		return fmt.Errorf("memory.poll_interval must be > 0")
	}
	if c.Memory.WarningRatio <= 0 || c.Memory.WarningRatio >= 1 {
		return fmt.Errorf("memory.warning_ratio must be within (0,1)")
	}
	if c.Memory.CriticalRatio <= 0 || c.Memory.CriticalRatio >= 1 {
		return fmt.Errorf("memory.critical_ratio must be within (0,1)")
	}
	if c.Memory.WarningRatio >= c.Memory.CriticalRatio {
		return fmt.Errorf("memory.warning_ratio must be < memory.critical_ratio")
	}

	if c.Network.FairMbps <= 0 || c.Network.GoodMbps <= c.Network.FairMbps || c.Network.ExcellentMbps <= c.Network.GoodMbps {
		return fmt.Errorf("network thresholds must satisfy 0 < fair < good < excellent")
	}
	if c.Network.Smoothing <= 0 || c.Network.Smoothing > 1 {
		return fmt.Errorf("network.smoothing must be within (0,1]")
	}

	if c.Preload.StartsPerSecond <= 0 {
		return fmt.Errorf("preload.starts_per_second must be > 0")
	}
	if c.Preload.Burst <= 0 {
		return fmt.Errorf("preload.burst must be > 0")
	}
	if c.Preload.RetryAttempts < 0 {
		return fmt.Errorf("preload.retry_attempts must be >= 0")
	}
	if c.Preload.CacheTTL <= 0 {
		return fmt.Errorf("preload.cache_ttl must be > 0")
	}

	if c.Alerts.Profile != "default" && c.Alerts.Profile != "strict_streaming" {
		return fmt.Errorf("alerts.profile must be \"default\" or \"strict_streaming\"")
	}

	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort <= 0 {
		return fmt.Errorf("monitoring.prometheus_port must be > 0 when prometheus_enabled=true")
	}

	if c.Tracing.Enabled {
		if c.Tracing.JaegerURL == "" {
			return fmt.Errorf("tracing.jaeger_url must not be empty when tracing.enabled=true")
		}
		if c.Tracing.SampleRate <= 0 || c.Tracing.SampleRate > 1 {
			return fmt.Errorf("tracing.sample_rate must be within (0,1]")
		}
	}

	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	if c.Redis.Enabled && c.Redis.Address == "" {
		return fmt.Errorf("redis.address must not be empty when redis.enabled=true")
	}

	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret must not be empty when auth.enabled=true")
	}

	return nil
}

// Load reads configuration from a YAML file, applies defaults and env
// overrides, and validates the result.
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Server.Address = ":8080"
	cfg.Server.ReadTimeout = 30 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Server.ShutdownTimeout = 30 * time.Second

	cfg.Bitrate.UpgradeBufferHealth = 0.7
	cfg.Bitrate.DowngradeRebufferRatio = 0.05

	cfg.Memory.PollInterval = 5 * time.Second
	cfg.Memory.WarningRatio = 0.70
	cfg.Memory.CriticalRatio = 0.85

	cfg.Network.FairMbps = 0.5
	cfg.Network.GoodMbps = 2.0
	cfg.Network.ExcellentMbps = 8.0
	cfg.Network.Smoothing = 0.3

	cfg.Preload.StartsPerSecond = 2
	cfg.Preload.Burst = 4
	cfg.Preload.RetryAttempts = 2
	cfg.Preload.CacheTTL = 10 * time.Minute

	cfg.Alerts.Profile = "default"

	cfg.Monitoring.PrometheusEnabled = true
	cfg.Monitoring.PrometheusPort = 9090

	cfg.Tracing.Enabled = false
	cfg.Tracing.JaegerURL = "http://localhost:14268/api/traces"
	cfg.Tracing.Environment = "development"
	cfg.Tracing.SampleRate = 1.0

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	cfg.Redis.Enabled = false
	cfg.Redis.Address = "localhost:6379"

	cfg.Auth.Enabled = false
	cfg.Auth.JWTSecret = ""

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("PLAYCORE_SERVER_ADDRESS"); addr != "" {
		c.Server.Address = addr
	}
	if level := os.Getenv("PLAYCORE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if secret := os.Getenv("PLAYCORE_JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}
	if addr := os.Getenv("PLAYCORE_REDIS_ADDRESS"); addr != "" {
		c.Redis.Address = addr
	}
}
