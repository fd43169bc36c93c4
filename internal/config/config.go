// Package config loads k2fovd settings from an optional YAML file and
// K2FOV_* environment variables. Environment variables win.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mrtommyb/K2fov/internal/auth"
	"github.com/mrtommyb/K2fov/internal/fov"
)

// Config is the complete service configuration.
type Config struct {
	Server struct {
		Addr       string `yaml:"addr"`
		LogLevel   string `yaml:"log_level"`
		TrustProxy bool   `yaml:"trust_proxy"`
	} `yaml:"server"`
	Auth struct {
		Enabled bool   `yaml:"enabled"`
		Token   string `yaml:"token"`
	} `yaml:"auth"`
	Batch struct {
		Workers    int `yaml:"workers"`
		MaxTargets int `yaml:"max_targets"`
	} `yaml:"batch"`
	FOV struct {
		Padding        float64 `yaml:"padding"`
		NearSiliconDeg float64 `yaml:"near_silicon_deg"`
	} `yaml:"fov"`
	Campaigns struct {
		SourceURL      string `yaml:"source_url"`
		CacheDir       string `yaml:"cache_dir"`
		MaxFiles       int    `yaml:"max_files"`
		RefreshSeconds int    `yaml:"refresh_seconds"`
	} `yaml:"campaigns"`
}

// Default returns the built-in configuration.
func Default() Config {
	var c Config
	c.Server.Addr = ":8080"
	c.Server.LogLevel = "info"
	c.Batch.Workers = runtime.NumCPU()
	c.Batch.MaxTargets = 100000
	c.FOV.Padding = fov.DefaultPadding
	c.FOV.NearSiliconDeg = fov.DefaultNearSiliconSep
	c.Campaigns.CacheDir = "/tmp/k2fov/campaigns"
	c.Campaigns.MaxFiles = 5
	return c
}

// LoadFile reads a YAML file over the defaults.
func LoadFile(path string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parsing config file: %w", err)
	}
	return c, nil
}

// Load builds the configuration from K2FOV_CONFIG (if set) and the
// environment. Invalid numeric values are logged and ignored; an enabled
// auth config without a token is an error.
func Load(logger *slog.Logger) (Config, error) {
	c := Default()
	if path := os.Getenv("K2FOV_CONFIG"); path != "" {
		var err error
		c, err = LoadFile(path)
		if err != nil {
			return c, err
		}
		logger.Info("loaded config file", "path", path)
	}

	if err := applyEnv(&c, logger); err != nil {
		return c, err
	}
	return c, c.validate()
}

func applyEnv(c *Config, logger *slog.Logger) error {
	if v := os.Getenv("K2FOV_HTTP_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("K2FOV_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}

	if v := os.Getenv("K2FOV_TRUST_PROXY"); v != "" {
		trust, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid K2FOV_TRUST_PROXY value, using default", "value", v, "default", c.Server.TrustProxy)
		} else {
			c.Server.TrustProxy = trust
		}
	}

	if v := os.Getenv("K2FOV_AUTH_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return errors.New("K2FOV_AUTH_ENABLED must be a boolean value (true/false/1/0)")
		}
		c.Auth.Enabled = enabled
	}
	if v := os.Getenv("K2FOV_AUTH_TOKEN"); v != "" {
		c.Auth.Token = v
	}

	if v := os.Getenv("K2FOV_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid K2FOV_WORKERS value, using default", "value", v, "default", c.Batch.Workers)
		} else {
			c.Batch.Workers = n
		}
	}

	if v := os.Getenv("K2FOV_MAX_TARGETS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid K2FOV_MAX_TARGETS value, using default", "value", v, "default", c.Batch.MaxTargets)
		} else {
			c.Batch.MaxTargets = n
		}
	}

	if v := os.Getenv("K2FOV_PADDING"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			logger.Warn("invalid K2FOV_PADDING value, using default", "value", v, "default", c.FOV.Padding)
		} else {
			c.FOV.Padding = p
		}
	}

	if v := os.Getenv("K2FOV_NEAR_SEP"); v != "" {
		d, err := strconv.ParseFloat(v, 64)
		if err != nil || d <= 0 {
			logger.Warn("invalid K2FOV_NEAR_SEP value, using default", "value", v, "default", c.FOV.NearSiliconDeg)
		} else {
			c.FOV.NearSiliconDeg = d
		}
	}

	if v := os.Getenv("K2FOV_CAMPAIGN_URL"); v != "" {
		c.Campaigns.SourceURL = v
	}
	if v := os.Getenv("K2FOV_CAMPAIGN_CACHE_DIR"); v != "" {
		c.Campaigns.CacheDir = v
	}

	if v := os.Getenv("K2FOV_CAMPAIGN_REFRESH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			logger.Warn("invalid K2FOV_CAMPAIGN_REFRESH value, using default", "value", v, "default", c.Campaigns.RefreshSeconds)
		} else {
			c.Campaigns.RefreshSeconds = n
		}
	}
	return nil
}

func (c Config) validate() error {
	if c.Auth.Enabled && c.Auth.Token == "" {
		return errors.New("K2FOV_AUTH_TOKEN is required when auth is enabled")
	}
	if _, err := parseLevel(c.Server.LogLevel); err != nil {
		return err
	}
	return nil
}

// AuthConfig returns the bearer-token settings.
func (c Config) AuthConfig() auth.Config {
	return auth.Config{Enabled: c.Auth.Enabled, Token: c.Auth.Token}
}

// RefreshInterval returns the campaign table refresh period, zero when
// refreshing is disabled.
func (c Config) RefreshInterval() time.Duration {
	if c.Campaigns.SourceURL == "" {
		return 0
	}
	return time.Duration(c.Campaigns.RefreshSeconds) * time.Second
}

// Level returns the configured log level.
func (c Config) Level() slog.Level {
	l, err := parseLevel(c.Server.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}
