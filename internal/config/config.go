package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything the CLI binaries need to reach and drive the
// analysis service.
type Config struct {
	ServerURL       string `yaml:"server_url"`
	CacheDir        string `yaml:"cache_dir"`
	PollInterval    int    `yaml:"poll_interval_seconds"`
	PollMaxFailures int    `yaml:"poll_max_failures"`
	RequestTimeout  int    `yaml:"request_timeout_seconds"`
}

func defaultConfig() *Config {
	return &Config{
		ServerURL:       "http://localhost:8000",
		CacheDir:        os.TempDir(),
		PollInterval:    3,
		PollMaxFailures: 5,
		RequestTimeout:  120,
	}
}

// Load builds the effective configuration: code defaults, overridden by
// the yaml file at path (if it exists), overridden by PIISCAN_* env vars.
// An empty path skips the file step.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PIISCAN_SERVER_URL"); v != "" {
		c.ServerURL = v
	}
	if v := os.Getenv("PIISCAN_CACHE_DIR"); v != "" {
		c.CacheDir = v
	}
	if v := os.Getenv("PIISCAN_POLL_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PollInterval = n
		}
	}
	if v := os.Getenv("PIISCAN_POLL_MAX_FAILURES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PollMaxFailures = n
		}
	}
	if v := os.Getenv("PIISCAN_REQUEST_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RequestTimeout = n
		}
	}
}

func (c *Config) validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server_url must not be empty")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval_seconds must be positive, got %d", c.PollInterval)
	}
	if c.PollMaxFailures <= 0 {
		return fmt.Errorf("poll_max_failures must be positive, got %d", c.PollMaxFailures)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout_seconds must be positive, got %d", c.RequestTimeout)
	}
	return nil
}

// PollIntervalDuration returns the poll interval as a time.Duration.
func (c *Config) PollIntervalDuration() time.Duration {
	return time.Duration(c.PollInterval) * time.Second
}

// RequestTimeoutDuration returns the request timeout as a time.Duration.
func (c *Config) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}
