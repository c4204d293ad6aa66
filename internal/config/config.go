// Package config loads campaignd daemon configuration from YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds daemon configuration.
type Config struct {
	// ListenAddr is the control plane bind address.
	ListenAddr string `yaml:"listen_addr"`
	// DBPath is the sqlite database location. Empty means ~/.campaignd/campaignd.db.
	DBPath string `yaml:"db_path"`
	// LogLevel is the zap level: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	Backend BackendConfig `yaml:"backend"`
	Monitor MonitorConfig `yaml:"monitor"`
}

// BackendConfig tunes the project backend adapter.
type BackendConfig struct {
	// RateIntervalMS is the minimum spacing between backend call starts.
	RateIntervalMS int `yaml:"rate_interval_ms"`
	// MaxAttempts bounds retries for transient backend failures.
	MaxAttempts int `yaml:"max_attempts"`
	// BaseDelayMS is the first retry delay.
	BaseDelayMS int `yaml:"base_delay_ms"`
	// Multiplier grows the delay between attempts.
	Multiplier float64 `yaml:"multiplier"`
}

// MonitorConfig tunes the monitoring loop.
type MonitorConfig struct {
	// IntervalMin is minutes between monitoring passes.
	IntervalMin int `yaml:"interval_min"`
	// MaxConcurrent bounds how many campaigns a pass inspects at once.
	MaxConcurrent int `yaml:"max_concurrent"`
}

// RateInterval returns the adapter rate gate spacing as a duration.
func (b BackendConfig) RateInterval() time.Duration {
	return time.Duration(b.RateIntervalMS) * time.Millisecond
}

// BaseDelay returns the first retry delay as a duration.
func (b BackendConfig) BaseDelay() time.Duration {
	return time.Duration(b.BaseDelayMS) * time.Millisecond
}

// Interval returns the monitoring cadence as a duration.
func (m MonitorConfig) Interval() time.Duration {
	return time.Duration(m.IntervalMin) * time.Minute
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr: "127.0.0.1:8799",
		LogLevel:   "info",
		Backend: BackendConfig{
			RateIntervalMS: 1000,
			MaxAttempts:    4,
			BaseDelayMS:    500,
			Multiplier:     2.0,
		},
		Monitor: MonitorConfig{
			IntervalMin:   15,
			MaxConcurrent: 4,
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadFromHome loads configuration from ~/.campaignd/config.yaml.
func LoadFromHome() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultConfig(), nil
	}

	path := filepath.Join(home, ".campaignd", "config.yaml")
	return Load(path)
}

// ResolveDBPath returns the configured database path, defaulting under the
// user's home directory.
func (c *Config) ResolveDBPath() (string, error) {
	if c.DBPath != "" {
		return c.DBPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home dir: %w", err)
	}
	dir := filepath.Join(home, ".campaignd")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating data dir: %w", err)
	}
	return filepath.Join(dir, "campaignd.db"), nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Backend.RateIntervalMS < 0 {
		return fmt.Errorf("rate_interval_ms cannot be negative")
	}
	if c.Backend.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1")
	}
	if c.Backend.Multiplier < 1 {
		return fmt.Errorf("multiplier must be at least 1")
	}
	if c.Monitor.IntervalMin < 1 {
		return fmt.Errorf("interval_min must be at least 1")
	}
	if c.Monitor.MaxConcurrent < 1 {
		return fmt.Errorf("max_concurrent must be at least 1")
	}
	return nil
}
