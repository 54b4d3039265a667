package lifecycle

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config defines coordinator, recovery, and advisor parameters.
//
// Conservative defaults prioritize stability: a small bounded retry budget,
// exponential backoff between attempts, and an advisor tick slow enough to
// avoid battery cost of its own.
type Config struct {
	// Retry budget
	RetryMaxAttempts    int           // automatic attempts per error kind (default: 3)
	RetryWindow         time.Duration // rolling budget window (default: 60s)
	InitialRetryBackoff time.Duration // first retry delay (default: 500ms)
	MaxRetryBackoff     time.Duration // retry delay ceiling (default: 10s)

	// Resource advisor
	AdvisorInterval         time.Duration // evaluation tick while connected (default: 10s)
	BatteryThresholdPercent int           // suggest downgrade below this, not charging (default: 20)
	MemoryThresholdBytes    uint64        // suggest downgrade below this (default: 100 MiB)

	// Audit log
	AuditLogCapacity int // retained action entries (default: 128)

	// Logging
	LogLevel string // logrus level name (default: "info")
}

// DefaultConfig returns configuration with conservative defaults.
func DefaultConfig() *Config {
	return &Config{
		RetryMaxAttempts:    3,
		RetryWindow:         60 * time.Second,
		InitialRetryBackoff: 500 * time.Millisecond,
		MaxRetryBackoff:     10 * time.Second,

		AdvisorInterval:         10 * time.Second,
		BatteryThresholdPercent: 20,
		MemoryThresholdBytes:    100 * 1024 * 1024,

		AuditLogCapacity: 128,

		LogLevel: "info",
	}
}

// Validate reports the first invalid field, if any.
func (c *Config) Validate() error {
	if c.RetryMaxAttempts < 1 {
		return fmt.Errorf("retryMaxAttempts must be >= 1, got %d", c.RetryMaxAttempts)
	}
	if c.RetryWindow <= 0 {
		return fmt.Errorf("retryWindow must be positive, got %v", c.RetryWindow)
	}
	if c.InitialRetryBackoff <= 0 {
		return fmt.Errorf("initialRetryBackoff must be positive, got %v", c.InitialRetryBackoff)
	}
	if c.MaxRetryBackoff < c.InitialRetryBackoff {
		return fmt.Errorf("maxRetryBackoff %v below initialRetryBackoff %v", c.MaxRetryBackoff, c.InitialRetryBackoff)
	}
	if c.AdvisorInterval <= 0 {
		return fmt.Errorf("advisorInterval must be positive, got %v", c.AdvisorInterval)
	}
	if c.BatteryThresholdPercent < 0 || c.BatteryThresholdPercent > 100 {
		return fmt.Errorf("batteryThresholdPercent out of range: %d", c.BatteryThresholdPercent)
	}
	if c.AuditLogCapacity < 1 {
		return fmt.Errorf("auditLogCapacity must be >= 1, got %d", c.AuditLogCapacity)
	}
	if c.LogLevel != "" {
		if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("invalid logLevel %q: %w", c.LogLevel, err)
		}
	}
	return nil
}

// fileConfig is the YAML representation. Durations are strings ("10s")
// parsed with time.ParseDuration; zero values mean "keep the default".
type fileConfig struct {
	RetryMaxAttempts    int    `yaml:"retryMaxAttempts,omitempty"`
	RetryWindow         string `yaml:"retryWindow,omitempty"`
	InitialRetryBackoff string `yaml:"initialRetryBackoff,omitempty"`
	MaxRetryBackoff     string `yaml:"maxRetryBackoff,omitempty"`

	AdvisorInterval         string `yaml:"advisorInterval,omitempty"`
	BatteryThresholdPercent *int   `yaml:"batteryThresholdPercent,omitempty"`
	MemoryThresholdMB       uint64 `yaml:"memoryThresholdMB,omitempty"`

	AuditLogCapacity int    `yaml:"auditLogCapacity,omitempty"`
	LogLevel         string `yaml:"logLevel,omitempty"`
}

// LoadConfig reads a YAML file and overlays it onto DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := DefaultConfig()
	if fc.RetryMaxAttempts != 0 {
		cfg.RetryMaxAttempts = fc.RetryMaxAttempts
	}
	if err := overlayDuration(&cfg.RetryWindow, fc.RetryWindow, "retryWindow"); err != nil {
		return nil, err
	}
	if err := overlayDuration(&cfg.InitialRetryBackoff, fc.InitialRetryBackoff, "initialRetryBackoff"); err != nil {
		return nil, err
	}
	if err := overlayDuration(&cfg.MaxRetryBackoff, fc.MaxRetryBackoff, "maxRetryBackoff"); err != nil {
		return nil, err
	}
	if err := overlayDuration(&cfg.AdvisorInterval, fc.AdvisorInterval, "advisorInterval"); err != nil {
		return nil, err
	}
	if fc.BatteryThresholdPercent != nil {
		cfg.BatteryThresholdPercent = *fc.BatteryThresholdPercent
	}
	if fc.MemoryThresholdMB != 0 {
		cfg.MemoryThresholdBytes = fc.MemoryThresholdMB * 1024 * 1024
	}
	if fc.AuditLogCapacity != 0 {
		cfg.AuditLogCapacity = fc.AuditLogCapacity
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function": "LoadConfig",
		"path":     path,
	}).Info("Configuration loaded")

	return cfg, nil
}

// overlayDuration parses raw into dst when raw is non-empty.
func overlayDuration(dst *time.Duration, raw, field string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", field, raw, err)
	}
	*dst = d
	return nil
}
