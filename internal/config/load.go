package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// loadEnvFile loads environment variables from the first .env file
// found. Existing process variables are never overwritten.
func loadEnvFile() {
	for _, name := range []string{".env", ".env.local"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to load %s: %v\n", name, err)
			continue
		}
		fmt.Fprintf(os.Stderr, "Loaded environment variables from %s\n", name)
		return
	}
}

// Load reads a configuration file, expands environment variables in
// its content, applies defaults and validates the result.
func Load(path string) (*Config, error) {
	loadEnvFile()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Version > 1 {
		return nil, fmt.Errorf("unsupported configuration version %d (expected 1)", cfg.Version)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields with production defaults. The fetch
// user agent stays empty on purpose: an empty value sends no
// User-Agent header at all.
func (c *Config) ApplyDefaults() {
	if c.Manifest == "" {
		c.Manifest = "resources.yaml"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	if c.Fetch.RequestTimeout == "" {
		c.Fetch.RequestTimeout = "10s"
	}
	if c.Fetch.MaxRedirects == 0 {
		c.Fetch.MaxRedirects = 3
	}
	if c.Fetch.MaxConcurrent == 0 {
		c.Fetch.MaxConcurrent = 10
	}
	if c.Fetch.RateLimitDelay == "" {
		c.Fetch.RateLimitDelay = "100ms"
	}

	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.Path == "" {
		c.Cache.Path = "./docfetch-cache.db"
	}
	if c.Cache.TTL == "" {
		c.Cache.TTL = "24h"
	}
	if c.Cache.FailureTTL == "" {
		c.Cache.FailureTTL = "1h"
	}
	if c.Cache.NATS.URL == "" {
		c.Cache.NATS.URL = "nats://localhost:4222"
	}
	if c.Cache.NATS.Bucket == "" {
		c.Cache.NATS.Bucket = "docfetch-cache"
	}

	if c.Reporting.Severity == "" {
		c.Reporting.Severity = "error"
	}
	if c.Reporting.NATS.URL == "" {
		c.Reporting.NATS.URL = "nats://localhost:4222"
	}
	if c.Reporting.NATS.Subject == "" {
		c.Reporting.NATS.Subject = "docfetch.fetch.failed"
	}

	if c.Daemon.AdminAddr == "" {
		c.Daemon.AdminAddr = ":8082"
	}
	if c.Daemon.RefreshInterval == "" {
		c.Daemon.RefreshInterval = "15m"
	}
	if c.Daemon.DebounceDelay == "" {
		c.Daemon.DebounceDelay = "2s"
	}
}

// Validate rejects configurations that would misbehave at runtime.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "", "memory", "sqlite", "nats":
	default:
		return fmt.Errorf("unknown cache backend %q (expected memory, sqlite or nats)", c.Cache.Backend)
	}
	if c.Cache.Backend == "sqlite" && c.Cache.Path == "" {
		return fmt.Errorf("cache backend sqlite requires cache.path")
	}

	durations := []struct {
		name  string
		value string
	}{
		{"fetch.request_timeout", c.Fetch.RequestTimeout},
		{"fetch.rate_limit_delay", c.Fetch.RateLimitDelay},
		{"cache.ttl", c.Cache.TTL},
		{"cache.failure_ttl", c.Cache.FailureTTL},
		{"daemon.refresh_interval", c.Daemon.RefreshInterval},
		{"daemon.debounce_delay", c.Daemon.DebounceDelay},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		if _, err := time.ParseDuration(d.value); err != nil {
			return fmt.Errorf("invalid duration for %s: %w", d.name, err)
		}
	}

	if c.Fetch.MaxConcurrent < 0 {
		return fmt.Errorf("fetch.max_concurrent must not be negative")
	}
	if c.Fetch.MaxRedirects < 0 {
		return fmt.Errorf("fetch.max_redirects must not be negative")
	}

	switch strings.ToLower(strings.TrimSpace(c.Reporting.Severity)) {
	case "", "info", "warning", "error":
	default:
		return fmt.Errorf("unknown reporting severity %q (expected info, warning or error)", c.Reporting.Severity)
	}

	return nil
}
