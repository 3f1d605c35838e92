package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Init writes an example configuration file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}

	follow := true
	logIssues := true
	watch := true
	example := Config{
		Version:  1,
		Manifest: "resources.yaml",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Fetch: FetchConfig{
			UserAgent:       "docfetch/1.0",
			RequestTimeout:  "10s",
			FollowRedirects: &follow,
			MaxRedirects:    3,
			MaxConcurrent:   10,
			RateLimitDelay:  "100ms",
		},
		Cache: CacheConfig{
			Backend:    "sqlite",
			Path:       "./docfetch-cache.db",
			TTL:        "24h",
			FailureTTL: "1h",
			NATS: CacheNATSConfig{
				URL:    "nats://localhost:4222",
				Bucket: "docfetch-cache",
			},
		},
		Reporting: ReportingConfig{
			Severity: "error",
			Log:      &logIssues,
			NATS: ReportingNATSConfig{
				Enabled: false,
				URL:     "nats://localhost:4222",
				Subject: "docfetch.fetch.failed",
			},
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Daemon: DaemonConfig{
			AdminAddr:       ":8082",
			RefreshInterval: "15m",
			Watch:           &watch,
			DebounceDelay:   "2s",
		},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("failed to marshal example config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
