// Package config loads and validates the docfetch configuration file.
package config

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Config is the root configuration for all docfetch modes.
type Config struct {
	Version   int             `yaml:"version,omitempty"`
	Manifest  string          `yaml:"manifest,omitempty"`
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
	Fetch     FetchConfig     `yaml:"fetch,omitempty"`
	Cache     CacheConfig     `yaml:"cache,omitempty"`
	Reporting ReportingConfig `yaml:"reporting,omitempty"`
	Metrics   MetricsConfig   `yaml:"metrics,omitempty"`
	Daemon    DaemonConfig    `yaml:"daemon,omitempty"`
}

// LoggingConfig selects the slog handler installed at startup.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug|info|warn|error
	Format string `yaml:"format,omitempty"` // text|json|pretty
}

// SlogLevel maps the configured level to slog. Unrecognized values
// fall back to info.
func (l LoggingConfig) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(l.Level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// FetchConfig tunes the outbound HTTP client and request pacing.
type FetchConfig struct {
	UserAgent       string `yaml:"user_agent,omitempty"` // Empty sends no User-Agent header
	RequestTimeout  string `yaml:"request_timeout,omitempty"`
	FollowRedirects *bool  `yaml:"follow_redirects,omitempty"`
	MaxRedirects    int    `yaml:"max_redirects,omitempty"`
	MaxConcurrent   int    `yaml:"max_concurrent,omitempty"`
	RateLimitDelay  string `yaml:"rate_limit_delay,omitempty"`
}

// RequestTimeoutDuration parses the request timeout, defaulting to 10s.
func (f FetchConfig) RequestTimeoutDuration() time.Duration {
	return parseDurationOr(f.RequestTimeout, 10*time.Second)
}

// RateLimitDelayDuration parses the delay between request starts.
// Zero disables pacing.
func (f FetchConfig) RateLimitDelayDuration() time.Duration {
	return parseDurationOr(f.RateLimitDelay, 0)
}

// FollowRedirectsEnabled reports whether redirects are followed.
// Unset means enabled.
func (f FetchConfig) FollowRedirectsEnabled() bool {
	return f.FollowRedirects == nil || *f.FollowRedirects
}

// HTTPClient builds the http.Client the fetcher uses: request timeout,
// proxy-aware transport and the configured redirect policy.
func (f FetchConfig) HTTPClient() *http.Client {
	// Cloning the default transport keeps HTTP_PROXY/HTTPS_PROXY/NO_PROXY support
	transport := http.DefaultTransport.(*http.Transport).Clone()

	return &http.Client{
		Timeout:   f.RequestTimeoutDuration(),
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if !f.FollowRedirectsEnabled() {
				return http.ErrUseLastResponse
			}
			if len(via) >= f.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", f.MaxRedirects)
			}
			return nil
		},
	}
}

// CacheConfig selects the cache backend and freshness windows.
type CacheConfig struct {
	Backend    string          `yaml:"backend,omitempty"` // memory|sqlite|nats
	Path       string          `yaml:"path,omitempty"`    // sqlite database file
	TTL        string          `yaml:"ttl,omitempty"`
	FailureTTL string          `yaml:"failure_ttl,omitempty"`
	NATS       CacheNATSConfig `yaml:"nats,omitempty"`
}

// CacheNATSConfig points the nats backend at its JetStream bucket.
type CacheNATSConfig struct {
	URL    string `yaml:"url,omitempty"`
	Bucket string `yaml:"bucket,omitempty"`
}

// TTLDuration parses the success freshness window, defaulting to 24h.
func (c CacheConfig) TTLDuration() time.Duration {
	return parseDurationOr(c.TTL, 24*time.Hour)
}

// FailureTTLDuration parses the failure freshness window, defaulting to 1h.
func (c CacheConfig) FailureTTLDuration() time.Duration {
	return parseDurationOr(c.FailureTTL, time.Hour)
}

// ReportingConfig controls where fetch failures are published.
type ReportingConfig struct {
	Severity string              `yaml:"severity,omitempty"` // info|warning|error
	Log      *bool               `yaml:"log,omitempty"`
	NATS     ReportingNATSConfig `yaml:"nats,omitempty"`
}

// ReportingNATSConfig publishes issue events to a NATS subject.
type ReportingNATSConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// LogEnabled reports whether issues are logged. Unset means enabled.
func (r ReportingConfig) LogEnabled() bool {
	return r.Log == nil || *r.Log
}

// MetricsConfig toggles Prometheus collection and exposition.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled,omitempty"`
}

// DaemonConfig tunes continuous mode.
type DaemonConfig struct {
	AdminAddr       string `yaml:"admin_addr,omitempty"`
	RefreshInterval string `yaml:"refresh_interval,omitempty"`
	Watch           *bool  `yaml:"watch,omitempty"`
	DebounceDelay   string `yaml:"debounce_delay,omitempty"`
}

// RefreshIntervalDuration parses the periodic refresh interval,
// defaulting to 15m.
func (d DaemonConfig) RefreshIntervalDuration() time.Duration {
	return parseDurationOr(d.RefreshInterval, 15*time.Minute)
}

// WatchEnabled reports whether the manifest watcher runs. Unset means
// enabled.
func (d DaemonConfig) WatchEnabled() bool {
	return d.Watch == nil || *d.Watch
}

// DebounceDelayDuration parses the watcher debounce delay, defaulting
// to 2s.
func (d DaemonConfig) DebounceDelayDuration() time.Duration {
	return parseDurationOr(d.DebounceDelay, 2*time.Second)
}

// parseDurationOr parses a duration string, falling back when empty or
// invalid. Validate surfaces invalid strings; the accessors stay total.
func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
