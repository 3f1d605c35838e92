package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docfetch/internal/cache"
	"git.home.luguber.info/inful/docfetch/internal/config"
	"git.home.luguber.info/inful/docfetch/internal/fetch"
	"git.home.luguber.info/inful/docfetch/internal/issue"
	"git.home.luguber.info/inful/docfetch/internal/logfields"
	"git.home.luguber.info/inful/docfetch/internal/manifest"
	"git.home.luguber.info/inful/docfetch/internal/metrics"
	"git.home.luguber.info/inful/docfetch/internal/observability"
	"git.home.luguber.info/inful/docfetch/internal/prefetch"
)

// State represents the lifecycle state of the daemon
type State string

const (
	StateStopped  State = "stopped"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateStopping State = "stopping"
	StateError    State = "error"
)

// RunStats summarizes one refresh run for status reporting.
type RunStats struct {
	StartedAt    time.Time `json:"started_at"`
	DurationMS   float64   `json:"duration_ms"`
	Resources    int       `json:"resources"`
	Fetched      int       `json:"fetched"`
	Failed       int       `json:"failed"`
	HardFailures int       `json:"hard_failures"`
	BytesFetched int64     `json:"bytes_fetched"`
	Error        string    `json:"error,omitempty"`
}

// Status is the daemon snapshot served by the admin API.
type Status struct {
	State         State     `json:"state"`
	StartedAt     time.Time `json:"started_at"`
	UptimeSeconds float64   `json:"uptime_seconds"`
	Manifest      string    `json:"manifest"`
	CacheBackend  string    `json:"cache_backend"`
	Runs          int       `json:"runs"`
	LastRun       *RunStats `json:"last_run,omitempty"`
}

// Daemon keeps the fetch cache warm: it runs prefetch passes on a
// schedule and whenever the manifest or its scan sources change.
type Daemon struct {
	config    *config.Config
	state     atomic.Value // State
	startTime time.Time
	stopChan  chan struct{}
	mu        sync.RWMutex

	// Core components
	store     cache.Store
	runner    *prefetch.Runner
	reporter  issue.Reporter
	registry  *prometheus.Registry
	scheduler *Scheduler
	watcher   *ManifestWatcher
	admin     *AdminServer

	// Runtime state
	runCtx   context.Context
	runCount int
	lastRun  *RunStats
}

// New creates a daemon instance and wires its components from
// configuration. The admin listener is not bound until Start.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	d := &Daemon{
		config:   cfg,
		stopChan: make(chan struct{}),
	}
	d.state.Store(StateStopped)

	store, err := cache.Open(cfg.Cache.Backend, cfg.Cache.Path, cfg.Cache.NATS.URL, cfg.Cache.NATS.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache store: %w", err)
	}
	d.store = store

	// Metrics registry only exists when enabled, so the admin server
	// can skip the endpoint otherwise.
	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Metrics.Enabled {
		d.registry = prometheus.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(d.registry)
	}

	reporters := issue.Multi{}
	if cfg.Reporting.LogEnabled() {
		reporters = append(reporters, issue.NewLogReporter(slog.Default()))
	}
	if cfg.Reporting.NATS.Enabled {
		nr, err := issue.NewNATSReporter(cfg.Reporting.NATS.URL, cfg.Reporting.NATS.Subject)
		if err != nil {
			return nil, fmt.Errorf("failed to create NATS issue reporter: %w", err)
		}
		reporters = append(reporters, nr)
	}
	d.reporter = reporters

	client := fetch.NewClient(cfg.Fetch.HTTPClient())
	memo := cache.NewMemo(client, store, cache.Policy{
		TTL:        cfg.Cache.TTLDuration(),
		FailureTTL: cfg.Cache.FailureTTLDuration(),
	}, recorder)

	d.runner = prefetch.NewRunner(memo, d.reporter, recorder, prefetch.Options{
		MaxConcurrent:  cfg.Fetch.MaxConcurrent,
		RateLimitDelay: cfg.Fetch.RateLimitDelayDuration(),
		UserAgent:      cfg.Fetch.UserAgent,
		Severity:       issue.ParseSeverity(cfg.Reporting.Severity),
	})

	scheduler, err := NewScheduler()
	if err != nil {
		return nil, err
	}
	d.scheduler = scheduler

	if cfg.Daemon.WatchEnabled() {
		watcher, err := NewManifestWatcher(cfg.Manifest, cfg.Daemon.DebounceDelayDuration(), d.refresh)
		if err != nil {
			return nil, fmt.Errorf("failed to create manifest watcher: %w", err)
		}
		d.watcher = watcher
	}

	return d, nil
}

// Start starts the daemon components and blocks until the context is
// canceled or Stop is called.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.State() != StateStopped {
		d.mu.Unlock()
		return fmt.Errorf("daemon is not in stopped state: %s", d.State())
	}

	d.state.Store(StateStarting)
	d.startTime = time.Now()
	d.runCtx = ctx

	slog.Info("Starting docfetch daemon",
		logfields.Manifest(d.config.Manifest),
		logfields.Backend(d.config.Cache.Backend),
		slog.String("admin_addr", d.config.Daemon.AdminAddr))

	admin, err := NewAdminServer(d.config.Daemon.AdminAddr, d, d.registry)
	if err != nil {
		d.state.Store(StateError)
		d.mu.Unlock()
		return fmt.Errorf("failed to start admin server: %w", err)
	}
	d.admin = admin
	d.admin.Start()

	d.scheduler.Start(ctx)
	interval := d.config.Daemon.RefreshIntervalDuration()
	if _, err := d.scheduler.ScheduleRefresh(interval, func() { d.refresh(ctx) }); err != nil {
		d.state.Store(StateError)
		d.mu.Unlock()
		return fmt.Errorf("failed to schedule refresh: %w", err)
	}

	if d.watcher != nil {
		if err := d.watcher.Start(ctx); err != nil {
			slog.Error("Failed to start manifest watcher", logfields.Error(err))
		} else if m, err := manifest.Load(d.config.Manifest); err == nil {
			if err := d.watcher.WatchSources(m.ScanRoots()); err != nil {
				slog.Warn("Failed to watch scan sources", logfields.Error(err))
			}
		}
	}

	d.state.Store(StateRunning)
	slog.Info("Daemon started", slog.Duration("refresh_interval", interval))

	// Release lock before entering the long-running loop so status
	// queries stay responsive
	d.mu.Unlock()

	d.mainLoop(ctx)

	// When Stop drove the shutdown it has already moved the state on;
	// only flag the transition when the loop exited on its own.
	if d.State() == StateRunning {
		d.state.Store(StateStopping)
	}
	slog.Info("Main loop exited, daemon stopping")

	return nil
}

// Stop gracefully shuts down the daemon
func (d *Daemon) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	// StateStopping still needs component teardown here: Start moves to
	// it when the context is canceled before Stop is called.
	if d.State() == StateStopped {
		return nil
	}

	d.state.Store(StateStopping)
	slog.Info("Stopping docfetch daemon")

	// Signal stop to all components (only if not already closed)
	select {
	case <-d.stopChan:
		// Channel already closed
	default:
		close(d.stopChan)
	}

	// Stop components in reverse order
	if d.watcher != nil {
		if err := d.watcher.Stop(ctx); err != nil {
			slog.Error("Failed to stop manifest watcher", logfields.Error(err))
		}
	}

	if d.scheduler != nil {
		if err := d.scheduler.Stop(ctx); err != nil {
			slog.Error("Failed to stop scheduler", logfields.Error(err))
		}
	}

	if d.admin != nil {
		if err := d.admin.Stop(ctx); err != nil {
			slog.Error("Failed to stop admin server", logfields.Error(err))
		}
	}

	if err := d.reporter.Close(); err != nil {
		slog.Error("Failed to close issue reporters", logfields.Error(err))
	}

	if err := d.store.Close(); err != nil {
		slog.Error("Failed to close cache store", logfields.Error(err))
	}

	d.state.Store(StateStopped)

	uptime := time.Since(d.startTime)
	slog.Info("Daemon stopped", slog.Duration("uptime", uptime))

	return nil
}

// State returns the current daemon lifecycle state
func (d *Daemon) State() State {
	state, ok := d.state.Load().(State)
	if !ok {
		return StateError
	}
	return state
}

// Status returns a snapshot for the admin API.
func (d *Daemon) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()

	st := Status{
		State:        d.State(),
		Manifest:     d.config.Manifest,
		CacheBackend: d.config.Cache.Backend,
		Runs:         d.runCount,
		LastRun:      d.lastRun,
	}
	if !d.startTime.IsZero() {
		st.StartedAt = d.startTime
		st.UptimeSeconds = time.Since(d.startTime).Seconds()
	}
	return st
}

// TriggerRefresh starts a refresh run in the background. It reports
// whether the run was started.
func (d *Daemon) TriggerRefresh() bool {
	if d.State() != StateRunning {
		return false
	}

	d.mu.RLock()
	ctx := d.runCtx
	d.mu.RUnlock()
	if ctx == nil {
		ctx = context.Background()
	}

	go d.refresh(ctx)
	return true
}

// mainLoop blocks until the daemon stops. The initial refresh runs
// shortly after startup; periodic refreshes come from the scheduler.
func (d *Daemon) mainLoop(ctx context.Context) {
	initialRefreshTimer := time.NewTimer(3 * time.Second)
	defer initialRefreshTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Main loop stopped by context cancellation")
			return
		case <-d.stopChan:
			slog.Info("Main loop stopped by stop signal")
			return
		case <-initialRefreshTimer.C:
			go d.refresh(ctx)
		}
	}
}

// refresh loads the manifest and runs one prefetch pass. Failures are
// recorded in the run stats; they never take the daemon down.
func (d *Daemon) refresh(ctx context.Context) {
	ctx = observability.WithRunID(ctx, observability.NewRunID())
	ctx = observability.WithManifest(ctx, d.config.Manifest)

	stats := RunStats{StartedAt: time.Now()}

	m, err := manifest.Load(d.config.Manifest)
	if err != nil {
		observability.ErrorContext(ctx, "Failed to load manifest", logfields.Error(err))
		stats.Error = err.Error()
		d.recordRun(stats)
		return
	}

	resources, err := m.Collect()
	if err != nil {
		observability.ErrorContext(ctx, "Failed to collect manifest resources", logfields.Error(err))
		stats.Error = err.Error()
		d.recordRun(stats)
		return
	}

	summary, err := d.runner.Run(ctx, resources)
	switch {
	case errors.Is(err, prefetch.ErrAlreadyRunning):
		observability.InfoContext(ctx, "Refresh already in progress, skipping")
		return
	case errors.Is(err, context.Canceled):
		observability.InfoContext(ctx, "Refresh aborted by shutdown")
		return
	case err != nil:
		observability.ErrorContext(ctx, "Prefetch run completed with hard failures", logfields.Error(err))
		stats.Error = err.Error()
	}

	if summary != nil {
		stats.Resources = summary.Resources
		stats.Fetched = summary.Fetched
		stats.Failed = summary.Failed
		stats.HardFailures = summary.HardFailures
		stats.BytesFetched = summary.BytesFetched
		stats.DurationMS = float64(summary.Duration.Milliseconds())
	}
	d.recordRun(stats)
}

// recordRun stores the outcome of the latest refresh run.
func (d *Daemon) recordRun(stats RunStats) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.runCount++
	d.lastRun = &stats
}
