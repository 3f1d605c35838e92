package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

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

// runPrefetch performs one pass over the manifest. Exit codes: 0 clean,
// 1 issues at error severity were reported, 2 the run itself failed.
func runPrefetch(cfg *config.Config, manifestPath, format string) int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx = observability.WithRunID(ctx, observability.NewRunID())

	if manifestPath == "" {
		manifestPath = cfg.Manifest
	}

	m, err := manifest.Load(manifestPath)
	if err != nil {
		slog.Error("Failed to load manifest", logfields.Manifest(manifestPath), logfields.Error(err))
		return 2
	}
	resources, err := m.Collect()
	if err != nil {
		slog.Error("Failed to collect manifest resources", logfields.Manifest(manifestPath), logfields.Error(err))
		return 2
	}

	store, err := cache.Open(cfg.Cache.Backend, cfg.Cache.Path, cfg.Cache.NATS.URL, cfg.Cache.NATS.Bucket)
	if err != nil {
		slog.Error("Failed to open cache store", logfields.Backend(cfg.Cache.Backend), logfields.Error(err))
		return 2
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			slog.Warn("Failed to close cache store", logfields.Error(cerr))
		}
	}()

	collector := issue.NewCollector()
	reporters := issue.Multi{collector}
	if cfg.Reporting.NATS.Enabled {
		nr, err := issue.NewNATSReporter(cfg.Reporting.NATS.URL, cfg.Reporting.NATS.Subject)
		if err != nil {
			slog.Error("Failed to create NATS issue reporter", logfields.Error(err))
			return 2
		}
		defer func() { _ = nr.Close() }()
		reporters = append(reporters, nr)
	}

	client := fetch.NewClient(cfg.Fetch.HTTPClient())
	memo := cache.NewMemo(client, store, cache.Policy{
		TTL:        cfg.Cache.TTLDuration(),
		FailureTTL: cfg.Cache.FailureTTLDuration(),
	}, metrics.NoopRecorder{})

	runner := prefetch.NewRunner(memo, reporters, metrics.NoopRecorder{}, prefetch.Options{
		MaxConcurrent:  cfg.Fetch.MaxConcurrent,
		RateLimitDelay: cfg.Fetch.RateLimitDelayDuration(),
		UserAgent:      cfg.Fetch.UserAgent,
		Severity:       issue.ParseSeverity(cfg.Reporting.Severity),
	})

	summary, err := runner.Run(ctx, resources)
	if err != nil {
		slog.Error("Prefetch run failed", logfields.Error(err))
		if summary == nil {
			return 2
		}
	}

	if ferr := issue.NewFormatter(format).Format(os.Stdout, collector.Issues()); ferr != nil {
		slog.Error("Failed to format issues", logfields.Error(ferr))
	}

	slog.Info("Prefetch complete",
		logfields.Count(summary.Resources),
		slog.Int("fetched", summary.Fetched),
		slog.Int("failed", summary.Failed),
		slog.Int("hard_failures", summary.HardFailures),
		logfields.Bytes(summary.BytesFetched),
		logfields.DurationMS(float64(summary.Duration.Milliseconds())))

	switch {
	case err != nil:
		return 2
	case collector.HasErrors():
		return 1
	default:
		return 0
	}
}
