// Package prefetch walks a manifest's resources through the cached
// fetcher, reporting failures as issues.
package prefetch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/docfetch/internal/fetch"
	"git.home.luguber.info/inful/docfetch/internal/issue"
	"git.home.luguber.info/inful/docfetch/internal/logfields"
	"git.home.luguber.info/inful/docfetch/internal/manifest"
	"git.home.luguber.info/inful/docfetch/internal/metrics"
)

// Fetcher performs one resource fetch. Both fetch.Client and cache.Memo
// satisfy it.
type Fetcher interface {
	Fetch(ctx context.Context, url, userAgent string) (*fetch.Result, error)
}

// ErrAlreadyRunning is returned by Run while another run is in flight.
var ErrAlreadyRunning = errors.New("prefetch already running")

// Options tune a prefetch run.
type Options struct {
	MaxConcurrent  int
	RateLimitDelay time.Duration
	UserAgent      string         // Default for resources without their own
	Severity       issue.Severity // Severity assigned to reported fetch failures
}

// Summary describes what one run did.
type Summary struct {
	Resources    int
	Fetched      int
	Failed       int
	HardFailures int
	BytesFetched int64
	Duration     time.Duration
}

// Runner fetches manifest resources concurrently. One runner supports
// one run at a time.
type Runner struct {
	fetcher  Fetcher
	reporter issue.Reporter
	recorder metrics.Recorder
	opts     Options

	mu      sync.Mutex
	running bool
	sem     chan struct{} // Limit concurrent fetches
}

// NewRunner creates a prefetch runner. A nil reporter discards issues
// and a nil recorder disables metrics. Reported failures carry
// opts.Severity, so the zero value reports at info.
func NewRunner(fetcher Fetcher, reporter issue.Reporter, recorder metrics.Recorder, opts Options) *Runner {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 10
	}
	if reporter == nil {
		reporter = issue.Multi{}
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Runner{
		fetcher:  fetcher,
		reporter: reporter,
		recorder: recorder,
		opts:     opts,
		sem:      make(chan struct{}, opts.MaxConcurrent),
	}
}

// Run fetches every resource. Classified failures are reported as
// issues and do not abort the run; the first hard failure is returned
// alongside the completed summary. A canceled context aborts the run
// without a summary.
func (r *Runner) Run(ctx context.Context, resources []manifest.Resource) (*Summary, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	r.running = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	start := time.Now()
	slog.Info("Starting resource prefetch", logfields.Count(len(resources)))
	r.recorder.SetPrefetchConcurrency(r.opts.MaxConcurrent)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		summary = Summary{Resources: len(resources)}
		hardErr error
	)

	for _, res := range resources {
		select {
		case <-ctx.Done():
			slog.Info("Resource prefetch canceled")
			wg.Wait()
			return nil, ctx.Err()
		default:
		}

		// Rate limiting
		if r.opts.RateLimitDelay > 0 {
			time.Sleep(r.opts.RateLimitDelay)
		}

		// Acquire the semaphore before spawning to avoid goroutine backlogs.
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil, ctx.Err()
		case r.sem <- struct{}{}:
		}
		wg.Add(1)
		go func(res manifest.Resource) {
			defer wg.Done()
			defer func() { <-r.sem }()
			r.fetchResource(ctx, res, &mu, &summary, &hardErr)
		}(res)
	}

	wg.Wait()

	summary.Duration = time.Since(start)
	r.recorder.ObserveRunDuration(summary.Duration)
	slog.Info("Resource prefetch completed",
		logfields.Count(summary.Resources),
		slog.Int("fetched", summary.Fetched),
		slog.Int("failed", summary.Failed),
		slog.Int("hard_failures", summary.HardFailures),
		logfields.Bytes(summary.BytesFetched),
		logfields.DurationMS(float64(summary.Duration.Milliseconds())),
	)

	return &summary, hardErr
}

func (r *Runner) fetchResource(ctx context.Context, res manifest.Resource, mu *sync.Mutex, summary *Summary, hardErr *error) {
	userAgent := res.UserAgent
	if userAgent == "" {
		userAgent = r.opts.UserAgent
	}

	start := time.Now()
	result, err := r.fetcher.Fetch(ctx, res.URL, userAgent)
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		r.recorder.ObserveFetchDuration(metrics.ResultHard, elapsed)
		r.recorder.IncFetchResult(metrics.ResultHard)
		slog.Error("Resource fetch failed hard",
			logfields.URL(res.URL),
			logfields.Source(res.Source),
			logfields.Error(err))
		mu.Lock()
		summary.HardFailures++
		if *hardErr == nil {
			*hardErr = err
		}
		mu.Unlock()
		return
	}

	if result.Err != nil {
		label := metrics.ResultLabel(result.Err.Kind)
		r.recorder.ObserveFetchDuration(label, elapsed)
		r.recorder.IncFetchResult(label)
		r.reportFailure(ctx, res, result.Err)
		mu.Lock()
		summary.Failed++
		mu.Unlock()
		return
	}

	r.recorder.ObserveFetchDuration(metrics.ResultSuccess, elapsed)
	r.recorder.IncFetchResult(metrics.ResultSuccess)
	r.recorder.ObserveResponseBytes(len(result.Response.Body))
	slog.Debug("Resource fetched",
		logfields.URL(res.URL),
		logfields.Status(int(result.Response.Status)),
		logfields.Bytes(int64(len(result.Response.Body))))
	mu.Lock()
	summary.Fetched++
	summary.BytesFetched += int64(len(result.Response.Body))
	mu.Unlock()
}

// reportFailure publishes a classified failure as an issue.
func (r *Runner) reportFailure(ctx context.Context, res manifest.Resource, fetchErr *fetch.FetchError) {
	iss := fetchErr.ToIssue(r.opts.Severity, res.Source)
	if err := r.reporter.Report(ctx, iss); err != nil {
		slog.Error("Failed to report fetch issue",
			logfields.URL(fetchErr.URL),
			logfields.Source(res.Source),
			logfields.Error(err))
		return
	}
	slog.Warn("Resource fetch failed",
		logfields.URL(fetchErr.URL),
		logfields.Source(res.Source),
		logfields.Kind(string(fetchErr.Kind)),
		logfields.Status(int(fetchErr.StatusCode)))
}
