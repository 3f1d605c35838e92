package metrics

import "time"

// ResultLabel enumerates fetch result categories for counters. The
// failure labels match fetch error kind names so callers can convert
// directly.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultConnect ResultLabel = "connect"
	ResultTimeout ResultLabel = "timeout"
	ResultStatus  ResultLabel = "status"
	ResultOther   ResultLabel = "other"
	ResultHard    ResultLabel = "hard_failure"
)

// CacheEventLabel enumerates cache lookup outcomes.
type CacheEventLabel string

const (
	CacheHit   CacheEventLabel = "hit"
	CacheMiss  CacheEventLabel = "miss"
	CacheStale CacheEventLabel = "stale"
	CacheStore CacheEventLabel = "store"
)

// Recorder defines observability hooks for fetch and cache metrics. Implementations
// may forward to Prometheus, OpenTelemetry, etc. All methods must be safe for nil receivers
// when using the NoopRecorder (allowing optional injection).
type Recorder interface {
	ObserveFetchDuration(result ResultLabel, d time.Duration)
	IncFetchResult(result ResultLabel)
	ObserveResponseBytes(n int)
	IncCacheEvent(event CacheEventLabel)
	ObserveRunDuration(d time.Duration)
	SetPrefetchConcurrency(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveFetchDuration(ResultLabel, time.Duration) {}
func (NoopRecorder) IncFetchResult(ResultLabel)                      {}
func (NoopRecorder) ObserveResponseBytes(int)                        {}
func (NoopRecorder) IncCacheEvent(CacheEventLabel)                   {}
func (NoopRecorder) ObserveRunDuration(time.Duration)                {}
func (NoopRecorder) SetPrefetchConcurrency(int)                      {}
