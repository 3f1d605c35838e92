package metrics

import (
	"testing"
	"time"
)

type testRecorder struct {
	fetchDurations map[ResultLabel]int
	fetchResults   map[ResultLabel]int
	cacheEvents    map[CacheEventLabel]int
	runDurations   int
	bytesObserved  int
	concurrency    int
}

func newTestRecorder() *testRecorder {
	return &testRecorder{
		fetchDurations: map[ResultLabel]int{},
		fetchResults:   map[ResultLabel]int{},
		cacheEvents:    map[CacheEventLabel]int{},
	}
}

func (t *testRecorder) ObserveFetchDuration(result ResultLabel, _ time.Duration) {
	t.fetchDurations[result]++
}
func (t *testRecorder) IncFetchResult(result ResultLabel)   { t.fetchResults[result]++ }
func (t *testRecorder) ObserveResponseBytes(n int)          { t.bytesObserved += n }
func (t *testRecorder) IncCacheEvent(event CacheEventLabel) { t.cacheEvents[event]++ }
func (t *testRecorder) ObserveRunDuration(_ time.Duration)  { t.runDurations++ }
func (t *testRecorder) SetPrefetchConcurrency(n int)        { t.concurrency = n }

// TestRecorderInjection exercises the interface through a fake the way
// consumers receive it.
func TestRecorderInjection(t *testing.T) {
	rec := newTestRecorder()
	var r Recorder = rec

	r.IncFetchResult(ResultSuccess)
	r.IncFetchResult(ResultSuccess)
	r.IncFetchResult(ResultConnect)
	r.IncCacheEvent(CacheHit)
	r.ObserveFetchDuration(ResultTimeout, time.Millisecond)
	r.ObserveResponseBytes(128)
	r.ObserveRunDuration(time.Second)
	r.SetPrefetchConcurrency(8)

	if rec.fetchResults[ResultSuccess] != 2 {
		t.Fatalf("expected 2 success results, got %d", rec.fetchResults[ResultSuccess])
	}
	if rec.fetchResults[ResultConnect] != 1 {
		t.Fatalf("expected 1 connect result, got %d", rec.fetchResults[ResultConnect])
	}
	if rec.cacheEvents[CacheHit] != 1 {
		t.Fatalf("expected 1 cache hit, got %d", rec.cacheEvents[CacheHit])
	}
	if rec.fetchDurations[ResultTimeout] != 1 {
		t.Fatalf("expected 1 timeout duration, got %d", rec.fetchDurations[ResultTimeout])
	}
	if rec.bytesObserved != 128 {
		t.Fatalf("expected 128 bytes, got %d", rec.bytesObserved)
	}
	if rec.runDurations != 1 {
		t.Fatalf("expected 1 run duration, got %d", rec.runDurations)
	}
	if rec.concurrency != 8 {
		t.Fatalf("expected concurrency 8, got %d", rec.concurrency)
	}
}

// TestNoopRecorder ensures the default recorder accepts all calls.
func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveFetchDuration(ResultSuccess, time.Second)
	r.IncFetchResult(ResultOther)
	r.ObserveResponseBytes(1)
	r.IncCacheEvent(CacheStore)
	r.ObserveRunDuration(time.Second)
	r.SetPrefetchConcurrency(1)
}
