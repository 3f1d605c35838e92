package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once                sync.Once
	fetchDuration       *prom.HistogramVec
	fetchResults        *prom.CounterVec
	responseBytes       prom.Histogram
	cacheEvents         *prom.CounterVec
	runDuration         prom.Histogram
	prefetchConcurrency prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.fetchDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "docfetch",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of individual resource fetches",
			Buckets:   prom.DefBuckets,
		}, []string{"result"})
		pr.fetchResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docfetch",
			Name:      "fetch_results_total",
			Help:      "Fetch result counts by outcome",
		}, []string{"result"})
		pr.responseBytes = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "docfetch",
			Name:      "fetch_response_bytes",
			Help:      "Size of fetched response bodies",
			Buckets:   prom.ExponentialBuckets(256, 4, 10),
		})
		pr.cacheEvents = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docfetch",
			Name:      "cache_events_total",
			Help:      "Cache lookup outcomes and stores",
		}, []string{"event"})
		pr.runDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "docfetch",
			Name:      "prefetch_run_duration_seconds",
			Help:      "Total prefetch run duration",
			Buckets:   prom.DefBuckets,
		})
		pr.prefetchConcurrency = prom.NewGauge(prom.GaugeOpts{
			Namespace: "docfetch",
			Name:      "prefetch_concurrency",
			Help:      "Configured concurrency for the current prefetch run",
		})
		reg.MustRegister(pr.fetchDuration, pr.fetchResults, pr.responseBytes, pr.cacheEvents, pr.runDuration, pr.prefetchConcurrency)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveFetchDuration(result ResultLabel, d time.Duration) {
	if p == nil || p.fetchDuration == nil {
		return
	}
	p.fetchDuration.WithLabelValues(string(result)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncFetchResult(result ResultLabel) {
	if p == nil || p.fetchResults == nil {
		return
	}
	p.fetchResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveResponseBytes(n int) {
	if p == nil || p.responseBytes == nil {
		return
	}
	p.responseBytes.Observe(float64(n))
}

func (p *PrometheusRecorder) IncCacheEvent(event CacheEventLabel) {
	if p == nil || p.cacheEvents == nil {
		return
	}
	p.cacheEvents.WithLabelValues(string(event)).Inc()
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetPrefetchConcurrency(n int) {
	if p == nil || p.prefetchConcurrency == nil {
		return
	}
	p.prefetchConcurrency.Set(float64(n))
}
