// Package metrics provides an observability framework for fetch and cache metrics.
//
// # Design Philosophy
//
// This package implements the Null Object pattern to enable metrics collection
// without requiring explicit nil checks throughout the codebase. By default,
// all components use NoopRecorder which implements the Recorder interface with
// no-op methods that inline to nothing at compile time.
//
// # Architecture
//
// The metrics system has three components:
//
//  1. Recorder interface - Defines all metrics operations
//  2. NoopRecorder - Default implementation that does nothing (zero overhead)
//  3. PrometheusRecorder - Registers and forwards to a Prometheus registry
//
// # Usage Pattern
//
// Components receive a Recorder through dependency injection:
//
//	runner := prefetch.NewRunner(memo, reporter, prefetch.Options{
//	    Recorder: metrics.NoopRecorder{}, // Default: no metrics
//	})
//
// When metrics are enabled in the configuration, the daemon swaps in a
// PrometheusRecorder and serves the registry over HTTP:
//
//	reg := prom.NewRegistry()
//	recorder := metrics.NewPrometheusRecorder(reg)
//	http.Handle("/metrics", metrics.HTTPHandler(reg))
//
// This approach allows:
//   - Zero overhead when metrics are disabled (noop methods inline away)
//   - Metrics activation without code changes (just swap implementation)
//   - Clean testing (inject mock recorder for verification)
package metrics
