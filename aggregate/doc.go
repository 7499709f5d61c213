// Package aggregate implements a client-side metrics aggregation engine.
//
// Application code tracks numeric values against named, optionally
// multi-dimensional metrics. Values are absorbed in memory by a
// concurrency-safe kernel and, once per aggregation window, snapped into
// an immutable Aggregate for a downstream telemetry sink.
package aggregate
