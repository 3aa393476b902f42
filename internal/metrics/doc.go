// Package metrics provides lock-free counters and the authenticate latency
// histogram behind taskauth.Metrics.
//
// Counters live in cache-line-padded uint64 slots and are updated with
// sync/atomic. The histogram uses 8 fixed buckets (<=5ms up to +Inf). The
// write path does not allocate.
//
// Export to Prometheus and OpenTelemetry lives in metrics/export and reads
// [Snapshot] values only. This package performs no I/O and keeps no global
// registry.
package metrics
