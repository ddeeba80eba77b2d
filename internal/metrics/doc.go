// Package metrics provides lock-free counters and a login latency histogram
// for tutorAuth.
//
// # Design
//
// Counters are stored in cache-line-padded uint64 slots and incremented
// atomically. The histogram uses 8 fixed buckets (≤5ms … +Inf). The write
// path does not allocate.
//
// # Architecture boundaries
//
// This package owns metric storage and snapshots. Export to Prometheus lives
// in metrics/export/ and reads Snapshot values.
//
// # What this package must NOT do
//
//   - Perform I/O or network calls.
//   - Import tutorAuth or any sibling package.
package metrics
