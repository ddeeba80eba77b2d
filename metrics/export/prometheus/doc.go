// Package prometheus adapts engine metrics to a client_golang collector.
//
// [NewCollector] reads [tutorAuth.Engine.MetricsSnapshot] on every scrape and
// emits constant metrics: tutorauth_*_total counters, the
// tutorauth_login_latency_seconds histogram and
// tutorauth_audit_dropped_total.
//
// # What this package must NOT do
//
//   - Register into the global Prometheus registry; [Handler] uses its own.
//   - Mutate engine state.
package prometheus
