package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestDisabledNoIncrement(t *testing.T) {
	m := New(Config{Enabled: false})
	m.Inc(MetricLoginSuccess)

	if got := m.Value(MetricLoginSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if snap := m.Snapshot(); len(snap.Counters) != 0 {
		t.Fatalf("expected empty snapshot, got %v", snap.Counters)
	}
}

func TestNilMetricsSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricLoginSuccess)
	m.Observe(MetricLoginLatency, time.Millisecond)
	if m.Enabled() || m.Value(MetricLoginSuccess) != 0 {
		t.Fatal("nil metrics must be inert")
	}
}

func TestConcurrentIncrement(t *testing.T) {
	m := New(Config{Enabled: true})

	const goroutines = 16
	const perG = 2000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricOTPIssued)
			}
		}()
	}
	wg.Wait()

	if got, want := m.Value(MetricOTPIssued), uint64(goroutines*perG); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestHistogramBuckets(t *testing.T) {
	m := New(Config{Enabled: true, EnableLatency: true})

	for _, d := range []time.Duration{
		5 * time.Millisecond,
		10 * time.Millisecond,
		25 * time.Millisecond,
		50 * time.Millisecond,
		100 * time.Millisecond,
		250 * time.Millisecond,
		500 * time.Millisecond,
		2 * time.Second,
	} {
		m.Observe(MetricLoginLatency, d)
	}
	// Other ids have no histogram.
	m.Observe(MetricLoginSuccess, time.Millisecond)

	buckets := m.Snapshot().Histograms[MetricLoginLatency]
	if len(buckets) != BucketCount {
		t.Fatalf("expected %d buckets, got %d", BucketCount, len(buckets))
	}
	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d: expected 1, got %d", i, v)
		}
	}
}

func TestLatencyRequiresEnabled(t *testing.T) {
	m := New(Config{Enabled: false, EnableLatency: true})
	if m.LatencyEnabled() {
		t.Fatal("latency must stay off when metrics are disabled")
	}
}

func TestSnapshotOmitsHistogramWhenLatencyOff(t *testing.T) {
	m := New(Config{Enabled: true})
	m.Inc(MetricTokensIssued)

	snap := m.Snapshot()
	if snap.Counters[MetricTokensIssued] != 1 {
		t.Fatalf("unexpected counter %d", snap.Counters[MetricTokensIssued])
	}
	if _, ok := snap.Counters[MetricLoginLatency]; ok {
		t.Fatal("latency id must not appear as a counter")
	}
	if _, ok := snap.Histograms[MetricLoginLatency]; ok {
		t.Fatal("histogram must be absent when latency is off")
	}
}
