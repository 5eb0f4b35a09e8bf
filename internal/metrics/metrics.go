package metrics

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a specific counter or histogram slot.
type MetricID uint16

const (
	MetricRequestSuccess MetricID = iota
	MetricRequestFailure
	MetricRequestRetry
	MetricRequestUnauthorized
	MetricRefreshSuccess
	MetricRefreshFailure
	MetricRefreshCoalesced
	MetricRefreshShortCircuit
	MetricLoginSuccess
	MetricLoginFailure
	MetricLogoutTriggered
	MetricLogoutSuppressed
	MetricStorageFallbackRead
	MetricStorageFallbackWrite
	MetricRequestLatency

	MetricIDCount
)

// Config controls which metric families are recorded.
type Config struct {
	Enabled       bool
	EnableLatency bool
}

const histogramBuckets = 8

// bucketBounds are upper bounds in milliseconds; the last bucket is +Inf.
var bucketBounds = [histogramBuckets - 1]int64{5, 10, 25, 50, 100, 250, 1000}

// counter is padded to its own cache line so concurrent increments of
// neighboring metrics do not false-share.
type counter struct {
	v atomic.Uint64
	_ [56]byte
}

type histogram struct {
	buckets [histogramBuckets]atomic.Uint64
}

func (h *histogram) observe(d time.Duration) {
	ms := d.Milliseconds()
	for i, bound := range bucketBounds {
		if ms <= bound {
			h.buckets[i].Add(1)
			return
		}
	}
	h.buckets[histogramBuckets-1].Add(1)
}

// Metrics holds atomic counters and optional latency histograms.
// The zero-config instance is a no-op on every method.
type Metrics struct {
	enabled  bool
	latency  bool
	counters [MetricIDCount]counter
	hists    [MetricIDCount]histogram
}

// New creates a [Metrics] instance. When cfg.Enabled is false every
// operation is a no-op.
func New(cfg Config) *Metrics {
	return &Metrics{
		enabled: cfg.Enabled,
		latency: cfg.Enabled && cfg.EnableLatency,
	}
}

// Inc atomically increments the counter for id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= MetricIDCount {
		return
	}
	m.counters[id].v.Add(1)
}

// Observe records a latency sample for id when histograms are enabled.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.latency || id >= MetricIDCount {
		return
	}
	m.hists[id].observe(d)
}

// Snapshot is a point-in-time deep copy of all metrics.
type Snapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// Snapshot copies every counter and histogram. Counters that were never
// incremented are omitted.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{
		Counters:   make(map[MetricID]uint64),
		Histograms: make(map[MetricID][]uint64),
	}
	if m == nil || !m.enabled {
		return snap
	}

	for id := MetricID(0); id < MetricIDCount; id++ {
		if v := m.counters[id].v.Load(); v > 0 {
			snap.Counters[id] = v
		}
	}
	if m.latency {
		for id := MetricID(0); id < MetricIDCount; id++ {
			var total uint64
			buckets := make([]uint64, histogramBuckets)
			for i := range buckets {
				buckets[i] = m.hists[id].buckets[i].Load()
				total += buckets[i]
			}
			if total > 0 {
				snap.Histograms[id] = buckets
			}
		}
	}
	return snap
}
