package authbridge

import (
	"sort"
	"sync/atomic"
	"time"
)

// MetricID names an engine counter or histogram.
type MetricID uint16

const (
	MetricBridgeMatched MetricID = iota
	MetricBridgePassthrough
	MetricBridgeFailure
	MetricSessionStarted
	MetricSessionStartFailure
	MetricSessionValidated
	MetricSessionRejected
	MetricSessionEnded
	MetricSignInSuccess
	MetricSignInFailure
	MetricInitialItemCreated
	MetricSignInRateLimited
	// MetricSessionStartLatency is the only histogram.
	MetricSessionStartLatency
)

// latencyBounds are the inclusive upper bounds of the session start
// histogram. Slower starts land in a final overflow bucket.
var latencyBounds = []time.Duration{
	5 * time.Millisecond,
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
}

const cacheLineSize = 64

// counter sits on its own cache line so hot counters do not share one.
type counter struct {
	atomic.Uint64
	_ [cacheLineSize - 8]byte
}

// Metrics holds the engine counters and the session start histogram. A nil
// or disabled Metrics records nothing.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [MetricSessionStartLatency]counter
	latency       [8]atomic.Uint64
}

// MetricsSnapshot is a copy of all counters and histogram buckets.
// Histogram buckets are per bucket, not cumulative.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) Inc(id MetricID) {
	if !m.Enabled() || id >= MetricSessionStartLatency {
		return
	}
	m.counters[id].Add(1)
}

// Observe records d for id. Only MetricSessionStartLatency is a histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableLatency || id != MetricSessionStartLatency {
		return
	}
	i := sort.Search(len(latencyBounds), func(i int) bool { return d <= latencyBounds[i] })
	m.latency[i].Add(1)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= MetricSessionStartLatency {
		return 0
	}
	return m.counters[id].Load()
}

// Snapshot is empty when metrics are disabled.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Counters:   map[MetricID]uint64{},
		Histograms: map[MetricID][]uint64{},
	}
	if !m.Enabled() {
		return s
	}

	for id := range m.counters {
		s.Counters[MetricID(id)] = m.counters[id].Load()
	}
	if m.enableLatency {
		buckets := make([]uint64, len(m.latency))
		for i := range m.latency {
			buckets[i] = m.latency[i].Load()
		}
		s.Histograms[MetricSessionStartLatency] = buckets
	}
	return s
}
