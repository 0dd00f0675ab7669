package mintauth

import "sync/atomic"

// MetricID identifies one Engine counter.
type MetricID uint16

const (
	// MetricAccessIssued counts issued access tokens.
	MetricAccessIssued MetricID = iota
	// MetricAccessVerified counts successful access-token verifications.
	MetricAccessVerified
	// MetricAccessRejected counts failed access-token verifications.
	MetricAccessRejected
	// MetricRefreshIssued counts issued refresh tokens.
	MetricRefreshIssued
	// MetricRefreshVerified counts successful refresh-token verifications.
	MetricRefreshVerified
	// MetricRefreshRejected counts failed refresh-token verifications.
	MetricRefreshRejected
	// MetricRefreshRotated counts successful rotations.
	MetricRefreshRotated
	// MetricRefreshReuseDetected counts rotation conflicts, i.e. presentations
	// of an already-superseded refresh token.
	MetricRefreshReuseDetected
	// MetricSessionRevoked counts single-session revocations.
	MetricSessionRevoked
	// MetricUserSessionsRevoked counts revoke-all operations per user.
	MetricUserSessionsRevoked
	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a lock-free counter registry. A disabled Metrics is a no-op on
// every path.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// NewMetrics returns a registry honoring cfg.Enabled.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Enabled reports whether counting is active.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc adds one to the counter for id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value returns the current count for id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// Snapshot copies all counters. Disabled registries return an empty map.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}

	s := MetricsSnapshot{Counters: make(map[MetricID]uint64, int(metricIDCount))}
	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return s
}
