package ratelimit

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks rate limiting statistics: totals, per-route counters,
// and which limit type caused each rejection.
type Metrics struct {
	mu sync.RWMutex

	totalAllowed  uint64
	totalRejected uint64

	allowedByRoute   map[string]*uint64
	rejectedByRoute  map[string]*uint64
	rejectionsByType map[string]*uint64

	startTime time.Time
}

// NewMetrics creates a metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{
		allowedByRoute:   make(map[string]*uint64),
		rejectedByRoute:  make(map[string]*uint64),
		rejectionsByType: make(map[string]*uint64),
		startTime:        time.Now(),
	}
}

// RecordAllowed records an allowed request for a route category.
func (m *Metrics) RecordAllowed(route string) {
	atomic.AddUint64(&m.totalAllowed, 1)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.allowedByRoute[route]; !exists {
		var zero uint64
		m.allowedByRoute[route] = &zero
	}
	atomic.AddUint64(m.allowedByRoute[route], 1)
}

// RecordRejection records a rejected request and the limit that fired.
func (m *Metrics) RecordRejection(limitType, route string) {
	atomic.AddUint64(&m.totalRejected, 1)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.rejectedByRoute[route]; !exists {
		var zero uint64
		m.rejectedByRoute[route] = &zero
	}
	atomic.AddUint64(m.rejectedByRoute[route], 1)

	if _, exists := m.rejectionsByType[limitType]; !exists {
		var zero uint64
		m.rejectionsByType[limitType] = &zero
	}
	atomic.AddUint64(m.rejectionsByType[limitType], 1)
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	TotalAllowed     uint64            `json:"total_allowed"`
	TotalRejected    uint64            `json:"total_rejected"`
	AllowedByRoute   map[string]uint64 `json:"allowed_by_route"`
	RejectedByRoute  map[string]uint64 `json:"rejected_by_route"`
	RejectionsByType map[string]uint64 `json:"rejections_by_type"`
	Uptime           time.Duration     `json:"uptime"`
	RequestsPerSec   float64           `json:"requests_per_second"`
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (m *Metrics) Snapshot() *MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := &MetricsSnapshot{
		TotalAllowed:     atomic.LoadUint64(&m.totalAllowed),
		TotalRejected:    atomic.LoadUint64(&m.totalRejected),
		AllowedByRoute:   make(map[string]uint64),
		RejectedByRoute:  make(map[string]uint64),
		RejectionsByType: make(map[string]uint64),
		Uptime:           time.Since(m.startTime),
	}

	for route, count := range m.allowedByRoute {
		snapshot.AllowedByRoute[route] = atomic.LoadUint64(count)
	}
	for route, count := range m.rejectedByRoute {
		snapshot.RejectedByRoute[route] = atomic.LoadUint64(count)
	}
	for limitType, count := range m.rejectionsByType {
		snapshot.RejectionsByType[limitType] = atomic.LoadUint64(count)
	}

	total := snapshot.TotalAllowed + snapshot.TotalRejected
	if snapshot.Uptime.Seconds() > 0 {
		snapshot.RequestsPerSec = float64(total) / snapshot.Uptime.Seconds()
	}
	return snapshot
}

// TotalAllowed returns the total number of allowed requests.
func (m *Metrics) TotalAllowed() uint64 {
	return atomic.LoadUint64(&m.totalAllowed)
}

// TotalRejected returns the total number of rejected requests.
func (m *Metrics) TotalRejected() uint64 {
	return atomic.LoadUint64(&m.totalRejected)
}

// RejectionRate returns the rejected fraction of all requests.
func (m *Metrics) RejectionRate() float64 {
	allowed := atomic.LoadUint64(&m.totalAllowed)
	rejected := atomic.LoadUint64(&m.totalRejected)
	total := allowed + rejected
	if total == 0 {
		return 0
	}
	return float64(rejected) / float64(total)
}

// Reset clears all counters.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	atomic.StoreUint64(&m.totalAllowed, 0)
	atomic.StoreUint64(&m.totalRejected, 0)
	m.allowedByRoute = make(map[string]*uint64)
	m.rejectedByRoute = make(map[string]*uint64)
	m.rejectionsByType = make(map[string]*uint64)
	m.startTime = time.Now()
}
