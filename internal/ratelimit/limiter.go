package ratelimit

import (
	"sync"
	"time"
)

// LimitResult is the outcome of one rate limit check.
type LimitResult struct {
	Allowed    bool
	RetryAfter time.Duration // suggested wait when not allowed
	LimitType  string        // "global" or the route category
	Remaining  float64       // tokens left in the deciding bucket
}

// Limiter applies a global bucket plus per-route-category buckets.
type Limiter struct {
	mu           sync.RWMutex
	enabled      bool
	globalBucket *Bucket
	routeBuckets map[string]*Bucket
	config       *Config
	metrics      *Metrics
}

// NewLimiter creates a limiter from configuration.
func NewLimiter(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	l := &Limiter{
		enabled:      cfg.Enabled,
		routeBuckets: make(map[string]*Bucket),
		config:       cfg,
		metrics:      NewMetrics(),
	}

	l.globalBucket = NewBucket(float64(cfg.Global.BurstSize), cfg.Global.RequestsPerSecond)
	for _, route := range cfg.Routes {
		l.routeBuckets[route.Name] = NewBucket(float64(route.BurstSize), route.RequestsPerSecond)
	}
	return l
}

// Allow checks whether one request for the given route category may
// proceed. The global bucket is consulted first; a route rejection
// refunds the global token it already took.
func (l *Limiter) Allow(route string) *LimitResult {
	if !l.enabled {
		return &LimitResult{Allowed: true, LimitType: "disabled", Remaining: -1}
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.globalBucket.TryConsume(1) {
		l.metrics.RecordRejection("global", route)
		return &LimitResult{
			Allowed:    false,
			RetryAfter: l.globalBucket.TimeToWait(1),
			LimitType:  "global",
			Remaining:  l.globalBucket.Tokens(),
		}
	}

	if bucket, exists := l.routeBuckets[route]; exists {
		if !bucket.TryConsume(1) {
			l.globalBucket.Refund(1)
			l.metrics.RecordRejection(route, route)
			return &LimitResult{
				Allowed:    false,
				RetryAfter: bucket.TimeToWait(1),
				LimitType:  route,
				Remaining:  bucket.Tokens(),
			}
		}
		l.metrics.RecordAllowed(route)
		return &LimitResult{Allowed: true, LimitType: route, Remaining: bucket.Tokens()}
	}

	l.metrics.RecordAllowed(route)
	return &LimitResult{Allowed: true, LimitType: "global", Remaining: l.globalBucket.Tokens()}
}

// IsEnabled reports whether rate limiting is on.
func (l *Limiter) IsEnabled() bool {
	return l.enabled
}

// SetEnabled turns rate limiting on or off at runtime.
func (l *Limiter) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

// GetMetrics returns the limiter's metrics tracker.
func (l *Limiter) GetMetrics() *Metrics {
	return l.metrics
}

// GetRouteBucket returns the bucket for a route category, for tests.
func (l *Limiter) GetRouteBucket(route string) *Bucket {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.routeBuckets[route]
}

// GetGlobalBucket returns the global bucket, for tests.
func (l *Limiter) GetGlobalBucket() *Bucket {
	return l.globalBucket
}

// Reset refills every bucket.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.globalBucket.Reset()
	for _, bucket := range l.routeBuckets {
		bucket.Reset()
	}
}

// Stats is a point-in-time view of the limiter's buckets.
type Stats struct {
	Enabled      bool               `json:"enabled"`
	GlobalTokens float64            `json:"global_tokens"`
	RouteTokens  map[string]float64 `json:"route_tokens"`
}

// GetStats returns current limiter statistics.
func (l *Limiter) GetStats() *Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := &Stats{
		Enabled:      l.enabled,
		GlobalTokens: l.globalBucket.Tokens(),
		RouteTokens:  make(map[string]float64),
	}
	for name, bucket := range l.routeBuckets {
		stats.RouteTokens[name] = bucket.Tokens()
	}
	return stats
}
