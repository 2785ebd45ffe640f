package observability

import (
	"sync"
	"time"
)

// rollingWindow bounds how far back the error-rate and latency
// aggregates look.
const rollingWindow = 5 * time.Minute

// Metrics keeps in-memory request counters plus a rolling window used by
// the health summary.
type Metrics struct {
	mu         sync.Mutex
	errorCount map[string]int64
	buckets    map[int64]*bucket

	Clock func() time.Time
}

type bucket struct {
	requests     int64
	errors       int64
	totalLatency time.Duration
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		errorCount: make(map[string]int64),
		buckets:    make(map[int64]*bucket),
		Clock:      time.Now,
	}
}

// RecordRequest adds one request to the rolling window.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.Clock()
	minute := now.Unix() / 60
	b, ok := m.buckets[minute]
	if !ok {
		b = &bucket{}
		m.buckets[minute] = b
		m.pruneLocked(now)
	}
	b.requests++
	b.totalLatency += duration
	if status >= 500 {
		b.errors++
	}
}

// RecordError increments error counters by code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[path+"|"+method+"|"+code]++
}

// Rolling reports request count, error rate and average latency over the
// window. Error rate is 0 when no requests were seen.
func (m *Metrics) Rolling() (requests int64, errorRate float64, avgLatency time.Duration) {
	if m == nil {
		return 0, 0, 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.Clock()
	m.pruneLocked(now)

	var errors int64
	var totalLatency time.Duration
	for _, b := range m.buckets {
		requests += b.requests
		errors += b.errors
		totalLatency += b.totalLatency
	}
	if requests == 0 {
		return 0, 0, 0
	}
	return requests, float64(errors) / float64(requests), totalLatency / time.Duration(requests)
}

func (m *Metrics) pruneLocked(now time.Time) {
	oldest := now.Add(-rollingWindow).Unix() / 60
	for minute := range m.buckets {
		if minute < oldest {
			delete(m.buckets, minute)
		}
	}
}
