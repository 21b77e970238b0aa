package server

import (
	"sort"
	"sync"
	"time"
)

type timeWindow struct {
	duration time.Duration
	count    int
}

/*
Metrics collects request latencies, sampled shots and failures for the
/metrics endpoint. Latency percentiles are taken over a sliding window of the
most recent requests.
*/
type Metrics struct {
	mu sync.RWMutex

	Requests       int64
	Failures       int64
	ErrorsByKind   map[string]int64
	TotalLatency   time.Duration
	AverageLatency time.Duration
	P95Latency     time.Duration
	P99Latency     time.Duration

	ShotsSampled  int64
	Measurements  int64
	BudgetHits    int64
	SessionsAlive func() int

	latencyWindows []timeWindow
	windowSize     int
}

func newMetrics() *Metrics {
	return &Metrics{
		ErrorsByKind:   make(map[string]int64),
		latencyWindows: make([]timeWindow, 0, 1000),
		windowSize:     1000,
	}
}

// recordRequest accounts one finished request and its outcome kind ("" on success).
func (m *Metrics) recordRequest(startTime time.Time, kind string) {
	duration := time.Since(startTime)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests++
	m.TotalLatency += duration
	if kind != "" {
		m.Failures++
		m.ErrorsByKind[kind]++
	}

	m.updateLatencyPercentiles(duration)
}

func (m *Metrics) recordShots(shots int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Measurements++
	m.ShotsSampled += int64(shots)
}

func (m *Metrics) recordBudgetHit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BudgetHits++
}

func (m *Metrics) updateLatencyPercentiles(duration time.Duration) {
	m.AverageLatency = m.TotalLatency / time.Duration(m.Requests)

	m.latencyWindows = append(m.latencyWindows, timeWindow{
		duration: duration,
		count:    1,
	})
	if len(m.latencyWindows) > m.windowSize {
		m.latencyWindows = m.latencyWindows[1:]
	}

	sorted := make([]time.Duration, 0, len(m.latencyWindows))
	for _, w := range m.latencyWindows {
		for i := 0; i < w.count; i++ {
			sorted = append(sorted, w.duration)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	if len(sorted) > 0 {
		p95Index := min(int(float64(len(sorted))*0.95), len(sorted)-1)
		p99Index := min(int(float64(len(sorted))*0.99), len(sorted)-1)

		m.P95Latency = sorted[p95Index]
		m.P99Latency = sorted[p99Index]
	}
}

// ExportMetrics returns a JSON-ready copy of the current metrics.
func (m *Metrics) ExportMetrics() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	errorsByKind := make(map[string]int64, len(m.ErrorsByKind))
	for k, v := range m.ErrorsByKind {
		errorsByKind[k] = v
	}

	successRate := 1.0
	if m.Requests > 0 {
		successRate = float64(m.Requests-m.Failures) / float64(m.Requests)
	}

	sessions := 0
	if m.SessionsAlive != nil {
		sessions = m.SessionsAlive()
	}

	return map[string]interface{}{
		"requests":       m.Requests,
		"success_rate":   successRate,
		"errors_by_kind": errorsByKind,
		"avg_latency_us": m.AverageLatency.Microseconds(),
		"p95_latency_us": m.P95Latency.Microseconds(),
		"p99_latency_us": m.P99Latency.Microseconds(),
		"measurements":   m.Measurements,
		"shots_sampled":  m.ShotsSampled,
		"budget_hits":    m.BudgetHits,
		"sessions":       sessions,
	}
}
