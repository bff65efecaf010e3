package logger

import (
	"sync"
	"time"
)

// Metrics tracks counters, gauges and timings. All methods are safe for
// concurrent use.
type Metrics struct {
	mu       sync.Mutex
	counters map[string]int64
	gauges   map[string]float64
	timings  map[string]*timing
}

// timing aggregates durations without keeping every sample
type timing struct {
	count    int
	total    time.Duration
	min, max time.Duration
}

// Snapshot is a point-in-time copy of a Metrics
type Snapshot struct {
	Counters map[string]int64       `json:"counters"`
	Gauges   map[string]float64     `json:"gauges"`
	Timings  map[string]TimingStats `json:"timings"`
}

// TimingStats summarizes the durations recorded under one name
type TimingStats struct {
	Count   int    `json:"count"`
	Total   string `json:"total"`
	Average string `json:"average"`
	Min     string `json:"min"`
	Max     string `json:"max"`
}

var defaultMetrics = NewMetrics()

// NewMetrics creates an empty tracker
func NewMetrics() *Metrics {
	return &Metrics{
		counters: make(map[string]int64),
		gauges:   make(map[string]float64),
		timings:  make(map[string]*timing),
	}
}

// DefaultMetrics returns the package-level tracker
func DefaultMetrics() *Metrics {
	return defaultMetrics
}

func (m *Metrics) IncrCounter(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name]++
}

// Counter returns the current value of a counter
func (m *Metrics) Counter(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[name]
}

// SetGauge overwrites a gauge
func (m *Metrics) SetGauge(name string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[name] = value
}

func (m *Metrics) RecordTiming(name string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.timings[name]
	if !ok {
		m.timings[name] = &timing{count: 1, total: d, min: d, max: d}
		return
	}
	t.count++
	t.total += d
	t.min = min(t.min, d)
	t.max = max(t.max, d)
}

// Snapshot returns a deep copy of the current values.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		Counters: make(map[string]int64, len(m.counters)),
		Gauges:   make(map[string]float64, len(m.gauges)),
		Timings:  make(map[string]TimingStats, len(m.timings)),
	}
	for k, v := range m.counters {
		s.Counters[k] = v
	}
	for k, v := range m.gauges {
		s.Gauges[k] = v
	}
	for k, t := range m.timings {
		s.Timings[k] = TimingStats{
			Count:   t.count,
			Total:   t.total.String(),
			Average: (t.total / time.Duration(t.count)).String(),
			Min:     t.min.String(),
			Max:     t.max.String(),
		}
	}
	return s
}

// IncrCounter increments a counter on the default tracker
func IncrCounter(name string) {
	defaultMetrics.IncrCounter(name)
}

// RecordTiming records a timing on the default tracker
func RecordTiming(name string, d time.Duration) {
	defaultMetrics.RecordTiming(name, d)
}
