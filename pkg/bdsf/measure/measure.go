// Package measure collects per-op timings for a processing run.
package measure

import (
	"sync"
	"time"
)

// Measure accumulates op metrics. Safe for concurrent use so parallel
// ops can report independently.
type Measure interface {
	AddMetric(name string) Metric
	AllMetrics() map[string]Metric
	TotalDuration() time.Duration
	SetTotalDuration(d time.Duration)
}

// Metric is the timing record of a single op.
type Metric interface {
	AddDuration(elapsed time.Duration)
	Duration() time.Duration
	Runs() int
}

type DefaultMeasure struct {
	mu    sync.Mutex
	steps map[string]Metric
	total time.Duration
}

func NewDefaultMeasure() *DefaultMeasure {
	return &DefaultMeasure{
		steps: make(map[string]Metric),
	}
}

func (m *DefaultMeasure) AddMetric(name string) Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mt, ok := m.steps[name]; ok {
		return mt
	}
	mt := &DefaultMetric{}
	m.steps[name] = mt

	return mt
}

func (m *DefaultMeasure) AllMetrics() map[string]Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]Metric, len(m.steps))
	for name, mt := range m.steps {
		out[name] = mt
	}

	return out
}

func (m *DefaultMeasure) TotalDuration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.total
}

func (m *DefaultMeasure) SetTotalDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total = d
}

var _ Measure = (*DefaultMeasure)(nil)

type DefaultMetric struct {
	mu      sync.Mutex
	elapsed time.Duration
	runs    int
}

func (mt *DefaultMetric) AddDuration(elapsed time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	mt.elapsed += elapsed
	mt.runs++
}

func (mt *DefaultMetric) Duration() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.elapsed
}

func (mt *DefaultMetric) Runs() int {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.runs
}

var _ Metric = (*DefaultMetric)(nil)
