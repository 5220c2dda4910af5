package testutil

import (
	"sync"

	"github.com/FrenchMajesty/dns-sequence-classifier/cost"
	"github.com/FrenchMajesty/dns-sequence-classifier/distance"
	"github.com/FrenchMajesty/dns-sequence-classifier/sequence"
)

// CountingMetric is a distance metric that records every call
type CountingMetric struct {
	DistanceFunc func(a, b *sequence.Sequence) uint64

	mu        sync.Mutex
	CallCount int
	Pairs     [][2]string
}

func (m *CountingMetric) Distance(a, b *sequence.Sequence) uint64 {
	m.mu.Lock()
	m.CallCount++
	m.Pairs = append(m.Pairs, [2]string{a.ID(), b.ID()})
	m.mu.Unlock()

	if m.DistanceFunc != nil {
		return m.DistanceFunc(a, b)
	}
	// Default: the edit distance under the default cost model
	return distance.Distance(a, b, cost.Default())
}

// Calls returns the number of distances computed so far
func (m *CountingMetric) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// Reset clears the call history
func (m *CountingMetric) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCount = 0
	m.Pairs = nil
}
