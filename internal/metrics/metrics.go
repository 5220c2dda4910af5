// Package metrics exposes Prometheus collectors for the classification engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	DistanceComputations prometheus.Counter
	CacheHits            prometheus.Counter
	CacheMisses          prometheus.Counter
	ClassifyDuration     prometheus.Histogram
	Verdicts             *prometheus.CounterVec
	registry             *prometheus.Registry
}

// New creates and registers all collectors
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		DistanceComputations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dnsseq_distance_computations_total",
			Help: "Total number of edit distances computed (cache misses that ran the DP)",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dnsseq_distance_cache_hits_total",
			Help: "Total number of distance lookups served from the cache",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dnsseq_distance_cache_misses_total",
			Help: "Total number of distance lookups not found in the cache",
		}),
		ClassifyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dnsseq_classify_duration_seconds",
			Help:    "Time to classify one query sequence against the corpus",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		Verdicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dnsseq_verdicts_total",
				Help: "Total number of verdicts by kind",
			},
			[]string{"kind"},
		),
		registry: registry,
	}

	registry.MustRegister(m.DistanceComputations)
	registry.MustRegister(m.CacheHits)
	registry.MustRegister(m.CacheMisses)
	registry.MustRegister(m.ClassifyDuration)
	registry.MustRegister(m.Verdicts)

	return m
}

// Registry returns the registry holding the collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// CacheHit counts one cache hit
func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.CacheHits.Inc()
}

// CacheMiss counts one cache miss that computed a distance
func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.CacheMisses.Inc()
	m.DistanceComputations.Inc()
}

// ObserveClassify records the duration of one classification
func (m *Metrics) ObserveClassify(start time.Time) {
	if m == nil {
		return
	}
	m.ClassifyDuration.Observe(time.Since(start).Seconds())
}

// Verdict counts one verdict of the given kind
func (m *Metrics) Verdict(kind string) {
	if m == nil {
		return
	}
	m.Verdicts.WithLabelValues(kind).Inc()
}

// WriteTextfile writes all collectors in the Prometheus text format to path
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
