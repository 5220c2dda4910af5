// Package pairwise fans distance computations out over a corpus.
package pairwise

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/FrenchMajesty/dns-sequence-classifier/cost"
	"github.com/FrenchMajesty/dns-sequence-classifier/distance"
	"github.com/FrenchMajesty/dns-sequence-classifier/internal/distcache"
	"github.com/FrenchMajesty/dns-sequence-classifier/internal/metrics"
	"github.com/FrenchMajesty/dns-sequence-classifier/sequence"
)

// DefaultChunkSize is the number of corpus entries one task handles
const DefaultChunkSize = 64

// Metric computes the distance between two sequences.
// Implementations must be safe for concurrent use and symmetric.
type Metric interface {
	Distance(a, b *sequence.Sequence) uint64
}

// MetricFunc adapts a function to Metric
type MetricFunc func(a, b *sequence.Sequence) uint64

func (f MetricFunc) Distance(a, b *sequence.Sequence) uint64 {
	return f(a, b)
}

// CostMetric is the edit distance under a cost model
type CostMetric struct {
	Model cost.Model
}

func (m CostMetric) Distance(a, b *sequence.Sequence) uint64 {
	return distance.Distance(a, b, m.Model)
}

// Target is a sequence together with its content handle
type Target struct {
	Handle   sequence.Handle
	Sequence *sequence.Sequence
}

// NewTarget interns s and wraps it
func NewTarget(s *sequence.Sequence) Target {
	return Target{Handle: sequence.Intern(s), Sequence: s}
}

// Config holds configuration for a Scheduler
type Config struct {
	// Metric computes distances on cache misses. Required.
	Metric Metric

	// Cache memoizes distances. If nil, a private cache is used.
	Cache *distcache.Cache

	// Workers bounds the number of concurrent tasks. If 0, uses GOMAXPROCS.
	Workers int

	// ChunkSize is the number of corpus entries per task. If 0, uses DefaultChunkSize.
	ChunkSize int

	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

func (c *Config) applyDefaults() {
	if c.Cache == nil {
		c.Cache = distcache.New()
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

// Scheduler computes memoized distances from a query to every corpus entry
type Scheduler struct {
	metric    Metric
	cache     *distcache.Cache
	workers   int
	chunkSize int
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// NewScheduler creates a Scheduler with the given configuration
func NewScheduler(cfg Config) (*Scheduler, error) {
	if cfg.Metric == nil {
		return nil, fmt.Errorf("pairwise scheduler requires a metric")
	}
	cfg.applyDefaults()

	return &Scheduler{
		metric:    cfg.Metric,
		cache:     cfg.Cache,
		workers:   cfg.Workers,
		chunkSize: cfg.ChunkSize,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
	}, nil
}

// Workers returns the concurrency limit
func (s *Scheduler) Workers() int {
	return s.workers
}

// Cache returns the cache backing the scheduler
func (s *Scheduler) Cache() *distcache.Cache {
	return s.cache
}

// Distances returns the distance from query to each corpus entry, aligned with corpus.
// Cancellation is observed between chunks.
func (s *Scheduler) Distances(ctx context.Context, query Target, corpus []Target) ([]uint64, error) {
	out := make([]uint64, len(corpus))
	if len(corpus) == 0 {
		return out, nil
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for lo := 0; lo < len(corpus); lo += s.chunkSize {
		hi := min(lo+s.chunkSize, len(corpus))
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := lo; i < hi; i++ {
				out[i] = s.Pair(query, corpus[i])
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to compute distances for %s: %w", query.Sequence.ID(), err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to compute distances for %s: %w", query.Sequence.ID(), err)
	}

	s.logger.Debug("computed distances",
		zap.String("query", query.Sequence.ID()),
		zap.Int("corpus", len(corpus)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

// Pair returns the distance between a and b, consulting the cache first
func (s *Scheduler) Pair(a, b Target) uint64 {
	if a.Handle == b.Handle {
		return 0
	}
	if d, ok := s.cache.Get(a.Handle, b.Handle); ok {
		s.metrics.CacheHit()
		return d
	}

	d := s.metric.Distance(a.Sequence, b.Sequence)
	s.cache.Put(a.Handle, b.Handle, d)
	s.metrics.CacheMiss()
	return d
}
