// Package classifier labels DNS traffic sequences by their nearest neighbors in a
// labeled corpus.
//
// Distances are a Damerau-style edit distance over size and gap tokens, memoized
// per sequence pair, and fanned out over the corpus in parallel. The verdict is a
// plurality vote among the k nearest entries; a tie is reported as the sorted set
// of tied labels rather than broken arbitrarily.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/FrenchMajesty/dns-sequence-classifier/corpus"
	"github.com/FrenchMajesty/dns-sequence-classifier/distance"
	"github.com/FrenchMajesty/dns-sequence-classifier/internal/metrics"
	"github.com/FrenchMajesty/dns-sequence-classifier/internal/pairwise"
	"github.com/FrenchMajesty/dns-sequence-classifier/knn"
	"github.com/FrenchMajesty/dns-sequence-classifier/label"
	"github.com/FrenchMajesty/dns-sequence-classifier/sequence"
)

var (
	// ErrEmptyCorpus is returned when there is nothing to compare against
	ErrEmptyCorpus = errors.New("corpus is empty")

	// ErrInvalidK is returned when k is smaller than 1
	ErrInvalidK = knn.ErrInvalidK
)

// Classifier classifies sequences against a fixed labeled corpus
type Classifier struct {
	entries       []corpus.Entry
	targets       []pairwise.Target
	labels        int
	scheduler     *pairwise.Scheduler
	k             int
	tieBreaker    knn.TieBreaker
	maxNormalized float64
	logger        *zap.Logger
	metrics       *metrics.Metrics

	// Metrics tracking
	classifications int
	singleVerdicts  int
	tiedVerdicts    int
	emptyVerdicts   int
	metricsLock     sync.RWMutex
}

// NewClassifier creates a new Classifier over entries with the given configuration
func NewClassifier(cfg Config, entries []corpus.Entry) (*Classifier, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid classifier config: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrEmptyCorpus
	}

	scheduler, err := pairwise.NewScheduler(pairwise.Config{
		Metric:  cfg.Metric,
		Cache:   cfg.Cache,
		Workers: cfg.Workers,
		Logger:  cfg.Logger,
		Metrics: cfg.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	targets := make([]pairwise.Target, len(entries))
	seen := make(map[label.Label]struct{})
	for i, e := range entries {
		if e.Sequence == nil {
			return nil, fmt.Errorf("corpus entry %d (%s) has no sequence", i, e.Domain)
		}
		targets[i] = pairwise.NewTarget(e.Sequence)
		seen[e.Label] = struct{}{}
	}

	c := &Classifier{
		entries:       append([]corpus.Entry(nil), entries...),
		targets:       targets,
		labels:        len(seen),
		scheduler:     scheduler,
		k:             cfg.K,
		tieBreaker:    cfg.TieBreaker,
		maxNormalized: cfg.MaxNormalizedDistance,
		logger:        cfg.Logger,
		metrics:       cfg.Metrics,
	}

	c.logger.Info("classifier ready",
		zap.Int("corpus", len(entries)),
		zap.Int("labels", c.labels),
		zap.Int("k", c.k),
		zap.String("tie_break", c.tieBreaker.Name()),
		zap.Int("workers", scheduler.Workers()),
	)
	return c, nil
}

// Classify classifies query with the configured k
func (c *Classifier) Classify(ctx context.Context, query *sequence.Sequence) (*Result, error) {
	return c.ClassifyK(ctx, query, c.k)
}

// ClassifyK classifies query with an explicit k
func (c *Classifier) ClassifyK(ctx context.Context, query *sequence.Sequence, k int) (*Result, error) {
	results, err := c.ClassifyRange(ctx, query, k, k)
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// ClassifyRange classifies query for every k in [kMin, kMax]. Distances are
// computed once; each result equals ClassifyK for its k.
func (c *Classifier) ClassifyRange(ctx context.Context, query *sequence.Sequence, kMin, kMax int) ([]*Result, error) {
	if kMin < 1 || kMax < kMin {
		return nil, fmt.Errorf("%w: range [%d, %d]", ErrInvalidK, kMin, kMax)
	}
	if query == nil {
		return nil, fmt.Errorf("cannot classify a nil sequence")
	}

	start := time.Now()
	defer c.metrics.ObserveClassify(start)

	distances, err := c.scheduler.Distances(ctx, pairwise.NewTarget(query), c.targets)
	if err != nil {
		return nil, fmt.Errorf("failed to compute distances: %w", err)
	}

	knnResults, err := knn.ClassifyRange(c.candidates(query, distances), kMin, kMax, c.tieBreaker)
	if err != nil {
		return nil, err
	}

	results := make([]*Result, len(knnResults))
	for i, r := range knnResults {
		results[i] = &Result{QueryID: query.ID(), Result: r}
		c.recordVerdict(r.Verdict.Kind)
	}

	c.logger.Debug("classified sequence",
		zap.String("query", query.ID()),
		zap.Int("k_min", kMin),
		zap.Int("k_max", kMax),
		zap.Stringer("verdict", results[0].Verdict),
		zap.Duration("elapsed", time.Since(start)),
	)
	return results, nil
}

// ClassifyAll classifies every query with k in parallel. Results are in input order.
func (c *Classifier) ClassifyAll(ctx context.Context, queries []*sequence.Sequence, k int) ([]*Result, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}

	results := make([]*Result, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.scheduler.Workers())

	for i, q := range queries {
		g.Go(func() error {
			r, err := c.ClassifyK(gctx, q, k)
			if err != nil {
				return fmt.Errorf("query %d: %w", i, err)
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// candidates pairs each corpus entry with its distance, dropping entries past
// the normalized distance threshold
func (c *Classifier) candidates(query *sequence.Sequence, distances []uint64) []knn.Neighbor {
	out := make([]knn.Neighbor, 0, len(distances))
	for i, d := range distances {
		e := c.entries[i]
		norm := distance.Normalized(d, query, e.Sequence)
		if c.maxNormalized > 0 && norm > c.maxNormalized {
			continue
		}
		out = append(out, knn.Neighbor{
			Distance:   d,
			Normalized: norm,
			Label:      e.Label,
			Index:      i,
			SequenceID: e.Sequence.ID(),
		})
	}
	return out
}

// Entries returns the corpus entries in index order
func (c *Classifier) Entries() []corpus.Entry {
	return append([]corpus.Entry(nil), c.entries...)
}

// GetMetrics returns current classification metrics
func (c *Classifier) GetMetrics() Metrics {
	c.metricsLock.RLock()
	defer c.metricsLock.RUnlock()

	var tieRate float32
	if c.classifications > 0 {
		tieRate = float32(c.tiedVerdicts) / float32(c.classifications) * 100
	}

	return Metrics{
		CorpusSize:      len(c.entries),
		UniqueLabels:    c.labels,
		Classifications: c.classifications,
		SingleVerdicts:  c.singleVerdicts,
		TiedVerdicts:    c.tiedVerdicts,
		EmptyVerdicts:   c.emptyVerdicts,
		CachedDistances: c.scheduler.Cache().Len(),
		TieRate:         tieRate,
	}
}

// recordVerdict records one verdict for metrics
func (c *Classifier) recordVerdict(kind knn.VerdictKind) {
	c.metrics.Verdict(kind.String())

	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.classifications++
	switch kind {
	case knn.VerdictSingle:
		c.singleVerdicts++
	case knn.VerdictTie:
		c.tiedVerdicts++
	default:
		c.emptyVerdicts++
	}
}

// Classify classifies query against entries with k neighbors under the
// default configuration
func Classify(ctx context.Context, query *sequence.Sequence, entries []corpus.Entry, k int) (*Result, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}

	clf, err := NewClassifier(Config{K: k}, entries)
	if err != nil {
		return nil, err
	}
	return clf.Classify(ctx, query)
}
