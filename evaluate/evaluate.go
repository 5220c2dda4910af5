// Package evaluate measures classifier accuracy with k-fold cross validation.
package evaluate

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	classifier "github.com/FrenchMajesty/dns-sequence-classifier"
	"github.com/FrenchMajesty/dns-sequence-classifier/corpus"
	"github.com/FrenchMajesty/dns-sequence-classifier/report"
)

const (
	// DefaultMaxK is the largest neighborhood evaluated when Options.MaxK is 0
	DefaultMaxK = 3

	// DefaultKStep evaluates odd k only, where two labels cannot split the vote evenly
	DefaultKStep = 2
)

// Sink receives every row whose outcome is not Correct
type Sink interface {
	Write(row report.Row) error
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(row report.Row) error

func (f SinkFunc) Write(row report.Row) error {
	return f(row)
}

// Options configures a cross validation run
type Options struct {
	// Classifier is the base configuration of every fold's classifier. Its K is ignored.
	Classifier classifier.Config

	// Folds is the number of folds. If 0, uses corpus.DefaultFolds.
	Folds int

	// MaxK is the largest k evaluated. If 0, uses DefaultMaxK.
	MaxK int

	// KStep is the stride from k=1 up to MaxK. If 0, uses DefaultKStep.
	KStep int

	// Queries bounds how many test sequences of a fold are classified at once.
	// If 0, uses runtime.GOMAXPROCS(0).
	Queries int

	// Sink receives misclassified rows. If nil, they are only counted.
	Sink Sink

	// Diagnoser tags misclassified rows with a known reason. Optional.
	Diagnoser *report.Diagnoser

	// Collector accumulates outcomes. If nil, a new one is created.
	Collector *report.Collector

	Logger *zap.Logger
}

func (o *Options) applyDefaults() {
	if o.Folds == 0 {
		o.Folds = corpus.DefaultFolds
	}
	if o.MaxK == 0 {
		o.MaxK = DefaultMaxK
	}
	if o.KStep == 0 {
		o.KStep = DefaultKStep
	}
	if o.Queries == 0 {
		o.Queries = runtime.GOMAXPROCS(0)
	}
	if o.Collector == nil {
		o.Collector = report.NewCollector()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Classifier.Logger == nil {
		o.Classifier.Logger = o.Logger
	}
}

func (o *Options) validate() error {
	if o.Folds < 2 {
		return fmt.Errorf("need at least 2 folds, got %d", o.Folds)
	}
	if o.MaxK < 1 {
		return fmt.Errorf("max k %d: %w", o.MaxK, classifier.ErrInvalidK)
	}
	if o.KStep < 1 {
		return fmt.Errorf("k step must be positive, got %d", o.KStep)
	}
	if o.Queries < 1 {
		return fmt.Errorf("query concurrency must be positive, got %d", o.Queries)
	}
	return nil
}

// Ks returns the evaluated neighborhood sizes
func (o Options) Ks() []int {
	o.applyDefaults()
	var ks []int
	for k := 1; k <= o.MaxK; k += o.KStep {
		ks = append(ks, k)
	}
	return ks
}

// Result is the outcome of a cross validation run
type Result struct {
	Summaries []report.Summary
	Collector *report.Collector
	Skipped   int
	Duration  time.Duration
}

// Run evaluates groups fold by fold. Sample i of every group is tested in fold
// i % Folds against a classifier trained on the remaining samples. Distances
// are memoized across folds and k values through the classifier's cache.
func Run(ctx context.Context, groups []corpus.Group, opts Options) (*Result, error) {
	opts.applyDefaults()
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid evaluation options: %w", err)
	}
	if corpus.Len(groups) == 0 {
		return nil, classifier.ErrEmptyCorpus
	}

	start := time.Now()
	ks := opts.Ks()
	res := &Result{Collector: opts.Collector}
	log := opts.Logger

	for fold := 0; fold < opts.Folds; fold++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		train, test, err := corpus.Split(groups, fold, opts.Folds)
		if err != nil {
			return nil, err
		}
		if len(test) == 0 {
			log.Debug("fold has no test samples", zap.Int("fold", fold))
			continue
		}

		cfg := opts.Classifier
		cfg.K = ks[0]
		c, err := classifier.NewClassifier(cfg, corpus.Flatten(train))
		if errors.Is(err, classifier.ErrEmptyCorpus) {
			log.Warn("fold has no training samples", zap.Int("fold", fold), zap.Int("test", len(test)))
			res.Skipped += len(test)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("fold %d: %w", fold, err)
		}

		log.Info("testing fold",
			zap.Int("fold", fold),
			zap.Int("train", corpus.Len(train)),
			zap.Int("test", len(test)),
		)

		perEntry, err := classifyFold(ctx, c, test, ks[len(ks)-1], opts.Queries)
		if err != nil {
			return nil, fmt.Errorf("fold %d: %w", fold, err)
		}

		// rows are emitted in test order whatever order the queries finished in
		for i, entry := range test {
			results := perEntry[i]
			for _, k := range ks {
				r := results[k-1]
				row := report.NewRow(r.QueryID, entry.Domain, r.Result, entry.Label)
				if row.Outcome != report.Correct {
					row.Reason = opts.Diagnoser.Diagnose(entry.Sequence)
				}
				opts.Collector.Add(fold, row)

				if row.Outcome == report.Correct || opts.Sink == nil {
					continue
				}
				if err := opts.Sink.Write(row); err != nil {
					log.Error("cannot record misclassification", zap.String("id", row.QueryID), zap.Error(err))
				}
			}
		}

		m := c.GetMetrics()
		log.Info("fold done",
			zap.Int("fold", fold),
			zap.Int("classifications", m.Classifications),
			zap.Float32("tie_rate", m.TieRate),
		)
	}

	for _, k := range ks {
		res.Summaries = append(res.Summaries, opts.Collector.Summary(k))
	}
	res.Duration = time.Since(start)

	log.Info("cross validation done",
		zap.Int("folds", opts.Folds),
		zap.Ints("k", ks),
		zap.Int("skipped", res.Skipped),
		zap.Duration("took", res.Duration),
	)
	return res, nil
}

// classifyFold classifies every test entry for k in [1, maxK], up to limit at a
// time. Results are indexed like test.
func classifyFold(ctx context.Context, c *classifier.Classifier, test []corpus.Entry, maxK, limit int) ([][]*classifier.Result, error) {
	out := make([][]*classifier.Result, len(test))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, entry := range test {
		g.Go(func() error {
			results, err := c.ClassifyRange(gctx, entry.Sequence, 1, maxK)
			if err != nil {
				return fmt.Errorf("sequence %s: %w", entry.Sequence.ID(), err)
			}
			out[i] = results
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
