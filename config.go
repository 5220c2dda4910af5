package classifier

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/FrenchMajesty/dns-sequence-classifier/cost"
	"github.com/FrenchMajesty/dns-sequence-classifier/internal/distcache"
	"github.com/FrenchMajesty/dns-sequence-classifier/internal/metrics"
	"github.com/FrenchMajesty/dns-sequence-classifier/internal/pairwise"
	"github.com/FrenchMajesty/dns-sequence-classifier/knn"
)

const (
	// DefaultK is the neighborhood size used when Config.K is 0
	DefaultK = 1
)

// Config holds configuration for the Classifier
type Config struct {
	// CostModel prices edit operations. If zero, uses cost.Default().
	CostModel cost.Model

	// K is the number of nearest neighbors that vote. If 0, uses DefaultK.
	K int

	// TieBreaker decides which neighbors vote when several share the k-th distance.
	// If nil, uses knn.IncludeTies.
	TieBreaker knn.TieBreaker

	// Workers bounds concurrent distance computations. If 0, uses GOMAXPROCS.
	Workers int

	// Metric overrides the edit distance. If nil, uses the edit distance under CostModel.
	Metric pairwise.Metric

	// Cache memoizes distances. If nil, the process-wide cache for CostModel is
	// shared, or a private cache when a custom Metric is set.
	Cache *distcache.Cache

	// MaxNormalizedDistance drops corpus entries whose distance divided by the
	// longer sequence's length exceeds it. If 0, every entry is a candidate.
	MaxNormalizedDistance float64

	// Logger receives structured logs. If nil, logging is disabled.
	Logger *zap.Logger

	// Metrics receives Prometheus observations. If nil, nothing is recorded.
	Metrics *metrics.Metrics
}

// applyDefaults fills in default values for unset config fields
func (c *Config) applyDefaults() {
	if c.CostModel == (cost.Model{}) {
		c.CostModel = cost.Default()
	}

	if c.K == 0 {
		c.K = DefaultK
	}

	if c.TieBreaker == nil {
		c.TieBreaker = knn.IncludeTies{}
	}

	if c.Cache == nil {
		if c.Metric == nil {
			c.Cache = distcache.For(c.CostModel)
		} else {
			c.Cache = distcache.New()
		}
	}

	if c.Metric == nil {
		c.Metric = pairwise.CostMetric{Model: c.CostModel}
	}

	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

// validate rejects configurations that cannot classify
func (c *Config) validate() error {
	if err := c.CostModel.Validate(); err != nil {
		return err
	}
	if c.K < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidK, c.K)
	}
	if c.MaxNormalizedDistance < 0 {
		return fmt.Errorf("max normalized distance must not be negative, got %g", c.MaxNormalizedDistance)
	}
	return nil
}
