package classifier

import (
	"github.com/FrenchMajesty/dns-sequence-classifier/knn"
)

// Result represents the classification of one query sequence at one k
type Result struct {
	// QueryID is the identifier of the classified sequence
	QueryID string `json:"query_id"`

	// Neighbors, label options and the verdict.
	// Verdict.Kind tells a single label apart from a tied label set.
	knn.Result
}

// Metrics provides statistics about the classifier's state
type Metrics struct {
	// CorpusSize is the number of labeled sequences compared against
	CorpusSize int

	// UniqueLabels is the number of distinct labels in the corpus
	UniqueLabels int

	// Classifications is the number of verdicts produced, one per query and k
	Classifications int

	// SingleVerdicts, TiedVerdicts and EmptyVerdicts count verdicts by kind
	SingleVerdicts int
	TiedVerdicts   int
	EmptyVerdicts  int

	// CachedDistances is the number of distances memoized in the cache
	CachedDistances int

	// TieRate is the percentage of verdicts that were ties
	TieRate float32
}
