package knn

import (
	"fmt"
)

// Classify selects the neighborhood of size k and votes on it.
// A nil TieBreaker means IncludeTies. No candidates yield a VerdictNone result.
func Classify(candidates []Neighbor, k int, tb TieBreaker) (Result, error) {
	results, err := ClassifyRange(candidates, k, k, tb)
	if err != nil {
		return Result{}, err
	}
	return results[0], nil
}

// ClassifyRange classifies for every k in [kMin, kMax] from a single selection.
// Each result equals what Classify returns for that k.
func ClassifyRange(candidates []Neighbor, kMin, kMax int, tb TieBreaker) ([]Result, error) {
	if kMin < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidK, kMin)
	}
	if kMax < kMin {
		return nil, fmt.Errorf("%w: range [%d, %d] is empty", ErrInvalidK, kMin, kMax)
	}
	if tb == nil {
		tb = IncludeTies{}
	}

	sorted := Nearest(candidates, kMax)
	results := make([]Result, 0, kMax-kMin+1)
	for k := kMin; k <= kMax; k++ {
		results = append(results, Decide(tb.Neighborhood(sorted, k), k))
	}
	return results, nil
}
