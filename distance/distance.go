// Package distance computes the edit distance between two sequences.
//
// The distance is a Damerau-Levenshtein variant (optimal string alignment):
// insert, delete, substitute and transpose adjacent tokens, each priced by a cost.Model.
package distance

import (
	"github.com/FrenchMajesty/dns-sequence-classifier/cost"
	"github.com/FrenchMajesty/dns-sequence-classifier/sequence"
)

// Distance returns the minimal edit cost to transform a into b.
//
// Runs in O(len(a)*len(b)) time. Only three rows of the DP grid are kept, each as
// long as the shorter sequence.
func Distance(a, b *sequence.Sequence, m cost.Model) uint64 {
	return tokens(a.Elements(), b.Elements(), m)
}

func tokens(x, y []sequence.Token, m cost.Model) uint64 {
	// the metric is symmetric, so let y be the shorter one
	if len(x) < len(y) {
		x, y = y, x
	}

	if len(y) == 0 {
		var total uint64
		for _, t := range x {
			total += m.Insert(t)
		}
		return total
	}

	prevPrev := make([]uint64, len(y)+1)
	prev := make([]uint64, len(y)+1)
	cur := make([]uint64, len(y)+1)

	for j, t := range y {
		prev[j+1] = prev[j] + m.Insert(t)
	}

	for i, ti := range x {
		cur[0] = prev[0] + m.Delete(ti)

		for j, tj := range y {
			best := prev[j+1] + m.Delete(ti)
			if c := cur[j] + m.Insert(tj); c < best {
				best = c
			}
			if c := prev[j] + m.Substitute(ti, tj); c < best {
				best = c
			}
			if i > 0 && j > 0 && ti != tj && ti == y[j-1] && x[i-1] == tj {
				if c := prevPrev[j-1] + m.Swap(); c < best {
					best = c
				}
			}
			cur[j+1] = best
		}

		prevPrev, prev, cur = prev, cur, prevPrev
	}

	return prev[len(y)]
}

// Normalized divides d by the length of the longer sequence.
// Returns 0 when d is 0, which also covers two empty sequences.
func Normalized(d uint64, a, b *sequence.Sequence) float64 {
	if d == 0 {
		return 0
	}
	n := a.Len()
	if b.Len() > n {
		n = b.Len()
	}
	return float64(d) / float64(n)
}
