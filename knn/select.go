package knn

import (
	"container/heap"
	"slices"
)

// boundedHeap is a max-heap: the worst kept neighbor sits at index 0
type boundedHeap []Neighbor

func (h boundedHeap) Len() int           { return len(h) }
func (h boundedHeap) Less(i, j int) bool { return Less(h[j], h[i]) }
func (h boundedHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *boundedHeap) Push(x any) {
	*h = append(*h, x.(Neighbor))
}

func (h *boundedHeap) Pop() any {
	old := *h
	n := old[len(old)-1]
	*h = old[:len(old)-1]
	return n
}

// Nearest returns the k smallest candidates in Compare order, followed by every
// other candidate whose distance equals the k-th smallest distance.
//
// Candidates are streamed once through a heap of at most k entries; the
// boundary ties are the only extra memory. Returns nil for k < 1.
func Nearest(candidates []Neighbor, k int) []Neighbor {
	if k < 1 || len(candidates) == 0 {
		return nil
	}

	h := make(boundedHeap, 0, k)
	var ties []Neighbor

	for _, c := range candidates {
		if len(h) < k {
			heap.Push(&h, c)
			continue
		}

		worst := h[0]
		switch {
		case Less(c, worst):
			h[0] = c
			heap.Fix(&h, 0)
			// the evicted entry stays as a tie only while the boundary distance is unchanged
			if worst.Distance == h[0].Distance {
				ties = append(ties, worst)
			} else {
				ties = ties[:0]
			}
		case c.Distance == worst.Distance:
			ties = append(ties, c)
		}
	}

	out := make([]Neighbor, 0, len(h)+len(ties))
	out = append(out, h...)
	slices.SortFunc(out, Compare)
	slices.SortFunc(ties, Compare)
	return append(out, ties...)
}
