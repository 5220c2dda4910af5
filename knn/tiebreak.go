package knn

import (
	"fmt"
)

// TieBreaker decides which neighbors vote when several share the k-th distance.
// sorted is the output of Nearest and must not be modified.
type TieBreaker interface {
	Name() string
	Neighborhood(sorted []Neighbor, k int) []Neighbor
}

// Deterministic keeps exactly the first k neighbors in Compare order
type Deterministic struct{}

func (Deterministic) Name() string { return "deterministic" }

func (Deterministic) Neighborhood(sorted []Neighbor, k int) []Neighbor {
	return sorted[:min(k, len(sorted))]
}

// IncludeTies keeps the first k neighbors plus everything at the boundary distance
type IncludeTies struct{}

func (IncludeTies) Name() string { return "include-ties" }

func (IncludeTies) Neighborhood(sorted []Neighbor, k int) []Neighbor {
	n := min(k, len(sorted))
	if n == 0 {
		return nil
	}
	boundary := sorted[n-1].Distance
	for n < len(sorted) && sorted[n].Distance == boundary {
		n++
	}
	return sorted[:n]
}

// TieBreakerByName resolves a tie-break policy from its configured name.
// An empty name selects IncludeTies.
func TieBreakerByName(name string) (TieBreaker, error) {
	switch name {
	case "deterministic":
		return Deterministic{}, nil
	case "", "include-ties":
		return IncludeTies{}, nil
	default:
		return nil, fmt.Errorf("unknown tie-break policy %q", name)
	}
}
