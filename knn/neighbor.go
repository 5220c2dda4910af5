// Package knn selects the nearest labeled sequences and votes on a label.
package knn

import (
	"cmp"
	"strings"

	"github.com/FrenchMajesty/dns-sequence-classifier/label"
)

// Neighbor is one corpus entry with its distance to the query
type Neighbor struct {
	Distance   uint64      `json:"distance"`
	Normalized float64     `json:"normalized"`
	Label      label.Label `json:"label"`
	// Index is the position of the entry in the corpus
	Index      int    `json:"index"`
	SequenceID string `json:"sequence_id"`
}

// Compare orders neighbors by distance, then label string, then corpus index.
// This is a total order for neighbors taken from one corpus, which makes every
// selection independent of the order candidates arrive in.
func Compare(a, b Neighbor) int {
	if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
		return c
	}
	if a.Label != b.Label {
		if c := strings.Compare(a.Label.String(), b.Label.String()); c != 0 {
			return c
		}
	}
	return cmp.Compare(a.Index, b.Index)
}

// Less reports whether a sorts before b
func Less(a, b Neighbor) bool {
	return Compare(a, b) < 0
}
