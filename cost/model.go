// Package cost defines the edit operation costs between sequence tokens.
//
// The constants are guesses that are expected to be tuned empirically, so every
// value is configuration rather than a compile-time constant.
package cost

import (
	"errors"
	"fmt"

	"github.com/FrenchMajesty/dns-sequence-classifier/sequence"
)

const (
	// DefaultInsertSizeCost is the cost of inserting or deleting any size token
	DefaultInsertSizeCost = 20

	// DefaultInsertGapScale multiplies the gap magnitude on insert or delete
	DefaultInsertGapScale = 5

	// DefaultSwapCost is the flat cost of transposing two adjacent tokens
	DefaultSwapCost = 20

	// DefaultSizeSubstituteDivisor divides insert+delete cost for a size->size substitution
	DefaultSizeSubstituteDivisor = 3

	// DefaultGapSubstituteScale multiplies the magnitude difference of a gap->gap substitution
	DefaultGapSubstituteScale = 2
)

// ErrInvalidModel is returned for cost models that cannot define a distance
var ErrInvalidModel = errors.New("invalid cost model")

// Model holds the tunable cost parameters
type Model struct {
	InsertSizeCost        int64 `json:"insert_size_cost" yaml:"insert_size_cost"`
	InsertGapScale        int64 `json:"insert_gap_scale" yaml:"insert_gap_scale"`
	SwapCost              int64 `json:"swap_cost" yaml:"swap_cost"`
	SizeSubstituteDivisor int64 `json:"size_substitute_divisor" yaml:"size_substitute_divisor"`
	GapSubstituteScale    int64 `json:"gap_to_gap_scale" yaml:"gap_to_gap_scale"`
}

// Default returns the pre-optimization cost model
func Default() Model {
	return Model{
		InsertSizeCost:        DefaultInsertSizeCost,
		InsertGapScale:        DefaultInsertGapScale,
		SwapCost:              DefaultSwapCost,
		SizeSubstituteDivisor: DefaultSizeSubstituteDivisor,
		GapSubstituteScale:    DefaultGapSubstituteScale,
	}
}

// Validate rejects models with negative costs or zero-cost edits
func (m Model) Validate() error {
	fields := []struct {
		name  string
		value int64
	}{
		{"insert_size_cost", m.InsertSizeCost},
		{"insert_gap_scale", m.InsertGapScale},
		{"swap_cost", m.SwapCost},
		{"size_substitute_divisor", m.SizeSubstituteDivisor},
		{"gap_to_gap_scale", m.GapSubstituteScale},
	}
	for _, f := range fields {
		if f.value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidModel, f.name, f.value)
		}
	}

	// a zero size->size substitution would collapse distinct sequences to distance 0
	if m.SizeToSize() == 0 {
		return fmt.Errorf("%w: size->size substitution rounds to 0 (insert_size_cost %d, divisor %d)",
			ErrInvalidModel, m.InsertSizeCost, m.SizeSubstituteDivisor)
	}

	return nil
}

// Insert returns the cost of inserting t. Deleting t costs the same.
func (m Model) Insert(t sequence.Token) uint64 {
	if t.IsGap() {
		return uint64(t.Magnitude) * uint64(m.InsertGapScale)
	}
	return uint64(m.InsertSizeCost)
}

// Delete returns the cost of deleting t
func (m Model) Delete(t sequence.Token) uint64 {
	return m.Insert(t)
}

// Substitute returns the cost of replacing a by b
func (m Model) Substitute(a, b sequence.Token) uint64 {
	if a == b {
		return 0
	}

	switch {
	case !a.IsGap() && !b.IsGap():
		return m.SizeToSize()
	case a.IsGap() && b.IsGap():
		return m.GapToGap(a.Magnitude, b.Magnitude)
	case a.IsGap():
		return m.GapToSize(a.Magnitude)
	default:
		return m.SizeToGap(b.Magnitude)
	}
}

// Swap returns the cost of transposing two adjacent tokens
func (m Model) Swap() uint64 {
	return uint64(m.SwapCost)
}

// SizeToSize is the cost of replacing one size token by a different one
func (m Model) SizeToSize() uint64 {
	return uint64(m.InsertSizeCost+m.InsertSizeCost) / uint64(m.SizeSubstituteDivisor)
}

// SizeToGap is the cost of replacing a size token by Gap(g): a delete plus an insert
func (m Model) SizeToGap(g uint16) uint64 {
	return uint64(m.InsertSizeCost) + uint64(g)*uint64(m.InsertGapScale)
}

// GapToSize is the cost of replacing Gap(g) by a size token
func (m Model) GapToSize(g uint16) uint64 {
	return m.SizeToGap(g)
}

// GapToGap is the cost of replacing Gap(g1) by Gap(g2)
func (m Model) GapToGap(g1, g2 uint16) uint64 {
	var diff uint16
	if g1 > g2 {
		diff = g1 - g2
	} else {
		diff = g2 - g1
	}
	return uint64(diff) * uint64(m.GapSubstituteScale)
}
