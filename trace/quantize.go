// Package trace turns decoded DNS transactions into token sequences.
//
// Capture and wire decoding happen elsewhere; this package starts from
// timestamped messages and applies the size padding and gap bucketing that
// define the token alphabet.
package trace

import (
	"fmt"
	"math"
	"math/bits"
	"time"
)

// Direction says whether a message travels to or from the resolver
type Direction uint8

const (
	Response Direction = iota
	Query
)

func (d Direction) String() string {
	if d == Query {
		return "query"
	}
	return "response"
}

// Default quantization parameters: block padding of 128 bytes for queries and
// 468 bytes for responses, and gaps measured in milliseconds
const (
	DefaultQueryBlock    = 128
	DefaultResponseBlock = 468
	DefaultGapBase       = time.Millisecond
)

// Quantizer maps raw sizes and gaps to token magnitudes
type Quantizer interface {
	// Size returns the magnitude of a message of size bytes
	Size(size int, dir Direction) uint16
	// Gap returns the magnitude of a pause, or false when the pause is too
	// short to be observable
	Gap(d time.Duration) (uint16, bool)
}

// BlockQuantizer pads sizes to whole blocks and buckets gaps logarithmically
type BlockQuantizer struct {
	QueryBlock    int
	ResponseBlock int
	GapBase       time.Duration
}

// DefaultQuantizer returns the quantizer for padded DNS-over-TLS traffic
func DefaultQuantizer() BlockQuantizer {
	return BlockQuantizer{
		QueryBlock:    DefaultQueryBlock,
		ResponseBlock: DefaultResponseBlock,
		GapBase:       DefaultGapBase,
	}
}

// Validate rejects non-positive parameters
func (q BlockQuantizer) Validate() error {
	if q.QueryBlock <= 0 || q.ResponseBlock <= 0 {
		return fmt.Errorf("block sizes must be positive, got query=%d response=%d", q.QueryBlock, q.ResponseBlock)
	}
	if q.GapBase <= 0 {
		return fmt.Errorf("gap base must be positive, got %s", q.GapBase)
	}
	return nil
}

// Size returns the number of padding blocks a message of size bytes occupies
func (q BlockQuantizer) Size(size int, dir Direction) uint16 {
	block := q.ResponseBlock
	if dir == Query {
		block = q.QueryBlock
	}
	if size <= 0 {
		return 0
	}

	n := (size + block - 1) / block
	if n > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(n)
}

// Gap returns floor(log2(n)) where n = ceil(d/base) - 1. Pauses that give 0
// produce no token.
func (q BlockQuantizer) Gap(d time.Duration) (uint16, bool) {
	if d <= q.GapBase {
		return 0, false
	}

	n := uint64((d+q.GapBase-1)/q.GapBase) - 1
	exp := bits.Len64(n) - 1
	if exp <= 0 {
		return 0, false
	}
	return uint16(exp), true
}
