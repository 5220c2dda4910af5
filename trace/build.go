package trace

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/FrenchMajesty/dns-sequence-classifier/sequence"
)

// ErrNoTransactions is returned when a trace holds nothing to build a sequence from
var ErrNoTransactions = errors.New("no DNS transactions in trace")

// Transaction is one observed DNS message
type Transaction struct {
	Time      time.Time
	Size      int
	Direction Direction
}

// Mode simulates countermeasures while building a sequence
type Mode uint8

const (
	// ModeNormal keeps sizes and gaps
	ModeNormal Mode = iota
	// ModePerfectPadding drops sizes, as if every message had the same size.
	// A Gap(0) separates messages that had no observable pause so the message
	// count survives.
	ModePerfectPadding
	// ModePerfectTiming drops gaps, as if messages were sent at a constant rate
	ModePerfectTiming
)

func (m Mode) String() string {
	switch m {
	case ModePerfectPadding:
		return "perfect-padding"
	case ModePerfectTiming:
		return "perfect-timing"
	default:
		return "normal"
	}
}

// ParseMode resolves a mode from its name
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "normal":
		return ModeNormal, nil
	case "perfect-padding":
		return ModePerfectPadding, nil
	case "perfect-timing":
		return ModePerfectTiming, nil
	default:
		return ModeNormal, fmt.Errorf("unknown countermeasure mode %q", s)
	}
}

// BuildSequence orders txs by time and emits, for each transaction, an optional
// gap token for the pause since the previous one followed by its size token.
func BuildSequence(id string, txs []Transaction, q Quantizer, mode Mode) (*sequence.Sequence, error) {
	if len(txs) == 0 {
		return nil, ErrNoTransactions
	}

	sorted := slices.Clone(txs)
	slices.SortStableFunc(sorted, func(a, b Transaction) int {
		return a.Time.Compare(b.Time)
	})

	s := sequence.New(id, make([]sequence.Token, 0, 2*len(sorted)))
	for i, tx := range sorted {
		if i > 0 {
			g, ok := q.Gap(tx.Time.Sub(sorted[i-1].Time))
			switch mode {
			case ModePerfectTiming:
			case ModePerfectPadding:
				s.Append(sequence.Gap(g))
			default:
				if ok {
					s.Append(sequence.Gap(g))
				}
			}
		}

		if mode != ModePerfectPadding {
			s.Append(sequence.Size(q.Size(tx.Size, tx.Direction)))
		}
	}

	return s, nil
}
