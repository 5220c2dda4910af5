package distance

import (
	"fmt"
	"sort"

	"github.com/FrenchMajesty/dns-sequence-classifier/cost"
	"github.com/FrenchMajesty/dns-sequence-classifier/sequence"
)

// OpKind is an edit operation
type OpKind uint8

const (
	OpMatch OpKind = iota
	OpInsert
	OpDelete
	OpSubstitute
	OpSwap
)

func (o OpKind) String() string {
	switch o {
	case OpMatch:
		return "match"
	case OpInsert:
		return "insert"
	case OpDelete:
		return "delete"
	case OpSubstitute:
		return "substitute"
	case OpSwap:
		return "swap"
	default:
		return "unknown"
	}
}

// Operation is one step of an alignment. From is the token of a, To the token of b;
// the unused side is left zero for inserts and deletes.
type Operation struct {
	Kind OpKind
	From sequence.Token
	To   sequence.Token
	Cost uint64
}

// Breakdown attributes the cost of one optimal alignment to operation categories
type Breakdown struct {
	Total      uint64
	Operations []Operation
	// Costs is keyed like "insert_gap" or "substitute_size_gap"
	Costs map[string]uint64
}

// Explain computes the distance with the full DP matrix and walks back one optimal
// alignment. It needs O(len(a)*len(b)) memory and is meant for debugging.
func Explain(a, b *sequence.Sequence, m cost.Model) Breakdown {
	x, y := a.Elements(), b.Elements()
	cols := len(y) + 1
	d := make([]uint64, (len(x)+1)*cols)
	at := func(i, j int) *uint64 { return &d[i*cols+j] }

	for j, t := range y {
		*at(0, j+1) = *at(0, j) + m.Insert(t)
	}
	for i, t := range x {
		*at(i+1, 0) = *at(i, 0) + m.Delete(t)
	}

	for i := 1; i <= len(x); i++ {
		for j := 1; j <= len(y); j++ {
			ti, tj := x[i-1], y[j-1]
			best := *at(i-1, j) + m.Delete(ti)
			if c := *at(i, j-1) + m.Insert(tj); c < best {
				best = c
			}
			if c := *at(i-1, j-1) + m.Substitute(ti, tj); c < best {
				best = c
			}
			if swappable(x, y, i, j) {
				if c := *at(i-2, j-2) + m.Swap(); c < best {
					best = c
				}
			}
			*at(i, j) = best
		}
	}

	var ops []Operation
	i, j := len(x), len(y)
	for i > 0 || j > 0 {
		cell := *at(i, j)
		switch {
		case i > 0 && j > 0 && cell == *at(i-1, j-1)+m.Substitute(x[i-1], y[j-1]):
			kind := OpSubstitute
			if x[i-1] == y[j-1] {
				kind = OpMatch
			}
			ops = append(ops, Operation{Kind: kind, From: x[i-1], To: y[j-1], Cost: m.Substitute(x[i-1], y[j-1])})
			i, j = i-1, j-1
		case swappable(x, y, i, j) && cell == *at(i-2, j-2)+m.Swap():
			ops = append(ops, Operation{Kind: OpSwap, From: x[i-2], To: x[i-1], Cost: m.Swap()})
			i, j = i-2, j-2
		case i > 0 && cell == *at(i-1, j)+m.Delete(x[i-1]):
			ops = append(ops, Operation{Kind: OpDelete, From: x[i-1], Cost: m.Delete(x[i-1])})
			i--
		default:
			ops = append(ops, Operation{Kind: OpInsert, To: y[j-1], Cost: m.Insert(y[j-1])})
			j--
		}
	}

	// walked backwards
	for l, r := 0, len(ops)-1; l < r; l, r = l+1, r-1 {
		ops[l], ops[r] = ops[r], ops[l]
	}

	res := Breakdown{
		Total:      *at(len(x), len(y)),
		Operations: ops,
		Costs:      make(map[string]uint64),
	}
	for _, op := range ops {
		if op.Kind == OpMatch {
			continue
		}
		res.Costs[op.category()] += op.Cost
	}
	return res
}

func swappable(x, y []sequence.Token, i, j int) bool {
	return i > 1 && j > 1 && x[i-1] != y[j-1] && x[i-1] == y[j-2] && x[i-2] == y[j-1]
}

func (o Operation) category() string {
	switch o.Kind {
	case OpInsert:
		return "insert_" + o.To.Kind.String()
	case OpDelete:
		return "delete_" + o.From.Kind.String()
	default:
		return fmt.Sprintf("%s_%s_%s", o.Kind, o.From.Kind, o.To.Kind)
	}
}

// Categories returns the cost categories in sorted order
func (b Breakdown) Categories() []string {
	keys := make([]string, 0, len(b.Costs))
	for k := range b.Costs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
