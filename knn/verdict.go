package knn

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/FrenchMajesty/dns-sequence-classifier/label"
)

// ErrInvalidK is returned when k, or a k range, is not positive
var ErrInvalidK = errors.New("k must be at least 1")

// TieSeparator joins tied labels in a verdict string
const TieSeparator = " - "

// VerdictKind says how many labels won the vote
type VerdictKind uint8

const (
	// VerdictNone means no neighbor voted
	VerdictNone VerdictKind = iota
	// VerdictSingle means one label has the strict majority of votes
	VerdictSingle
	// VerdictTie means several labels share the highest vote count
	VerdictTie
)

func (k VerdictKind) String() string {
	switch k {
	case VerdictSingle:
		return "single"
	case VerdictTie:
		return "tie"
	default:
		return "none"
	}
}

func (k VerdictKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *VerdictKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "none":
		*k = VerdictNone
	case "single":
		*k = VerdictSingle
	case "tie":
		*k = VerdictTie
	default:
		return fmt.Errorf("unknown verdict kind %q", text)
	}
	return nil
}

// Verdict is the outcome of a vote. Labels are sorted by their string form.
type Verdict struct {
	Kind   VerdictKind   `json:"kind"`
	Labels []label.Label `json:"labels"`
}

// String renders a single label as itself and a tie as the sorted labels
// joined by TieSeparator
func (v Verdict) String() string {
	parts := make([]string, len(v.Labels))
	for i, l := range v.Labels {
		parts[i] = l.String()
	}
	return strings.Join(parts, TieSeparator)
}

// Winner returns the label of a single verdict
func (v Verdict) Winner() (label.Label, bool) {
	if v.Kind != VerdictSingle {
		return 0, false
	}
	return v.Labels[0], true
}

// Contains reports whether l is among the winning labels
func (v Verdict) Contains(l label.Label) bool {
	return slices.Contains(v.Labels, l)
}

// LabelOption summarizes the votes for one label within a neighborhood
type LabelOption struct {
	Label       label.Label `json:"label"`
	Count       int         `json:"count"`
	MinDistance uint64      `json:"min_distance"`
	MaxDistance uint64      `json:"max_distance"`
}

// Result is the classification of one query at one k
type Result struct {
	K         int           `json:"k"`
	Neighbors []Neighbor    `json:"neighbors"`
	Options   []LabelOption `json:"options"`
	Verdict   Verdict       `json:"verdict"`
}

// Decide counts votes over a neighborhood and builds the verdict
func Decide(neighbors []Neighbor, k int) Result {
	res := Result{
		K:         k,
		Neighbors: slices.Clone(neighbors),
	}
	if len(neighbors) == 0 {
		return res
	}

	byLabel := make(map[label.Label]*LabelOption)
	for _, n := range neighbors {
		opt, ok := byLabel[n.Label]
		if !ok {
			opt = &LabelOption{Label: n.Label, MinDistance: n.Distance, MaxDistance: n.Distance}
			byLabel[n.Label] = opt
		}
		opt.Count++
		opt.MinDistance = min(opt.MinDistance, n.Distance)
		opt.MaxDistance = max(opt.MaxDistance, n.Distance)
	}

	best := 0
	for _, opt := range byLabel {
		res.Options = append(res.Options, *opt)
		best = max(best, opt.Count)
	}
	slices.SortFunc(res.Options, func(a, b LabelOption) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		if c := cmp.Compare(a.MinDistance, b.MinDistance); c != 0 {
			return c
		}
		return strings.Compare(a.Label.String(), b.Label.String())
	})

	tied := mapset.NewThreadUnsafeSet[label.Label]()
	for _, opt := range res.Options {
		if opt.Count == best {
			tied.Add(opt.Label)
		}
	}

	labels := tied.ToSlice()
	slices.SortFunc(labels, func(a, b label.Label) int {
		return strings.Compare(a.String(), b.String())
	})
	res.Verdict = Verdict{Kind: VerdictSingle, Labels: labels}
	if len(labels) > 1 {
		res.Verdict.Kind = VerdictTie
	}
	return res
}
