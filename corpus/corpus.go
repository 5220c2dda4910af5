// Package corpus holds labeled sequences and reads and writes them.
package corpus

import (
	"fmt"

	"github.com/FrenchMajesty/dns-sequence-classifier/label"
	"github.com/FrenchMajesty/dns-sequence-classifier/sequence"
	"github.com/FrenchMajesty/dns-sequence-classifier/utils/disjoint_set"
)

// DefaultFolds is the number of folds used for cross validation
const DefaultFolds = 10

// Entry is one labeled sequence.
// Domain is the website the trace was recorded for; Label is what a
// classifier should answer, which differs from Domain when aliases apply.
type Entry struct {
	Domain   string             `json:"domain"`
	Label    label.Label        `json:"label"`
	Sequence *sequence.Sequence `json:"sequence"`
}

// Group is every sequence recorded for one domain
type Group struct {
	Domain    string               `json:"domain"`
	Label     label.Label          `json:"label"`
	Sequences []*sequence.Sequence `json:"sequences"`
}

// NewGroup creates a group labeled with its own domain
func NewGroup(domain string, seqs ...*sequence.Sequence) Group {
	return Group{
		Domain:    domain,
		Label:     label.Intern(domain),
		Sequences: seqs,
	}
}

// defaultLabel labels a group with its own domain when no label was stored
func (g *Group) defaultLabel() {
	if g.Label == 0 {
		g.Label = label.Intern(g.Domain)
	}
}

// Entries returns the group's sequences as entries
func (g Group) Entries() []Entry {
	out := make([]Entry, len(g.Sequences))
	for i, s := range g.Sequences {
		out[i] = Entry{Domain: g.Domain, Label: g.Label, Sequence: s}
	}
	return out
}

// Flatten returns the entries of all groups in order
func Flatten(groups []Group) []Entry {
	n := 0
	for _, g := range groups {
		n += len(g.Sequences)
	}

	out := make([]Entry, 0, n)
	for _, g := range groups {
		out = append(out, g.Entries()...)
	}
	return out
}

// Len returns the total number of sequences
func Len(groups []Group) int {
	n := 0
	for _, g := range groups {
		n += len(g.Sequences)
	}
	return n
}

// ApplyAliases relabels every group with the canonical label of its domain
func ApplyAliases(groups []Group, aliases *disjoint_set.DSU) []Group {
	out := make([]Group, len(groups))
	for i, g := range groups {
		g.Label = label.Intern(aliases.Canonical(g.Domain))
		out[i] = g
	}
	return out
}

// Split separates groups into training data and test entries for one fold.
// Sequence i of a group is a test entry when i % folds == fold; every other
// sequence stays in training.
func Split(groups []Group, fold, folds int) ([]Group, []Entry, error) {
	if folds < 2 {
		return nil, nil, fmt.Errorf("need at least 2 folds, got %d", folds)
	}
	if fold < 0 || fold >= folds {
		return nil, nil, fmt.Errorf("fold %d out of range [0, %d)", fold, folds)
	}

	training := make([]Group, 0, len(groups))
	var test []Entry

	for _, g := range groups {
		kept := make([]*sequence.Sequence, 0, len(g.Sequences))
		for i, s := range g.Sequences {
			if i%folds == fold {
				test = append(test, Entry{Domain: g.Domain, Label: g.Label, Sequence: s})
				continue
			}
			kept = append(kept, s)
		}

		g.Sequences = kept
		training = append(training, g)
	}

	return training, test, nil
}
