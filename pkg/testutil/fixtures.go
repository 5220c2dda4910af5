// Package testutil provides mocks and corpus fixtures for tests.
package testutil

import (
	"fmt"
	"math/rand"
	"slices"
	"testing"

	"github.com/FrenchMajesty/dns-sequence-classifier/corpus"
	"github.com/FrenchMajesty/dns-sequence-classifier/sequence"
)

// Sequence parses text into a sequence, failing the test on error
func Sequence(t testing.TB, id, text string) *sequence.Sequence {
	t.Helper()
	s, err := sequence.Parse(id, text)
	if err != nil {
		t.Fatalf("parse %s: %v", id, err)
	}
	return s
}

// Groups builds one group per domain, in sorted domain order. Sequence i of a
// domain gets the id "<domain>-<i>".
func Groups(t testing.TB, byDomain map[string][]string) []corpus.Group {
	t.Helper()

	domains := make([]string, 0, len(byDomain))
	for d := range byDomain {
		domains = append(domains, d)
	}
	slices.Sort(domains)

	groups := make([]corpus.Group, 0, len(domains))
	for _, d := range domains {
		var seqs []*sequence.Sequence
		for i, text := range byDomain[d] {
			seqs = append(seqs, Sequence(t, fmt.Sprintf("%s-%d", d, i), text))
		}
		groups = append(groups, corpus.NewGroup(d, seqs...))
	}
	return groups
}

// RandomGroups builds n domains with perGroup random sequences each. Every domain
// shares a base pattern that its sequences perturb, so neighbors tend to agree.
// The same seed always yields the same corpus.
func RandomGroups(seed int64, n, perGroup, maxLen int) []corpus.Group {
	rng := rand.New(rand.NewSource(seed))

	groups := make([]corpus.Group, n)
	for g := range groups {
		base := randomTokens(rng, 1+rng.Intn(maxLen))

		seqs := make([]*sequence.Sequence, perGroup)
		for i := range seqs {
			tokens := slices.Clone(base)
			for e := rng.Intn(3); e > 0 && len(tokens) > 0; e-- {
				tokens[rng.Intn(len(tokens))] = randomTokens(rng, 1)[0]
			}
			seqs[i] = sequence.New(fmt.Sprintf("seed%d-d%d-%d", seed, g, i), tokens)
		}
		groups[g] = corpus.NewGroup(fmt.Sprintf("seed%d-domain%d.example", seed, g), seqs...)
	}
	return groups
}

func randomTokens(rng *rand.Rand, n int) []sequence.Token {
	tokens := make([]sequence.Token, n)
	for i := range tokens {
		if rng.Intn(3) == 0 {
			tokens[i] = sequence.Gap(uint16(rng.Intn(12)))
		} else {
			tokens[i] = sequence.Size(uint16(1 + rng.Intn(6)))
		}
	}
	return tokens
}
