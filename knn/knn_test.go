package knn_test

import (
	"encoding/json"
	"math/rand"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FrenchMajesty/dns-sequence-classifier/knn"
	"github.com/FrenchMajesty/dns-sequence-classifier/label"
)

func neighbors(pairs ...any) []knn.Neighbor {
	var out []knn.Neighbor
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, knn.Neighbor{
			Distance: uint64(pairs[i].(int)),
			Label:    label.Intern(pairs[i+1].(string)),
			Index:    i / 2,
		})
	}
	return out
}

func TestNearest_KeepsSmallestAndBoundaryTies(t *testing.T) {
	cands := neighbors(9, "a", 3, "b", 5, "c", 3, "d", 5, "e", 1, "f", 5, "g")

	got := knn.Nearest(cands, 3)
	dists := make([]uint64, len(got))
	for i, n := range got {
		dists[i] = n.Distance
	}
	assert.Equal(t, []uint64{1, 3, 3}, dists)

	got = knn.Nearest(cands, 4)
	require.Len(t, got, 6)
	assert.Equal(t, "f", got[0].Label.String())
	assert.Equal(t, "c", got[3].Label.String())
	assert.Equal(t, "e", got[4].Label.String())
	assert.Equal(t, "g", got[5].Label.String())
}

func TestNearest_Degenerate(t *testing.T) {
	assert.Nil(t, knn.Nearest(nil, 3))
	assert.Nil(t, knn.Nearest(neighbors(1, "a"), 0))
	assert.Len(t, knn.Nearest(neighbors(1, "a", 2, "b"), 5), 2)
}

func TestNearest_OrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	cands := make([]knn.Neighbor, 200)
	for i := range cands {
		cands[i] = knn.Neighbor{
			Distance: uint64(rng.Intn(20)),
			Label:    label.Intern(string(rune('a' + rng.Intn(5)))),
			Index:    i,
		}
	}

	want := knn.Nearest(cands, 10)
	for trial := 0; trial < 5; trial++ {
		shuffled := slices.Clone(cands)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, want, knn.Nearest(shuffled, 10))
	}

	sorted := slices.Clone(cands)
	slices.SortFunc(sorted, knn.Compare)
	assert.Equal(t, sorted[:10], want[:10])
}

func TestClassify_ExactDuplicatesTie(t *testing.T) {
	cands := neighbors(0, "a", 0, "b")

	res, err := knn.Classify(cands, 1, knn.IncludeTies{})
	require.NoError(t, err)
	assert.Equal(t, knn.VerdictTie, res.Verdict.Kind)
	assert.Equal(t, "a - b", res.Verdict.String())
	assert.Len(t, res.Neighbors, 2)

	_, ok := res.Verdict.Winner()
	assert.False(t, ok)
	assert.True(t, res.Verdict.Contains(label.Intern("a")))
	assert.True(t, res.Verdict.Contains(label.Intern("b")))
}

func TestClassify_DeterministicCutsAtK(t *testing.T) {
	cands := neighbors(0, "b", 0, "a")

	res, err := knn.Classify(cands, 1, knn.Deterministic{})
	require.NoError(t, err)
	assert.Equal(t, knn.VerdictSingle, res.Verdict.Kind)
	assert.Equal(t, "a", res.Verdict.String())
}

func TestClassify_Majority(t *testing.T) {
	cands := neighbors(1, "x", 2, "y", 3, "x", 40, "y", 50, "y")

	res, err := knn.Classify(cands, 3, nil)
	require.NoError(t, err)

	winner, ok := res.Verdict.Winner()
	require.True(t, ok)
	assert.Equal(t, "x", winner.String())

	require.Len(t, res.Options, 2)
	assert.Equal(t, knn.LabelOption{Label: label.Intern("x"), Count: 2, MinDistance: 1, MaxDistance: 3}, res.Options[0])
	assert.Equal(t, knn.LabelOption{Label: label.Intern("y"), Count: 1, MinDistance: 2, MaxDistance: 2}, res.Options[1])
}

func TestClassify_TieLabelsSorted(t *testing.T) {
	cands := neighbors(1, "netflix.com", 2, "Google Inc.")

	res, err := knn.Classify(cands, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, "Google Inc. - netflix.com", res.Verdict.String())
}

func TestClassify_InvalidK(t *testing.T) {
	_, err := knn.Classify(neighbors(1, "a"), 0, nil)
	assert.ErrorIs(t, err, knn.ErrInvalidK)

	_, err = knn.ClassifyRange(neighbors(1, "a"), 3, 2, nil)
	assert.ErrorIs(t, err, knn.ErrInvalidK)
}

func TestClassify_NoCandidates(t *testing.T) {
	res, err := knn.Classify(nil, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, knn.VerdictNone, res.Verdict.Kind)
	assert.Empty(t, res.Verdict.String())
}

func TestClassifyRange_MatchesSingleK(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	cands := make([]knn.Neighbor, 300)
	for i := range cands {
		cands[i] = knn.Neighbor{
			Distance: uint64(rng.Intn(30)),
			Label:    label.Intern(string(rune('p' + rng.Intn(4)))),
			Index:    i,
		}
	}

	for _, tb := range []knn.TieBreaker{knn.Deterministic{}, knn.IncludeTies{}} {
		batch, err := knn.ClassifyRange(cands, 1, 7, tb)
		require.NoError(t, err)
		require.Len(t, batch, 7)

		for i, got := range batch {
			want, err := knn.Classify(cands, i+1, tb)
			require.NoError(t, err)
			assert.Equal(t, want, got, "%s k=%d", tb.Name(), i+1)
		}
	}
}

func TestClassify_Concurrent(t *testing.T) {
	cands := neighbors(4, "c", 4, "a", 4, "b", 9, "a")
	want, err := knn.Classify(cands, 2, knn.IncludeTies{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := knn.Classify(cands, 2, knn.IncludeTies{})
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}

func TestTieBreakerByName(t *testing.T) {
	tb, err := knn.TieBreakerByName("")
	require.NoError(t, err)
	assert.Equal(t, "include-ties", tb.Name())

	tb, err = knn.TieBreakerByName("deterministic")
	require.NoError(t, err)
	assert.Equal(t, "deterministic", tb.Name())

	_, err = knn.TieBreakerByName("coin-flip")
	assert.Error(t, err)
}

func TestVerdict_JSON(t *testing.T) {
	res, err := knn.Classify(neighbors(0, "a", 0, "b"), 1, knn.IncludeTies{})
	require.NoError(t, err)

	data, err := json.Marshal(res.Verdict)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"tie","labels":["a","b"]}`, string(data))

	var back knn.Verdict
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, res.Verdict, back)
}
