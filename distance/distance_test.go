package distance_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FrenchMajesty/dns-sequence-classifier/cost"
	"github.com/FrenchMajesty/dns-sequence-classifier/distance"
	"github.com/FrenchMajesty/dns-sequence-classifier/sequence"
)

func mustParse(t *testing.T, text string) *sequence.Sequence {
	t.Helper()
	s, err := sequence.Parse(text, text)
	require.NoError(t, err)
	return s
}

func randomSequence(r *rand.Rand, maxLen int) *sequence.Sequence {
	n := r.Intn(maxLen + 1)
	tokens := make([]sequence.Token, n)
	for i := range tokens {
		// small magnitudes so that equal tokens and swaps actually occur
		if r.Intn(2) == 0 {
			tokens[i] = sequence.Size(uint16(1 + r.Intn(3)))
		} else {
			tokens[i] = sequence.Gap(uint16(1 + r.Intn(4)))
		}
	}
	return sequence.New("random", tokens)
}

func TestDistance_SingleEdits(t *testing.T) {
	m := cost.Default()
	base := mustParse(t, "S01 G02 S01 S02 S01")

	tests := []struct {
		name  string
		other string
		want  uint64
	}{
		{"substitution", "S02 G02 S01 S02 S01", 13},
		{"swapping", "S01 G02 S02 S01 S01", 20},
		{"deletion", "S01 S01 S02 S01", 10},
		{"insertion", "S01 S02 G02 S01 S02 S01", 20},
		{"equal", "S01 G02 S01 S02 S01", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, distance.Distance(base, mustParse(t, tt.other), m))
		})
	}
}

func TestDistance_Identity(t *testing.T) {
	m := cost.Default()
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		s := randomSequence(r, 12)
		assert.Equal(t, uint64(0), distance.Distance(s, s, m), "sequence %s", s)
	}
}

func TestDistance_Symmetry(t *testing.T) {
	m := cost.Default()
	r := rand.New(rand.NewSource(2))
	for i := 0; i < 500; i++ {
		a, b := randomSequence(r, 10), randomSequence(r, 10)
		assert.Equal(t, distance.Distance(a, b, m), distance.Distance(b, a, m), "a=%s b=%s", a, b)
	}
}

func TestDistance_NoFalseZero(t *testing.T) {
	m := cost.Default()
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 500; i++ {
		a, b := randomSequence(r, 6), randomSequence(r, 6)
		if distance.Distance(a, b, m) == 0 {
			assert.True(t, a.Equal(b), "distance 0 between a=%s b=%s", a, b)
		}
	}
}

func TestDistance_EmptyBoundary(t *testing.T) {
	m := cost.Default()
	empty := sequence.New("empty", nil)
	r := rand.New(rand.NewSource(4))

	assert.Equal(t, uint64(0), distance.Distance(empty, sequence.New("other", nil), m))

	for i := 0; i < 100; i++ {
		b := randomSequence(r, 10)
		var want uint64
		for _, tok := range b.Elements() {
			want += m.Insert(tok)
		}
		assert.Equal(t, want, distance.Distance(empty, b, m))
		assert.Equal(t, want, distance.Distance(b, empty, m))
	}
}

func TestDistance_EmptyQueryAgainstSizeAndGap(t *testing.T) {
	m := cost.Default()
	got := distance.Distance(sequence.New("q", nil), mustParse(t, "S10 G05"), m)
	assert.Equal(t, uint64(m.InsertSizeCost+5*m.InsertGapScale), got)
}

func TestDistance_AdjacentSwapCostsSwap(t *testing.T) {
	m := cost.Default()

	a := mustParse(t, "S01 G03 S02 S04 G01")
	b := mustParse(t, "S01 G03 S04 S02 G01")
	got := distance.Distance(a, b, m)

	assert.Equal(t, m.Swap(), got)
	assert.Less(t, got, 2*m.SizeToSize())
}

func TestDistance_SwapNotUsedWhenSubstitutionsAreCheaper(t *testing.T) {
	m := cost.Default()

	// two gap substitutions of |3-4|*2 each are cheaper than one swap
	a := mustParse(t, "G03 G04")
	b := mustParse(t, "G04 G03")
	assert.Equal(t, 2*m.GapToGap(3, 4), distance.Distance(a, b, m))
}

func TestDistance_BiggerGapsCostMore(t *testing.T) {
	m := cost.Default()
	empty := sequence.New("e", nil)
	assert.Less(t, distance.Distance(empty, mustParse(t, "G03"), m), distance.Distance(empty, mustParse(t, "G10"), m))

	twoSizes := mustParse(t, "S01 S01")
	assert.Less(t,
		distance.Distance(twoSizes, mustParse(t, "S01 G03 S01"), m),
		distance.Distance(twoSizes, mustParse(t, "S01 G10 S01"), m))

	gap10 := mustParse(t, "G10")
	assert.Less(t, distance.Distance(gap10, mustParse(t, "G09"), m), distance.Distance(gap10, mustParse(t, "G01"), m))
	assert.Greater(t, distance.Distance(mustParse(t, "S01"), mustParse(t, "G09"), m), distance.Distance(gap10, mustParse(t, "G09"), m))
}

func TestDistance_MatchesExplain(t *testing.T) {
	m := cost.Default()
	r := rand.New(rand.NewSource(5))
	for i := 0; i < 200; i++ {
		a, b := randomSequence(r, 9), randomSequence(r, 9)
		breakdown := distance.Explain(a, b, m)
		assert.Equal(t, distance.Distance(a, b, m), breakdown.Total, "a=%s b=%s", a, b)

		var sum uint64
		for _, op := range breakdown.Operations {
			sum += op.Cost
		}
		assert.Equal(t, breakdown.Total, sum, "operations must add up, a=%s b=%s", a, b)
	}
}

func TestExplain_Categories(t *testing.T) {
	m := cost.Default()
	a := mustParse(t, "S01 G02 S01 S02 S01")
	b := mustParse(t, "S01 S01 S02 S01 G04")

	breakdown := distance.Explain(a, b, m)
	assert.Equal(t, uint64(10+20), breakdown.Total)
	assert.Equal(t, []string{"delete_gap", "insert_gap"}, breakdown.Categories())
	assert.Equal(t, uint64(10), breakdown.Costs["delete_gap"])
	assert.Equal(t, uint64(20), breakdown.Costs["insert_gap"])
}

func TestExplain_Swap(t *testing.T) {
	m := cost.Default()
	breakdown := distance.Explain(mustParse(t, "S01 S02"), mustParse(t, "S02 S01"), m)

	require.Len(t, breakdown.Operations, 1)
	assert.Equal(t, distance.OpSwap, breakdown.Operations[0].Kind)
	assert.Equal(t, uint64(20), breakdown.Costs["swap_size_size"])
}

func TestNormalized(t *testing.T) {
	a := mustParse(t, "S01 G02")
	b := mustParse(t, "S01 G02 S03 G04")
	assert.Equal(t, 0.0, distance.Normalized(0, a, b))
	assert.Equal(t, 10.0, distance.Normalized(40, a, b))
	assert.Equal(t, 10.0, distance.Normalized(40, b, a))
}

func BenchmarkDistance(b *testing.B) {
	m := cost.Default()
	r := rand.New(rand.NewSource(6))
	x, y := randomSequence(r, 150), randomSequence(r, 150)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		distance.Distance(x, y, m)
	}
}
