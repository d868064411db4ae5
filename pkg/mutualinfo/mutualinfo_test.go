package mutualinfo

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-12

func TestNormalizedMutualInfo(t *testing.T) {
	tests := []struct {
		name string
		a, b []int
		want float64
	}{
		{"Identical", []int{0, 0, 1, 1}, []int{0, 0, 1, 1}, 1.0},
		{"Relabelled", []int{0, 0, 1, 1}, []int{1, 1, 0, 0}, 1.0},
		{"AllDistinct", []int{0, 1, 2}, []int{5, 7, 9}, 1.0},
		{"SingleVsDistinct", []int{0, 0, 0, 0}, []int{0, 1, 2, 3}, 0.0},
		{"BothSingle", []int{3, 3, 3}, []int{1, 1, 1}, 1.0},
		{"Empty", []int{}, []int{}, 1.0},
		{"Independent", []int{0, 0, 1, 1}, []int{0, 1, 0, 1}, 0.0},
		{"Refinement", []int{0, 0, 1, 1}, []int{0, 0, 1, 2}, 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizedMutualInfo(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, tolerance)
		})
	}
}

func TestAdjustedMutualInfo(t *testing.T) {
	tests := []struct {
		name string
		a, b []int
		want float64
	}{
		{"Identical", []int{0, 0, 1, 1}, []int{0, 0, 1, 1}, 1.0},
		{"Relabelled", []int{0, 0, 1, 1}, []int{1, 1, 0, 0}, 1.0},
		{"SingleVsDistinct", []int{0, 0, 0, 0}, []int{0, 1, 2, 3}, 0.0},
		{"BothSingle", []int{4, 4}, []int{2, 2}, 1.0},
		{"AntiAligned", []int{0, 0, 1, 1}, []int{0, 1, 0, 1}, -0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AdjustedMutualInfo(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestAdjustedMutualInfoIsZeroOnAverageUnderPermutation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	n := 60
	a := make([]int, n)
	b := make([]int, n)
	for i := 0; i < n; i++ {
		a[i] = rng.Intn(3)
		b[i] = rng.Intn(4)
	}

	sum := 0.0
	trials := 400
	perm := make([]int, n)
	for trial := 0; trial < trials; trial++ {
		for i, j := range rng.Perm(n) {
			perm[i] = b[j]
		}
		ami, err := AdjustedMutualInfo(a, perm)
		require.NoError(t, err)
		sum += ami
	}
	assert.InDelta(t, 0.0, sum/float64(trials), 0.01)
}

func TestSymmetry(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a := make([]int, 100)
	b := make([]int, 100)
	for i := range a {
		a[i] = rng.Intn(5)
		b[i] = (a[i] + rng.Intn(2)) % 4
	}

	nab, err := NormalizedMutualInfo(a, b)
	require.NoError(t, err)
	nba, err := NormalizedMutualInfo(b, a)
	require.NoError(t, err)
	assert.InDelta(t, nab, nba, tolerance)

	aab, err := AdjustedMutualInfo(a, b)
	require.NoError(t, err)
	aba, err := AdjustedMutualInfo(b, a)
	require.NoError(t, err)
	assert.InDelta(t, aab, aba, 1e-9)

	assert.Less(t, aab, nab)
	assert.Greater(t, aab, 0.0)
}

func TestNormalizedMutualInfoIsDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	a := make([]int, 500)
	b := make([]int, 500)
	for i := range a {
		a[i] = rng.Intn(7)
		b[i] = rng.Intn(11)
	}

	first, err := NormalizedMutualInfo(a, b)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := NormalizedMutualInfo(a, b)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestLengthMismatch(t *testing.T) {
	_, err := NormalizedMutualInfo([]int{0, 1}, []int{0})
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = AdjustedMutualInfo([]int{0}, []int{0, 1})
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestEntropy(t *testing.T) {
	assert.Equal(t, 1.0, Entropy(nil))
	assert.Equal(t, 0.0, Entropy([]int{2, 2, 2}))
	assert.InDelta(t, math.Log(2), Entropy([]int{0, 1, 0, 1}), tolerance)
	assert.InDelta(t, math.Log(4), Entropy([]int{9, 8, 7, 6}), tolerance)
}

func TestContingency(t *testing.T) {
	c, err := NewContingency([]int{5, 5, 7, 7, 7}, []int{1, 2, 2, 2, 1})
	require.NoError(t, err)

	assert.Equal(t, 5, c.N)
	assert.Equal(t, []int{2, 3}, c.RowSums)
	assert.Equal(t, []int{2, 3}, c.ColSums)
	assert.Equal(t, 4, c.NumCells())

	mi, err := MutualInfo([]int{0, 0, 1, 1}, []int{0, 0, 1, 1})
	require.NoError(t, err)
	assert.InDelta(t, math.Log(2), mi, tolerance)
}
