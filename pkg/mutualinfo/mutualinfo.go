// Package mutualinfo implements Normalized and Adjusted Mutual Information
// between two clusterings of the same items. Both use natural logarithms and
// normalise by the arithmetic mean of the two entropies.
package mutualinfo

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

var ErrLengthMismatch = errors.New("mutualinfo: clusterings must have the same length")

// Contingency is the sparse contingency table of two clusterings, with labels
// recoded densely in order of first appearance.
type Contingency struct {
	N       int
	RowSums []int // items per cluster of the first clustering
	ColSums []int // items per cluster of the second clustering
	cells   []cell
}

type cell struct {
	row, col int
	count    int
}

// NewContingency builds the contingency table of two clusterings
func NewContingency(clustering1, clustering2 []int) (*Contingency, error) {
	if len(clustering1) != len(clustering2) {
		return nil, fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(clustering1), len(clustering2))
	}

	codes1, k1 := recode(clustering1)
	codes2, k2 := recode(clustering2)

	c := &Contingency{
		N:       len(clustering1),
		RowSums: make([]int, k1),
		ColSums: make([]int, k2),
	}

	counts := make(map[int]int)
	for i := range codes1 {
		c.RowSums[codes1[i]]++
		c.ColSums[codes2[i]]++
		counts[codes1[i]*k2+codes2[i]]++
	}

	// cells are kept in a fixed order so sums are bit-reproducible
	keys := make([]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	c.cells = make([]cell, len(keys))
	for i, k := range keys {
		c.cells[i] = cell{row: k / k2, col: k % k2, count: counts[k]}
	}
	return c, nil
}

// NumCells returns the number of non-empty cells
func (c *Contingency) NumCells() int { return len(c.cells) }

// MutualInfo returns the mutual information of the table, clipped at zero
func (c *Contingency) MutualInfo() float64 {
	if c.N == 0 {
		return 0
	}
	n := float64(c.N)
	logN := math.Log(n)

	mi := 0.0
	for _, cl := range c.cells {
		nij := float64(cl.count)
		ai := float64(c.RowSums[cl.row])
		bj := float64(c.ColSums[cl.col])
		term := nij / n * (math.Log(nij) + logN - math.Log(ai) - math.Log(bj))
		if math.Abs(term) < epsilon {
			term = 0
		}
		mi += term
	}
	return math.Max(mi, 0)
}

// ExpectedMutualInfo returns the expected mutual information of two random
// clusterings with the table's marginals, under the hypergeometric model.
func (c *Contingency) ExpectedMutualInfo() float64 {
	if len(c.RowSums) == 1 || len(c.ColSums) == 1 {
		return 0
	}

	n := float64(c.N)
	lgN1 := lgamma(n + 1)
	logN := math.Log(n)

	emi := 0.0
	for _, ai := range c.RowSums {
		a := float64(ai)
		glnA := lgamma(a+1) + lgamma(n-a+1)
		for _, bj := range c.ColSums {
			b := float64(bj)
			glnB := lgamma(b+1) + lgamma(n-b+1)

			start := ai + bj - c.N
			if start < 1 {
				start = 1
			}
			end := ai
			if bj < end {
				end = bj
			}
			for nij := start; nij <= end; nij++ {
				x := float64(nij)
				term1 := x / n
				term2 := math.Log(x) + logN - math.Log(a) - math.Log(b)
				gln := glnA + glnB - lgamma(x+1) - lgN1 -
					lgamma(a-x+1) - lgamma(b-x+1) - lgamma(n-a-b+x+1)
				emi += term1 * term2 * math.Exp(gln)
			}
		}
	}
	return emi
}

// Entropy returns the Shannon entropy (nats) of a clustering. An empty
// clustering has entropy 1 and a single cluster has entropy 0.
func Entropy(clustering []int) float64 {
	if len(clustering) == 0 {
		return 1.0
	}
	_, counts := countClusters(clustering)
	return entropyOfCounts(counts, len(clustering))
}

func entropyOfCounts(counts []int, n int) float64 {
	if len(counts) <= 1 {
		return 0
	}
	p := make([]float64, len(counts))
	for i, count := range counts {
		p[i] = float64(count) / float64(n)
	}
	return stat.Entropy(p)
}

// MutualInfo returns the mutual information of two clusterings
func MutualInfo(clustering1, clustering2 []int) (float64, error) {
	c, err := NewContingency(clustering1, clustering2)
	if err != nil {
		return 0, err
	}
	return c.MutualInfo(), nil
}

// NormalizedMutualInfo calculates NMI between two clusterings, in [0, 1].
func NormalizedMutualInfo(clustering1, clustering2 []int) (float64, error) {
	c, err := NewContingency(clustering1, clustering2)
	if err != nil {
		return 0, err
	}
	if trivialMatch(c) {
		return 1.0, nil
	}

	mi := c.MutualInfo()
	if mi == 0 {
		return 0, nil
	}

	h1 := entropyOfCounts(c.RowSums, c.N)
	h2 := entropyOfCounts(c.ColSums, c.N)
	return mi / ((h1 + h2) / 2), nil
}

// AdjustedMutualInfo calculates AMI between two clusterings. It is 1 for
// identical clusterings, close to 0 for independent ones, and can be negative.
func AdjustedMutualInfo(clustering1, clustering2 []int) (float64, error) {
	c, err := NewContingency(clustering1, clustering2)
	if err != nil {
		return 0, err
	}
	if trivialMatch(c) {
		return 1.0, nil
	}

	mi := c.MutualInfo()
	emi := c.ExpectedMutualInfo()
	h1 := entropyOfCounts(c.RowSums, c.N)
	h2 := entropyOfCounts(c.ColSums, c.N)

	// the normaliser can fall just below emi through rounding; keep the sign
	denominator := (h1+h2)/2 - emi
	if denominator < 0 {
		denominator = math.Min(denominator, -epsilon)
	} else {
		denominator = math.Max(denominator, epsilon)
	}
	return (mi - emi) / denominator, nil
}

const epsilon = 2.220446049250313e-16

// trivialMatch covers both clusterings being a single cluster or both empty
func trivialMatch(c *Contingency) bool {
	k1, k2 := len(c.RowSums), len(c.ColSums)
	return (k1 == 1 && k2 == 1) || (k1 == 0 && k2 == 0)
}

func recode(clustering []int) ([]int, int) {
	codes := make([]int, len(clustering))
	seen := make(map[int]int)
	for i, label := range clustering {
		code, ok := seen[label]
		if !ok {
			code = len(seen)
			seen[label] = code
		}
		codes[i] = code
	}
	return codes, len(seen)
}

func countClusters(clustering []int) ([]int, []int) {
	codes, k := recode(clustering)
	counts := make([]int, k)
	for _, code := range codes {
		counts[code]++
	}
	return codes, counts
}

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}
