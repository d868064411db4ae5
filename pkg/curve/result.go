package curve

import (
	"sort"
	"strconv"
	"strings"

	"github.com/gilchrisn/multilayer-alignment/pkg/consensus"
)

// ScoreTable maps a combination signature to its alignment score
type ScoreTable map[string]float64

// Best is the winning combination of one size
type Best struct {
	Score     float64             `json:"score"`
	Layers    []string            `json:"layers"`
	Partition consensus.Partition `json:"partition,omitempty"`
}

// BestBySize maps a combination size (>= 2) to its winner
type BestBySize map[int]Best

// Result is the output of one full search
type Result struct {
	Scores     ScoreTable `json:"scores"`
	Best       BestBySize `json:"best"`
	Statistics Statistics `json:"statistics"`
}

// Statistics contains search performance metrics
type Statistics struct {
	Combinations int         `json:"combinations"`
	Skipped      int         `json:"skipped"`
	RuntimeMS    int64       `json:"runtime_ms"`
	SizeStats    []SizeStats `json:"size_stats"`
}

// SizeStats contains per-size statistics
type SizeStats struct {
	Size         int     `json:"size"`
	Combinations int     `json:"combinations"`
	BestScore    float64 `json:"best_score"`
	RuntimeMS    int64   `json:"runtime_ms"`
}

// Signature identifies a combination independently of layer order, e.g.
// "3+A+B+C".
func Signature(layers []string) string {
	sorted := make([]string, len(layers))
	copy(sorted, layers)
	sort.Strings(sorted)
	return strconv.Itoa(len(layers)) + "+" + strings.Join(sorted, "+")
}

// Sizes returns the sizes that have a winner, ascending
func (r *Result) Sizes() []int {
	sizes := make([]int, 0, len(r.Best))
	for size := range r.Best {
		sizes = append(sizes, size)
	}
	sort.Ints(sizes)
	return sizes
}

// Curve returns the maximal alignment curve: the best score of each size in
// ascending size order.
func (r *Result) Curve() []float64 {
	sizes := r.Sizes()
	out := make([]float64, len(sizes))
	for i, size := range sizes {
		out[i] = r.Best[size].Score
	}
	return out
}

// ScoresOfSize returns every recorded score of one combination size
func (r *Result) ScoresOfSize(size int) []float64 {
	prefix := strconv.Itoa(size) + "+"
	keys := make([]string, 0)
	for sig := range r.Scores {
		if strings.HasPrefix(sig, prefix) {
			keys = append(keys, sig)
		}
	}
	sort.Strings(keys)
	out := make([]float64, len(keys))
	for i, k := range keys {
		out[i] = r.Scores[k]
	}
	return out
}

func newResult() *Result {
	return &Result{
		Scores: make(ScoreTable),
		Best:   make(BestBySize),
		Statistics: Statistics{
			SizeStats: make([]SizeStats, 0),
		},
	}
}
