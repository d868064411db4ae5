package nullmodel

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/gilchrisn/multilayer-alignment/pkg/curve"
)

// Baseline holds, per combination size, the sorted best scores of the null
// trials.
type Baseline map[int][]float64

// NewBaseline collects the per-size best scores of null trial results
func NewBaseline(nulls []*curve.Result) Baseline {
	b := make(Baseline)
	for _, r := range nulls {
		if r == nil {
			continue
		}
		for size, best := range r.Best {
			b[size] = append(b[size], best.Score)
		}
	}
	for size := range b {
		sort.Float64s(b[size])
	}
	return b
}

// Quantile returns the empirical q-quantile of the null best scores of a size
func (b Baseline) Quantile(size int, q float64) (float64, bool) {
	scores := b[size]
	if len(scores) == 0 {
		return 0, false
	}
	return stat.Quantile(q, stat.Empirical, scores, nil), true
}

// SizeSignificance compares the observed best score of one size with the null
// trials.
type SizeSignificance struct {
	Size        int     `json:"size"`
	Score       float64 `json:"score"`
	NullMean    float64 `json:"null_mean"`
	Threshold   float64 `json:"threshold"`
	PValue      float64 `json:"p_value"`
	Significant bool    `json:"significant"`
}

// Significance tests every size of the observed curve against the baseline. A
// size is significant when its score exceeds the q-quantile of the null
// scores. The p-value is the share of null scores at least as high, with one
// pseudo-count. Sizes without null scores are left out.
func Significance(observed *curve.Result, b Baseline, q float64) []SizeSignificance {
	out := make([]SizeSignificance, 0, len(observed.Best))
	for _, size := range observed.Sizes() {
		threshold, ok := b.Quantile(size, q)
		if !ok {
			continue
		}
		nulls := b[size]
		score := observed.Best[size].Score

		atLeast := len(nulls) - sort.SearchFloat64s(nulls, score)
		out = append(out, SizeSignificance{
			Size:        size,
			Score:       score,
			NullMean:    stat.Mean(nulls, nil),
			Threshold:   threshold,
			PValue:      float64(atLeast+1) / float64(len(nulls)+1),
			Significant: score > threshold,
		})
	}
	return out
}
