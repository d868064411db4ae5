// Package alignment scores how well each layer of a selection predicts a
// reference partition, optionally corrected by a Monte-Carlo estimate of the
// chance-level score.
package alignment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/gilchrisn/multilayer-alignment/pkg/consensus"
	"github.com/gilchrisn/multilayer-alignment/pkg/partition"
	"github.com/gilchrisn/multilayer-alignment/pkg/utils"
)

// DefaultExpectationDraws is the number of random permutations averaged by
// the expectation correction.
const DefaultExpectationDraws = 10

// ErrNoLayers is returned when a score would be averaged over zero layers.
var ErrNoLayers = errors.New("alignment: division by zero: no layers to average")

// Options configures a Scorer
type Options struct {
	Metric   Metric
	Policy   Policy
	Adjusted bool // subtract the Monte-Carlo expected score per layer
	Draws    int  // permutations per expectation, DefaultExpectationDraws if 0
	Workers  int  // worker goroutines for the expectation, utils.DefaultWorkers if 0
	Seed     int64
	Logger   *zerolog.Logger
}

// Scorer computes alignment scores. It is safe for concurrent use; the random
// source for the expectation correction is shared under a lock.
type Scorer struct {
	metric   Metric
	policy   Policy
	adjusted bool
	draws    int
	workers  int
	score    func(a, b []int) (float64, error)
	logger   zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewScorer validates the options before any scoring work happens.
func NewScorer(opts Options) (*Scorer, error) {
	if err := opts.Metric.Validate(); err != nil {
		return nil, err
	}
	if opts.Policy == "" {
		opts.Policy = PolicyFullPartition
	}
	if err := opts.Policy.Validate(); err != nil {
		return nil, err
	}
	if opts.Draws < 0 {
		return nil, fmt.Errorf("alignment: expectation draws must be positive, got %d", opts.Draws)
	}
	if opts.Draws == 0 {
		opts.Draws = DefaultExpectationDraws
	}
	if opts.Workers <= 0 {
		opts.Workers = utils.DefaultWorkers()
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Scorer{
		metric:   opts.Metric,
		policy:   opts.Policy,
		adjusted: opts.Adjusted,
		draws:    opts.Draws,
		workers:  opts.Workers,
		score:    opts.Metric.scoreFunc(),
		logger:   logger,
		rng:      rand.New(rand.NewSource(opts.Seed)),
	}, nil
}

func (s *Scorer) Metric() Metric { return s.metric }
func (s *Scorer) Policy() Policy { return s.policy }
func (s *Scorer) Adjusted() bool { return s.adjusted }
func (s *Scorer) Draws() int     { return s.draws }
func (s *Scorer) Workers() int   { return s.workers }

// LayerVsReference returns the raw metric between a layer and a reference
// labelling of the same rows. The result is not clamped.
func (s *Scorer) LayerVsReference(layer, reference []int) (float64, error) {
	return s.score(layer, reference)
}

// Expectation estimates the score of a layer against the reference when the
// layer's labels are randomly permuted. Permutations are drawn here, in order,
// and scored on the worker pool; negative draws count as zero.
func (s *Scorer) Expectation(ctx context.Context, layer, reference []int) (float64, error) {
	perms := make([][]int, s.draws)
	s.mu.Lock()
	for d := range perms {
		perm := s.rng.Perm(len(layer))
		shuffled := make([]int, len(layer))
		for i, j := range perm {
			shuffled[i] = layer[j]
		}
		perms[d] = shuffled
	}
	s.mu.Unlock()

	scores, err := utils.Map(ctx, s.workers, len(perms), func(_ context.Context, i int) (float64, error) {
		v, err := s.score(reference, perms[i])
		if err != nil {
			return 0, err
		}
		return math.Max(v, 0), nil
	})
	if err != nil {
		return 0, fmt.Errorf("expectation batch failed: %w", err)
	}
	return stat.Mean(scores, nil), nil
}

// Score computes the alignment of all layers of the view under the scorer's
// policy.
func (s *Scorer) Score(ctx context.Context, v *partition.View) (float64, error) {
	if s.policy == PolicyLeaveOneOut {
		return s.ScoreLeaveOneOut(ctx, v)
	}
	if v.NumLayers() == 0 {
		return 0, ErrNoLayers
	}
	p, err := consensus.FromView(v)
	if err != nil {
		return 0, err
	}
	return s.ScoreWithReference(ctx, v, consensus.LabelCodes(p, v.Len()))
}

// ScoreLayers scores a selection of table layers in one call, using only rows
// labelled in every selected layer.
func ScoreLayers(ctx context.Context, t *partition.Table, layers []string, opts Options) (float64, error) {
	s, err := NewScorer(opts)
	if err != nil {
		return 0, err
	}
	v, err := t.View(layers)
	if err != nil {
		return 0, err
	}
	return s.Score(ctx, v)
}

// ScoreWithReference scores every layer of the view against one reference
// labelling indexed by view row.
func (s *Scorer) ScoreWithReference(ctx context.Context, v *partition.View, reference []int) (float64, error) {
	if len(reference) != v.Len() {
		return 0, fmt.Errorf("alignment: reference has %d rows, view has %d", len(reference), v.Len())
	}
	return s.average(ctx, v, func(int) ([]int, error) { return reference, nil })
}

// ScoreLeaveOneOut scores every layer of the view against the consensus of
// the other layers. With a single layer the reference is one group holding
// every row.
func (s *Scorer) ScoreLeaveOneOut(ctx context.Context, v *partition.View) (float64, error) {
	layers := v.Layers()
	return s.average(ctx, v, func(i int) ([]int, error) {
		if len(layers) == 1 {
			return make([]int, v.Len()), nil
		}
		rest, err := v.Without(layers[i])
		if err != nil {
			return nil, err
		}
		p, err := consensus.FromView(rest)
		if err != nil {
			return nil, err
		}
		return consensus.LabelCodes(p, rest.Len()), nil
	})
}

// average returns (sum of clamped scores - sum of expectations) / #layers
func (s *Scorer) average(ctx context.Context, v *partition.View, referenceFor func(i int) ([]int, error)) (float64, error) {
	numLayers := v.NumLayers()
	if numLayers == 0 {
		return 0, ErrNoLayers
	}

	start := time.Now()
	total := 0.0
	expected := 0.0
	for i := 0; i < numLayers; i++ {
		layer := v.ColumnAt(i)
		reference, err := referenceFor(i)
		if err != nil {
			return 0, err
		}

		raw, err := s.score(layer, reference)
		if err != nil {
			return 0, err
		}
		total += math.Max(raw, 0)

		if s.adjusted {
			e, err := s.Expectation(ctx, layer, reference)
			if err != nil {
				return 0, err
			}
			expected += e
		}
	}

	result := (total - expected) / float64(numLayers)
	s.logger.Debug().
		Strs("layers", v.Layers()).
		Int("rows", v.Len()).
		Float64("score", result).
		Dur("elapsed", time.Since(start)).
		Msg("Scored layer selection")
	return result, nil
}
