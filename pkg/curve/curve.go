// Package curve searches every combination of layers for the best aligned one
// of each size and produces the maximal alignment curve.
package curve

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat/combin"

	"github.com/gilchrisn/multilayer-alignment/pkg/alignment"
	"github.com/gilchrisn/multilayer-alignment/pkg/consensus"
	"github.com/gilchrisn/multilayer-alignment/pkg/partition"
	"github.com/gilchrisn/multilayer-alignment/pkg/utils"
)

// Engine runs the exhaustive combination search. Combinations are evaluated
// sequentially; only the scorer's expectation correction fans out.
type Engine struct {
	scorer   *alignment.Scorer
	logger   zerolog.Logger
	tracker  *utils.SearchTracker
	progress bool
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithLogger sets the engine logger
func WithLogger(logger zerolog.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// WithTracker records every evaluated combination
func WithTracker(tracker *utils.SearchTracker) EngineOption {
	return func(e *Engine) { e.tracker = tracker }
}

// WithProgress toggles per-size progress logging
func WithProgress(enabled bool) EngineOption {
	return func(e *Engine) { e.progress = enabled }
}

// NewEngine creates a search engine around a scorer
func NewEngine(scorer *alignment.Scorer, opts ...EngineOption) *Engine {
	e := &Engine{
		scorer:   scorer,
		logger:   zerolog.Nop(),
		progress: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaximalAlignmentCurve scores every combination of 2..L layers of the table
// and keeps, per size, the first combination reaching the highest score.
// Combinations are enumerated lexicographically over the table's column order.
// Tables with fewer than two layers give empty tables. Combinations with no
// row labelled in all their layers are skipped.
func (e *Engine) MaximalAlignmentCurve(ctx context.Context, t *partition.Table) (*Result, error) {
	startTime := time.Now()
	layers := t.Layers()
	result := newResult()

	e.logger.Info().
		Int("layers", len(layers)).
		Int("rows", t.NumRows()).
		Str("metric", string(e.scorer.Metric())).
		Str("policy", string(e.scorer.Policy())).
		Bool("adjusted", e.scorer.Adjusted()).
		Msg("Starting maximal alignment search")

	for size := 2; size <= len(layers); size++ {
		sizeStart := time.Now()
		stats := SizeStats{Size: size}

		var best Best
		found := false

		gen := combin.NewCombinationGenerator(len(layers), size)
		idx := make([]int, size)
		for gen.Next() {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}

			gen.Combination(idx)
			selection := make([]string, size)
			for i, col := range idx {
				selection[i] = layers[col]
			}

			evalStart := time.Now()
			score, p, rows, err := e.evaluate(ctx, t, selection)
			if err != nil {
				return nil, fmt.Errorf("scoring %v failed: %w", selection, err)
			}
			if rows == 0 {
				result.Statistics.Skipped++
				e.logger.Debug().Strs("layers", selection).Msg("No row labelled in all layers, skipping")
				continue
			}

			sig := Signature(selection)
			result.Scores[sig] = score
			stats.Combinations++

			improved := !found || score > best.Score
			if improved {
				best = Best{Score: score, Layers: selection, Partition: p}
				found = true
			}

			if err := e.tracker.LogCombination(utils.CombinationEvent{
				Size:      size,
				Signature: sig,
				Score:     score,
				Rows:      rows,
				Groups:    len(p),
				Best:      improved,
				ElapsedUS: time.Since(evalStart).Microseconds(),
			}); err != nil {
				return nil, fmt.Errorf("search trace: %w", err)
			}
		}

		stats.RuntimeMS = time.Since(sizeStart).Milliseconds()
		if found {
			result.Best[size] = best
			stats.BestScore = best.Score
		}
		result.Statistics.Combinations += stats.Combinations
		result.Statistics.SizeStats = append(result.Statistics.SizeStats, stats)

		if e.progress {
			e.logger.Info().
				Int("size", size).
				Int("combinations", stats.Combinations).
				Float64("best_score", best.Score).
				Strs("best_layers", best.Layers).
				Int64("runtime_ms", stats.RuntimeMS).
				Msg("Combination size completed")
		}
	}

	result.Statistics.RuntimeMS = time.Since(startTime).Milliseconds()

	e.logger.Info().
		Int("combinations", result.Statistics.Combinations).
		Int("skipped", result.Statistics.Skipped).
		Int64("runtime_ms", result.Statistics.RuntimeMS).
		Msg("Maximal alignment search completed")

	return result, nil
}

// evaluate builds the view, consensus and score of one combination. The
// consensus labels are derived from the same view the scorer reads, so
// reference and layer rows line up. The returned partition holds table rows.
func (e *Engine) evaluate(ctx context.Context, t *partition.Table, selection []string) (float64, consensus.Partition, int, error) {
	v, err := t.View(selection)
	if err != nil {
		return 0, nil, 0, err
	}
	if v.Len() == 0 {
		return 0, nil, 0, nil
	}

	p, err := consensus.FromView(v)
	if err != nil {
		return 0, nil, 0, err
	}

	var score float64
	switch e.scorer.Policy() {
	case alignment.PolicyLeaveOneOut:
		score, err = e.scorer.ScoreLeaveOneOut(ctx, v)
	default:
		score, err = e.scorer.ScoreWithReference(ctx, v, consensus.LabelCodes(p, v.Len()))
	}
	if err != nil {
		return 0, nil, 0, err
	}
	return score, p.ToTableRows(v.Rows()), v.Len(), nil
}

// Run executes the complete search from a configuration
func Run(ctx context.Context, t *partition.Table, config *Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := config.CreateLogger()
	opts, err := config.ScorerOptions(&logger)
	if err != nil {
		return nil, err
	}
	scorer, err := alignment.NewScorer(opts)
	if err != nil {
		return nil, err
	}

	engineOpts := []EngineOption{
		WithLogger(logger),
		WithProgress(config.EnableProgress()),
	}
	if config.TrackCombinations() {
		tracker, err := utils.NewSearchTracker(config.TrackingOutputFile())
		if err != nil {
			return nil, err
		}
		defer tracker.Close()
		engineOpts = append(engineOpts, WithTracker(tracker))
	}

	return NewEngine(scorer, engineOpts...).MaximalAlignmentCurve(ctx, t)
}
