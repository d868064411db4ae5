package nullmodel

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gilchrisn/multilayer-alignment/pkg/alignment"
	"github.com/gilchrisn/multilayer-alignment/pkg/curve"
	"github.com/gilchrisn/multilayer-alignment/pkg/partition"
	"github.com/gilchrisn/multilayer-alignment/pkg/utils"
)

// Generator runs the curve search on shuffled copies of a table
type Generator struct {
	scoring  alignment.Options
	sentinel int
	workers  int
	logger   zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// GeneratorOption configures a Generator
type GeneratorOption func(*Generator)

// WithSentinel sets the label used for missing cells before shuffling
func WithSentinel(sentinel int) GeneratorOption {
	return func(g *Generator) { g.sentinel = sentinel }
}

// WithWorkers bounds how many trials run at once
func WithWorkers(workers int) GeneratorOption {
	return func(g *Generator) { g.workers = workers }
}

// WithLogger sets the generator logger
func WithLogger(logger zerolog.Logger) GeneratorOption {
	return func(g *Generator) { g.logger = logger }
}

// NewGenerator validates the scoring options and seeds the trial source.
// Each trial scores with its own scorer, seeded from this source.
func NewGenerator(scoring alignment.Options, seed int64, opts ...GeneratorOption) (*Generator, error) {
	if _, err := alignment.NewScorer(scoring); err != nil {
		return nil, err
	}

	g := &Generator{
		scoring:  scoring,
		sentinel: DefaultMissingSentinel,
		workers:  utils.DefaultWorkers(),
		logger:   zerolog.Nop(),
		rng:      rand.New(rand.NewSource(seed)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

type trialSeeds struct {
	shuffle int64
	scorer  int64
}

// RandomCurves runs nTries independent null trials: shuffle the table, then
// search its maximal alignment curve. Trials run concurrently and results are
// returned in trial order. Any failing trial fails the whole batch.
func (g *Generator) RandomCurves(ctx context.Context, t *partition.Table, nTries int) ([]*curve.Result, error) {
	if nTries < 0 {
		return nil, fmt.Errorf("nullmodel: number of tries must not be negative, got %d", nTries)
	}

	seeds := make([]trialSeeds, nTries)
	g.mu.Lock()
	for i := range seeds {
		seeds[i] = trialSeeds{shuffle: g.rng.Int63(), scorer: g.rng.Int63()}
	}
	g.mu.Unlock()

	batch := uuid.NewString()
	logger := g.logger.With().Str("batch", batch).Logger()
	startTime := time.Now()

	logger.Info().
		Int("tries", nTries).
		Int("layers", t.NumLayers()).
		Int("workers", g.workers).
		Msg("Starting null model trials")

	results, err := utils.Map(ctx, g.workers, nTries, func(ctx context.Context, i int) (*curve.Result, error) {
		return g.trial(ctx, t, seeds[i], logger.With().Int("trial", i).Logger())
	})
	if err != nil {
		return nil, fmt.Errorf("null model batch %s failed: %w", batch, err)
	}

	logger.Info().
		Int("tries", nTries).
		Int64("runtime_ms", time.Since(startTime).Milliseconds()).
		Msg("Null model trials completed")

	return results, nil
}

func (g *Generator) trial(ctx context.Context, t *partition.Table, seeds trialSeeds, logger zerolog.Logger) (*curve.Result, error) {
	shuffled, err := Shuffle(t, rand.New(rand.NewSource(seeds.shuffle)), g.sentinel)
	if err != nil {
		return nil, err
	}

	opts := g.scoring
	opts.Seed = seeds.scorer
	// trials already fill the pool
	opts.Workers = 1
	opts.Logger = &logger
	scorer, err := alignment.NewScorer(opts)
	if err != nil {
		return nil, err
	}

	engine := curve.NewEngine(scorer, curve.WithLogger(logger), curve.WithProgress(false))
	result, err := engine.MaximalAlignmentCurve(ctx, shuffled)
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Floats64("curve", result.Curve()).
		Int64("runtime_ms", result.Statistics.RuntimeMS).
		Msg("Null trial completed")
	return result, nil
}
