// Command alignment computes the maximal alignment curve of a partition table
// and, optionally, compares it with shuffled null-model curves.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/multilayer-alignment/pkg/curve"
	"github.com/gilchrisn/multilayer-alignment/pkg/nullmodel"
	"github.com/gilchrisn/multilayer-alignment/pkg/parser"
	"github.com/gilchrisn/multilayer-alignment/pkg/partition"
	"github.com/gilchrisn/multilayer-alignment/pkg/store"
)

// flagKeys maps command line flags to configuration keys
var flagKeys = map[string]string{
	"metric":    "algorithm.metric",
	"adjusted":  "algorithm.adjusted",
	"policy":    "algorithm.policy",
	"draws":     "algorithm.expectation_draws",
	"seed":      "algorithm.random_seed",
	"null":      "nullmodel.tries",
	"sentinel":  "nullmodel.missing_sentinel",
	"quantile":  "nullmodel.quantile",
	"workers":   "performance.num_workers",
	"log-level": "logging.level",
	"trace":     "analysis.output_file",
	"store":     "output.store",
	"out":       "output.path",
	"name":      "output.name",
}

func main() {
	var (
		configFile = flag.String("config", "", "Configuration file (yaml, json or toml)")
		idColumn   = flag.String("id-column", "", "Header of a node id column to ignore")
		layers     = flag.String("layers", "", "Comma separated layers to use, in order (default: all)")
		shuffled   = flag.String("shuffled-out", "", "Write one shuffled copy of the table to this file")
	)

	// applied to the configuration only when set
	flag.String("metric", "nmi", "Similarity metric: nmi or ami")
	flag.Bool("adjusted", false, "Subtract the expected score of randomly permuted layers")
	flag.String("policy", "full", "Scoring policy: full or leave-one-out")
	flag.Int("draws", 10, "Permutations per expected score")
	flag.Int64("seed", 0, "Random seed (default: time based)")
	flag.Int("null", 10, "Number of null model trials, 0 disables them")
	flag.Int("sentinel", nullmodel.DefaultMissingSentinel, "Label given to missing cells before shuffling")
	flag.Float64("quantile", 0.95, "Null quantile a size must exceed to be significant")
	flag.Int("workers", 0, "Worker goroutines (default: NumCPU-1)")
	flag.String("log-level", "info", "Log level")
	flag.String("trace", "", "Write every evaluated combination to this JSON lines file")
	flag.String("store", "", "Persist results: file or sqlite")
	flag.String("out", "results", "Store directory or database file")
	flag.String("name", "alignment", "Name of the saved curve")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <table.csv>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "The table has a header row of layer names and one row of cluster labels per node.\n")
		fmt.Fprintf(os.Stderr, "Empty, NA and nan cells are missing.\n\n")
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  %s -metric=ami -adjusted opinions.csv\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -null=20 -store=sqlite -out=results.db -name=survey opinions.csv\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	config := curve.NewConfig()
	if *configFile != "" {
		if err := config.LoadFromFile(*configFile); err != nil {
			log.Fatal().Err(err).Str("file", *configFile).Msg("Failed to load configuration")
		}
	}
	flag.Visit(func(f *flag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}
		if f.Name == "trace" {
			config.Set("analysis.track_combinations", true)
		}
		config.Set(key, f.Value.(flag.Getter).Get())
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := runOptions{
		tablePath:   flag.Arg(0),
		idColumn:    *idColumn,
		shuffledOut: *shuffled,
	}
	if *layers != "" {
		opts.layers = strings.Split(*layers, ",")
	}

	if err := run(ctx, config, opts, os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("Alignment failed")
	}
}

type runOptions struct {
	tablePath   string
	idColumn    string
	layers      []string
	shuffledOut string
}

func run(ctx context.Context, config *curve.Config, opts runOptions, out io.Writer) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	table, err := parser.LoadTable(opts.tablePath, parser.Options{IDColumn: opts.idColumn, Layers: opts.layers})
	if err != nil {
		return err
	}
	log.Info().
		Str("file", opts.tablePath).
		Int("rows", table.NumRows()).
		Strs("layers", table.Layers()).
		Msg("Table loaded")

	result, err := curve.Run(ctx, table, config)
	if err != nil {
		return err
	}
	displayCurve(out, result)

	expected, err := nullmodel.ExpectedCurve(table)
	if err != nil {
		return err
	}
	displayExpected(out, expected, nullmodel.ExpectedCurveEqualSized(table.NumLayers()))

	var nulls []*curve.Result
	if config.NullTries() > 0 {
		logger := config.CreateLogger()
		scoring, err := config.ScorerOptions(&logger)
		if err != nil {
			return err
		}
		gen, err := nullmodel.NewGenerator(scoring, config.RandomSeed(),
			nullmodel.WithSentinel(config.NullSentinel()),
			nullmodel.WithWorkers(config.NumWorkers()),
			nullmodel.WithLogger(logger),
		)
		if err != nil {
			return err
		}
		nulls, err = gen.RandomCurves(ctx, table, config.NullTries())
		if err != nil {
			return err
		}
		baseline := nullmodel.NewBaseline(nulls)
		displaySignificance(out, nullmodel.Significance(result, baseline, config.NullQuantile()), config.NullQuantile())
	}

	if opts.shuffledOut != "" {
		if err := writeShuffled(opts.shuffledOut, table, config); err != nil {
			return err
		}
	}

	if config.OutputStore() != "" {
		if err := persist(ctx, config, result, nulls); err != nil {
			return err
		}
	}
	return nil
}

func persist(ctx context.Context, config *curve.Config, result *curve.Result, nulls []*curve.Result) error {
	blobs, err := store.Open(config.OutputStore(), config.OutputPath())
	if err != nil {
		return err
	}
	defer blobs.Close()

	name := config.OutputName()
	if err := store.SaveCurve(ctx, blobs, name, result); err != nil {
		return fmt.Errorf("saving curve: %w", err)
	}
	if err := store.SaveNullCurves(ctx, blobs, name, nulls); err != nil {
		return err
	}

	log.Info().
		Str("store", config.OutputStore()).
		Str("path", config.OutputPath()).
		Str("name", name).
		Int("null_trials", len(nulls)).
		Msg("Results saved")
	return nil
}

func writeShuffled(path string, table *partition.Table, config *curve.Config) error {
	rng := rand.New(rand.NewSource(config.RandomSeed()))
	shuffled, err := nullmodel.Shuffle(table, rng, config.NullSentinel())
	if err != nil {
		return err
	}
	if err := parser.SaveTable(path, shuffled); err != nil {
		return fmt.Errorf("writing shuffled table: %w", err)
	}
	log.Info().Str("file", path).Msg("Shuffled table written")
	return nil
}

func displayCurve(out io.Writer, result *curve.Result) {
	fmt.Fprintln(out, "=== Maximal alignment curve ===")
	fmt.Fprintf(out, "Combinations: %d (skipped %d)\n", result.Statistics.Combinations, result.Statistics.Skipped)
	fmt.Fprintf(out, "Runtime: %d ms\n", result.Statistics.RuntimeMS)

	for _, size := range result.Sizes() {
		best := result.Best[size]
		fmt.Fprintf(out, "  %2d layers: %.6f  %s (%d groups)\n",
			size, best.Score, strings.Join(best.Layers, ", "), len(best.Partition))
	}
}

func displayExpected(out io.Writer, expected, equalSized []float64) {
	if len(expected) == 0 {
		return
	}
	fmt.Fprintln(out, "\n=== Expected curve of independent layers ===")
	for i := range expected {
		fmt.Fprintf(out, "  %2d layers: %.6f  (equal sized clusters: %.6f)\n", i+2, expected[i], equalSized[i])
	}
}

func displaySignificance(out io.Writer, sig []nullmodel.SizeSignificance, q float64) {
	fmt.Fprintf(out, "\n=== Null model (quantile %.2f) ===\n", q)
	for _, s := range sig {
		mark := ""
		if s.Significant {
			mark = "  *"
		}
		fmt.Fprintf(out, "  %2d layers: %.6f  null mean %.6f  threshold %.6f  p=%.4f%s\n",
			s.Size, s.Score, s.NullMean, s.Threshold, s.PValue, mark)
	}
}
