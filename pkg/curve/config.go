package curve

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/gilchrisn/multilayer-alignment/pkg/alignment"
)

// Config manages search configuration using Viper. Every key can be
// overridden from the environment with the ALIGNMENT_ prefix, e.g.
// ALIGNMENT_ALGORITHM_METRIC=ami.
type Config struct {
	v *viper.Viper
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	v := viper.New()
	v.SetEnvPrefix("alignment")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Algorithm parameters
	v.SetDefault("algorithm.metric", string(alignment.MetricNMI))
	v.SetDefault("algorithm.adjusted", false)
	v.SetDefault("algorithm.policy", string(alignment.PolicyFullPartition))
	v.SetDefault("algorithm.expectation_draws", alignment.DefaultExpectationDraws)
	v.SetDefault("algorithm.random_seed", time.Now().UnixNano())

	// Null model parameters
	v.SetDefault("nullmodel.tries", 10)
	v.SetDefault("nullmodel.missing_sentinel", 9)
	v.SetDefault("nullmodel.quantile", 0.95)

	// Performance parameters
	v.SetDefault("performance.num_workers", 0)

	// Logging parameters
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.enable_progress", true)

	v.SetDefault("analysis.track_combinations", false)
	v.SetDefault("analysis.output_file", "combinations.jsonl")

	v.SetDefault("output.store", "")
	v.SetDefault("output.path", "results")
	v.SetDefault("output.name", "alignment")

	return &Config{v: v}
}

// LoadFromFile loads configuration from file
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	return c.v.ReadInConfig()
}

// Getters for algorithm parameters
func (c *Config) Metric() string        { return c.v.GetString("algorithm.metric") }
func (c *Config) Adjusted() bool        { return c.v.GetBool("algorithm.adjusted") }
func (c *Config) Policy() string        { return c.v.GetString("algorithm.policy") }
func (c *Config) ExpectationDraws() int { return c.v.GetInt("algorithm.expectation_draws") }
func (c *Config) RandomSeed() int64     { return c.v.GetInt64("algorithm.random_seed") }

func (c *Config) NullTries() int        { return c.v.GetInt("nullmodel.tries") }
func (c *Config) NullSentinel() int     { return c.v.GetInt("nullmodel.missing_sentinel") }
func (c *Config) NullQuantile() float64 { return c.v.GetFloat64("nullmodel.quantile") }

func (c *Config) NumWorkers() int { return c.v.GetInt("performance.num_workers") }

func (c *Config) LogLevel() string     { return c.v.GetString("logging.level") }
func (c *Config) EnableProgress() bool { return c.v.GetBool("logging.enable_progress") }

func (c *Config) TrackCombinations() bool    { return c.v.GetBool("analysis.track_combinations") }
func (c *Config) TrackingOutputFile() string { return c.v.GetString("analysis.output_file") }

func (c *Config) OutputStore() string { return c.v.GetString("output.store") }
func (c *Config) OutputPath() string  { return c.v.GetString("output.path") }
func (c *Config) OutputName() string  { return c.v.GetString("output.name") }

// Set allows dynamic configuration changes
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// Validate rejects an unsupported metric or policy before any work starts
func (c *Config) Validate() error {
	if _, err := alignment.ParseMetric(c.Metric()); err != nil {
		return err
	}
	if _, err := alignment.ParsePolicy(c.Policy()); err != nil {
		return err
	}
	if c.ExpectationDraws() < 1 {
		return fmt.Errorf("algorithm.expectation_draws must be at least 1, got %d", c.ExpectationDraws())
	}
	if q := c.NullQuantile(); q <= 0 || q >= 1 {
		return fmt.Errorf("nullmodel.quantile must be in (0, 1), got %g", q)
	}
	if c.NullTries() < 0 {
		return fmt.Errorf("nullmodel.tries must not be negative, got %d", c.NullTries())
	}
	return nil
}

// ScorerOptions converts the configuration into alignment scorer options
func (c *Config) ScorerOptions(logger *zerolog.Logger) (alignment.Options, error) {
	metric, err := alignment.ParseMetric(c.Metric())
	if err != nil {
		return alignment.Options{}, err
	}
	policy, err := alignment.ParsePolicy(c.Policy())
	if err != nil {
		return alignment.Options{}, err
	}
	return alignment.Options{
		Metric:   metric,
		Policy:   policy,
		Adjusted: c.Adjusted(),
		Draws:    c.ExpectationDraws(),
		Workers:  c.NumWorkers(),
		Seed:     c.RandomSeed(),
		Logger:   logger,
	}, nil
}

// CreateLogger creates a zerolog logger based on config
func (c *Config) CreateLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "15:04:05",
	}).Level(level).With().Timestamp().Str("service", "alignment").Logger()
}
