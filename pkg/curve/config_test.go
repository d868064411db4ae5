package curve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/multilayer-alignment/pkg/alignment"
)

func TestConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, "nmi", cfg.Metric())
	assert.False(t, cfg.Adjusted())
	assert.Equal(t, "full", cfg.Policy())
	assert.Equal(t, alignment.DefaultExpectationDraws, cfg.ExpectationDraws())
	assert.Equal(t, 10, cfg.NullTries())
	assert.Equal(t, 0.95, cfg.NullQuantile())
	assert.Equal(t, "info", cfg.LogLevel())
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value interface{}
	}{
		{"metric", "algorithm.metric", "rand"},
		{"policy", "algorithm.policy", "pairwise"},
		{"draws", "algorithm.expectation_draws", 0},
		{"quantile", "nullmodel.quantile", 1.5},
		{"tries", "nullmodel.tries", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			cfg.Set(tt.key, tt.value)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfigEnvironment(t *testing.T) {
	t.Setenv("ALIGNMENT_ALGORITHM_METRIC", "ami")
	t.Setenv("ALIGNMENT_NULLMODEL_TRIES", "3")

	cfg := NewConfig()
	assert.Equal(t, "ami", cfg.Metric())
	assert.Equal(t, 3, cfg.NullTries())
}

func TestConfigLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alignment.yaml")
	content := "algorithm:\n  metric: ami\n  policy: leave-one-out\n  adjusted: true\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := NewConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	opts, err := cfg.ScorerOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, alignment.MetricAMI, opts.Metric)
	assert.Equal(t, alignment.PolicyLeaveOneOut, opts.Policy)
	assert.True(t, opts.Adjusted)
}
