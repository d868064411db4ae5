package alignment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gilchrisn/multilayer-alignment/pkg/mutualinfo"
)

// Metric selects the mutual-information variant used to compare a layer with
// its reference partition.
type Metric string

const (
	MetricNMI Metric = "nmi"
	MetricAMI Metric = "ami"
)

// Policy selects the reference partition each layer is scored against.
type Policy string

const (
	// PolicyFullPartition scores every layer against the consensus of all
	// selected layers, itself included.
	PolicyFullPartition Policy = "full"
	// PolicyLeaveOneOut scores every layer against the consensus of the other
	// selected layers.
	PolicyLeaveOneOut Policy = "leave-one-out"
)

var (
	ErrInvalidMetric = errors.New("alignment: unsupported metric")
	ErrInvalidPolicy = errors.New("alignment: unsupported scoring policy")
)

// ParseMetric accepts "nmi" or "ami", case-insensitively
func ParseMetric(s string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(s)))
	if err := m.Validate(); err != nil {
		return "", err
	}
	return m, nil
}

func (m Metric) Validate() error {
	switch m {
	case MetricNMI, MetricAMI:
		return nil
	}
	return fmt.Errorf("%w: %q (want %q or %q)", ErrInvalidMetric, string(m), MetricNMI, MetricAMI)
}

func (m Metric) scoreFunc() func(a, b []int) (float64, error) {
	if m == MetricAMI {
		return mutualinfo.AdjustedMutualInfo
	}
	return mutualinfo.NormalizedMutualInfo
}

// ParsePolicy accepts "full" or "leave-one-out" (also "loo")
func ParsePolicy(s string) (Policy, error) {
	p := Policy(strings.ToLower(strings.TrimSpace(s)))
	if p == "loo" {
		p = PolicyLeaveOneOut
	}
	if err := p.Validate(); err != nil {
		return "", err
	}
	return p, nil
}

func (p Policy) Validate() error {
	switch p {
	case PolicyFullPartition, PolicyLeaveOneOut:
		return nil
	}
	return fmt.Errorf("%w: %q (want %q or %q)", ErrInvalidPolicy, string(p), PolicyFullPartition, PolicyLeaveOneOut)
}
