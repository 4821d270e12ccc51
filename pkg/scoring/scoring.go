// Package scoring provides the weighted-rubric primitive shared by every
// scorer in the pipeline: the sufficiency evaluator, the quality
// aggregator, and the gate all reduce their dimensions through Score so
// that weighting arithmetic exists in exactly one place.
package scoring

import (
	"github.com/pkg/errors"
)

// Dimension is a single weighted rubric entry. Value is pre-normalized by
// the caller (either [0,1] or [0,10] depending on the rubric scale); the
// primitive never rescales.
type Dimension struct {
	Name      string
	Value     float64
	Weight    float64
	Hard      bool
	Threshold float64 // minimum Value for a Hard dimension to pass
}

// Composite is the result of scoring a rubric. The numeric score and the
// pass/fail verdict are reported separately: a failed hard dimension
// forces Passed to false but never alters Score, so a low score is never
// hidden behind a passing gate or vice versa.
type Composite struct {
	Score      float64
	Passed     bool
	HardFailed []string // names of hard dimensions below their threshold
}

// Epsilon is the tolerance used when comparing weight sums.
const Epsilon = 1e-9

// Score computes the weighted composite of the given dimensions:
// sum(value*weight) / sum(weight). Weights need not sum to any
// particular total; they are normalized by their own sum, which is how
// optional components drop out of a rubric without skewing the rest.
func Score(dims []Dimension) (Composite, error) {
	if len(dims) == 0 {
		return Composite{}, errors.New("scoring: no dimensions provided")
	}

	var weightedSum, weightSum float64
	var hardFailed []string

	for _, d := range dims {
		if d.Weight < 0 {
			return Composite{}, errors.Errorf("scoring: dimension %q has negative weight %f", d.Name, d.Weight)
		}
		weightedSum += d.Value * d.Weight
		weightSum += d.Weight

		if d.Hard && d.Value < d.Threshold {
			hardFailed = append(hardFailed, d.Name)
		}
	}

	if weightSum <= Epsilon {
		return Composite{}, errors.New("scoring: dimension weights sum to zero")
	}

	return Composite{
		Score:      weightedSum / weightSum,
		Passed:     len(hardFailed) == 0,
		HardFailed: hardFailed,
	}, nil
}

// ValidateWeights checks that the dimension weights sum to the expected
// total within Epsilon. Rubrics with fixed documented weights call this
// at construction time.
func ValidateWeights(dims []Dimension, want float64) error {
	var sum float64
	for _, d := range dims {
		sum += d.Weight
	}
	if diff := sum - want; diff > Epsilon || diff < -Epsilon {
		return errors.Errorf("scoring: weights sum to %f, want %f", sum, want)
	}
	return nil
}
