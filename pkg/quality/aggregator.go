package quality

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.com/skillforge/skillforge/pkg/scoring"
)

// Recommendation is the aggregator's advice to the operator.
type Recommendation string

const (
	RecommendationApprove Recommendation = "APPROVE"
	RecommendationRevise  Recommendation = "REVISE"
	RecommendationReject  Recommendation = "REJECT"
)

// Aggregation thresholds.
const (
	// PassThreshold is the minimum overall score for a passing assessment.
	PassThreshold = 7.0
	// ApproveThreshold is the overall score above which approval is automatic.
	ApproveThreshold = 8.0
	// ReviseThreshold is the overall score below which rework is pointless.
	ReviseThreshold = 5.0
	// weakComponentThreshold marks a component score that blocks the
	// borderline-approval path.
	weakComponentThreshold = 6.0
	// highWeightThreshold is the weight at or above which a component
	// counts as high-weight for the borderline-approval rule.
	highWeightThreshold = 0.15
)

// Assessment is the combined verdict over all component scores.
type Assessment struct {
	Overall        float64                   `json:"overall"`
	Passed         bool                      `json:"passed"`
	Recommendation Recommendation            `json:"recommendation"`
	Components     map[string]ComponentScore `json:"components"`
	BlockingIssues []string                  `json:"blockingIssues,omitempty"`
	Suggestions    []string                  `json:"suggestions,omitempty"`
}

// Aggregate combines component scores into a single weighted
// assessment. Weights are renormalized over the components actually
// present, so an absent optional component (scripts, typically) drops
// out without skewing the rest.
//
// Hard blockers are kept apart from the numeric average: a single
// catastrophic structural failure must never be averaged away by
// otherwise-good prose quality.
func Aggregate(components []ComponentScore) (Assessment, error) {
	if len(components) == 0 {
		return Assessment{}, errors.New("quality: no component scores to aggregate")
	}

	dims := make([]scoring.Dimension, 0, len(components))
	byName := make(map[string]ComponentScore, len(components))
	for _, c := range components {
		if _, dup := byName[c.Name]; dup {
			return Assessment{}, errors.Errorf("quality: duplicate component %q", c.Name)
		}
		if c.Score < 0 || c.Score > 10 {
			return Assessment{}, errors.Errorf("quality: component %q score %.2f outside [0,10]", c.Name, c.Score)
		}
		byName[c.Name] = c
		dims = append(dims, scoring.Dimension{Name: c.Name, Value: c.Score, Weight: c.Weight})
	}

	composite, err := scoring.Score(dims)
	if err != nil {
		return Assessment{}, err
	}

	var blocking []string
	for _, name := range sortedNames(byName) {
		c := byName[name]
		if c.HardFail && !c.Passed {
			for _, e := range c.Errors {
				blocking = append(blocking, fmt.Sprintf("%s: %s", c.Name, e))
			}
			if len(c.Errors) == 0 {
				blocking = append(blocking, fmt.Sprintf("%s: component failed", c.Name))
			}
		}
	}

	assessment := Assessment{
		Overall:        composite.Score,
		Passed:         len(blocking) == 0 && composite.Score >= PassThreshold,
		Components:     byName,
		BlockingIssues: blocking,
		Suggestions:    collectSuggestions(byName),
	}
	assessment.Recommendation = recommend(assessment)

	return assessment, nil
}

func recommend(a Assessment) Recommendation {
	if len(a.BlockingIssues) > 0 {
		return RecommendationReject
	}
	if a.Overall >= ApproveThreshold {
		return RecommendationApprove
	}
	if a.Overall >= PassThreshold && !hasWeakHighWeightComponent(a.Components) {
		return RecommendationApprove
	}
	if a.Overall >= ReviseThreshold {
		return RecommendationRevise
	}
	return RecommendationReject
}

func hasWeakHighWeightComponent(components map[string]ComponentScore) bool {
	for _, c := range components {
		if c.Weight >= highWeightThreshold && c.Score < weakComponentThreshold {
			return true
		}
	}
	return false
}

func collectSuggestions(components map[string]ComponentScore) []string {
	var suggestions []string
	for _, name := range sortedNames(components) {
		c := components[name]
		for _, w := range c.Warnings {
			suggestions = append(suggestions, fmt.Sprintf("%s: %s", c.Name, w))
		}
		if c.Score < PassThreshold && len(c.Warnings) == 0 && c.Passed {
			suggestions = append(suggestions, fmt.Sprintf("%s: scored %.1f, consider strengthening this area", c.Name, c.Score))
		}
	}
	return suggestions
}

func sortedNames(components map[string]ComponentScore) []string {
	names := make([]string, 0, len(components))
	for name := range components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
