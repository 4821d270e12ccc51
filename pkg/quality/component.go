// Package quality combines independently computed component scores into
// one weighted assessment and applies the hard and soft gates that
// decide whether generated output may be installed.
package quality

import (
	"context"

	"github.com/skillforge/skillforge/pkg/blueprint"
	"github.com/skillforge/skillforge/pkg/skillpack"
)

// Component names used by the built-in scorers and the gate.
const (
	ComponentSpecCompliance = "spec_compliance"
	ComponentStructure      = "structure"
	ComponentContentQuality = "content_quality"
	ComponentExpertise      = "expertise"
	ComponentBudget         = "budget"
	ComponentFrontmatter    = "frontmatter"
	ComponentScripts        = "scripts"
)

// DefaultWeights are the documented component weights. They sum to 1.0
// when every component, scripts included, is present; the aggregator
// renormalizes over whatever subset actually reports.
var DefaultWeights = map[string]float64{
	ComponentSpecCompliance: 0.25,
	ComponentStructure:      0.10,
	ComponentContentQuality: 0.20,
	ComponentExpertise:      0.15,
	ComponentBudget:         0.10,
	ComponentFrontmatter:    0.10,
	ComponentScripts:        0.10,
}

// ComponentScore is one sub-scorer's verdict: a numeric score on the
// 0-10 scale, its weight in the aggregate, and whether a failure here
// blocks installation outright.
type ComponentScore struct {
	Name     string   `json:"name"`
	Score    float64  `json:"score"`
	Weight   float64  `json:"weight"`
	HardFail bool     `json:"hardFail"`
	Passed   bool     `json:"passed"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Target is what the sub-scorers evaluate: the blueprint the artifacts
// were generated against, and the artifacts themselves.
type Target struct {
	Blueprint *blueprint.Blueprint
	Bundle    skillpack.Bundle
}

// Scorer is a pluggable quality sub-scorer. The aggregator treats
// scorers as opaque and independently testable.
type Scorer interface {
	Name() string
	Evaluate(ctx context.Context, target Target) (ComponentScore, error)
}
