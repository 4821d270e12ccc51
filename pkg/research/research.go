// Package research runs the discovery phase's query fan-out. Providers
// return classified findings; the runner joins all queries and the
// tally reduces findings to the counts the sufficiency evaluator
// consumes. Finding text never reaches the scoring path.
package research

import (
	"context"

	"github.com/skillforge/skillforge/pkg/sufficiency"
)

// Kind classifies what a finding contributes to the skill.
type Kind string

const (
	KindConcept      Kind = "concept"
	KindPractice     Kind = "practice"
	KindWorkflowStep Kind = "workflow_step"
	KindTool         Kind = "tool"
	KindExample      Kind = "example"
	// KindOpenQuestion marks something the sources could not answer.
	KindOpenQuestion Kind = "open_question"
)

// Finding is one classified research result.
type Finding struct {
	Query     string           `json:"query"`
	Kind      Kind             `json:"kind"`
	Text      string           `json:"text"`
	Authority sufficiency.Tier `json:"authority"`
}

// Provider answers a single research query. Implementations classify
// their own results; the core never inspects finding text.
type Provider interface {
	Search(ctx context.Context, query string) ([]Finding, error)
}

// Tally reduces findings to the counts and tiers the sufficiency
// evaluator consumes. Authority is the best tier seen across all
// findings.
func Tally(findings []Finding) sufficiency.Findings {
	var tallied sufficiency.Findings
	for _, finding := range findings {
		switch finding.Kind {
		case KindConcept:
			tallied.Concepts++
		case KindPractice:
			tallied.BestPractices++
		case KindWorkflowStep:
			tallied.WorkflowSteps++
		case KindTool:
			tallied.Tools++
		case KindExample:
			tallied.Examples++
		case KindOpenQuestion:
			tallied.OpenQuestions = append(tallied.OpenQuestions, finding.Text)
		}
		if finding.Authority > tallied.Authority {
			tallied.Authority = finding.Authority
		}
	}
	return tallied
}
