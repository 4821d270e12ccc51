// Package sufficiency scores research completeness across seven fixed
// dimensions and decides whether discovery may proceed to architecture,
// proceed with warnings, or needs clarification. Every dimension is
// scored by a deterministic step function so two evaluators given
// identical counts always agree exactly.
package sufficiency

import (
	"fmt"
	"sort"

	"github.com/skillforge/skillforge/pkg/scoring"
)

// Tier classifies the best source authority seen during research.
type Tier int

const (
	// TierNone means no sources were identified.
	TierNone Tier = iota
	// TierUnknown means sources exist but their provenance is unclear.
	TierUnknown
	// TierForum covers discussion threads and Q&A sites.
	TierForum
	// TierCommunity covers community guides and popular tutorials.
	TierCommunity
	// TierMaintained covers actively maintained third-party documentation.
	TierMaintained
	// TierOfficial covers first-party documentation and standards.
	TierOfficial
)

// Findings holds the raw counts the evaluator consumes. The core never
// sees the research text itself, only these tallies.
type Findings struct {
	Concepts      int      `json:"concepts"`
	BestPractices int      `json:"bestPractices"`
	WorkflowSteps int      `json:"workflowSteps"`
	Tools         int      `json:"tools"`
	Examples      int      `json:"examples"`
	Authority     Tier     `json:"authority"`
	OpenQuestions []string `json:"openQuestions,omitempty"`
}

// Dimension names. These are the keys of Report.Scores.
const (
	DimAuthority    = "authority"
	DimConcepts     = "concepts"
	DimPractices    = "practices"
	DimWorkflow     = "workflow"
	DimTools        = "tools"
	DimExamples     = "examples"
	DimCompleteness = "completeness"
)

// weights are fixed by design and must sum to 1.0; Evaluate validates
// the sum on every call.
var weights = map[string]float64{
	DimAuthority:    0.20,
	DimConcepts:     0.15,
	DimPractices:    0.15,
	DimWorkflow:     0.20,
	DimTools:        0.10,
	DimExamples:     0.10,
	DimCompleteness: 0.10,
}

// Decision thresholds.
const (
	// ProceedThreshold is the composite above which discovery proceeds
	// without reservation.
	ProceedThreshold = 0.80
	// ClarifyThreshold is the composite below which discovery must
	// clarify before proceeding.
	ClarifyThreshold = 0.60

	// gapThreshold is the per-dimension score below which a gap is recorded.
	gapThreshold = 0.6
	// criticalThreshold marks workflow/authority gaps as critical.
	criticalThreshold = 0.4

	// MaxQuestionsPerRound caps clarification questions per round.
	MaxQuestionsPerRound = 2
	// MaxClarifyRounds caps clarification rounds per session.
	MaxClarifyRounds = 2
)

// Decision is the outcome of a sufficiency evaluation.
type Decision string

const (
	// DecisionProceed means research is complete enough to continue.
	DecisionProceed Decision = "proceed"
	// DecisionProceedWithWarnings means research is usable but thin.
	DecisionProceedWithWarnings Decision = "proceed_with_warnings"
	// DecisionClarify means research is too thin; ask the user.
	DecisionClarify Decision = "clarify"
)

// Severity ranks a gap.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
)

// Gap is a dimension that scored below the gap threshold, with a
// clarification question the orchestrator can surface to the user.
type Gap struct {
	Dimension string   `json:"dimension"`
	Score     float64  `json:"score"`
	Severity  Severity `json:"severity"`
	Question  string   `json:"question"`
}

// Report is the result of one sufficiency evaluation.
type Report struct {
	Scores    map[string]float64 `json:"scores"`
	Composite float64            `json:"composite"`
	Decision  Decision           `json:"decision"`
	Warnings  []string           `json:"warnings,omitempty"`
	Gaps      []Gap              `json:"gaps,omitempty"`
}

// Evaluate scores the findings and decides whether to proceed.
func Evaluate(f Findings) (Report, error) {
	scores := map[string]float64{
		DimAuthority:    scoreAuthority(f.Authority),
		DimConcepts:     scoreConcepts(f.Concepts),
		DimPractices:    scorePractices(f.BestPractices),
		DimWorkflow:     scoreWorkflow(f.WorkflowSteps),
		DimTools:        scoreTools(f.Tools),
		DimExamples:     scoreExamples(f.Examples),
		DimCompleteness: scoreCompleteness(len(f.OpenQuestions)),
	}

	dims := make([]scoring.Dimension, 0, len(scores))
	for name, value := range scores {
		dims = append(dims, scoring.Dimension{Name: name, Value: value, Weight: weights[name]})
	}

	if err := scoring.ValidateWeights(dims, 1.0); err != nil {
		return Report{}, err
	}

	composite, err := scoring.Score(dims)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		Scores:    scores,
		Composite: composite.Score,
	}

	switch {
	case composite.Score >= ProceedThreshold:
		report.Decision = DecisionProceed
	case composite.Score >= ClarifyThreshold:
		report.Decision = DecisionProceedWithWarnings
		for _, name := range sortedDimensions(scores) {
			if scores[name] < gapThreshold {
				report.Warnings = append(report.Warnings,
					fmt.Sprintf("%s coverage is thin (%.1f)", name, scores[name]))
			}
		}
	default:
		report.Decision = DecisionClarify
	}

	report.Gaps = enumerateGaps(scores)
	return report, nil
}

// TopQuestions returns up to n clarification questions drawn from the
// most severe gaps.
func (r Report) TopQuestions(n int) []string {
	questions := make([]string, 0, n)
	for _, gap := range r.Gaps {
		if len(questions) >= n {
			break
		}
		questions = append(questions, gap.Question)
	}
	return questions
}

// Weights returns a copy of the fixed dimension weights.
func Weights() map[string]float64 {
	out := make(map[string]float64, len(weights))
	for k, v := range weights {
		out[k] = v
	}
	return out
}

// enumerateGaps lists every dimension below the gap threshold, ordered
// by descending severity then ascending score. Workflow and authority
// below the critical threshold are critical; everything else is high
// below critical, medium otherwise.
func enumerateGaps(scores map[string]float64) []Gap {
	var gaps []Gap
	for _, name := range sortedDimensions(scores) {
		score := scores[name]
		if score >= gapThreshold {
			continue
		}
		gaps = append(gaps, Gap{
			Dimension: name,
			Score:     score,
			Severity:  severityFor(name, score),
			Question:  questionFor(name),
		})
	}

	sort.SliceStable(gaps, func(i, j int) bool {
		if gaps[i].Severity != gaps[j].Severity {
			return severityRank(gaps[i].Severity) < severityRank(gaps[j].Severity)
		}
		return gaps[i].Score < gaps[j].Score
	})
	return gaps
}

func severityFor(name string, score float64) Severity {
	if (name == DimWorkflow || name == DimAuthority) && score < criticalThreshold {
		return SeverityCritical
	}
	if score < criticalThreshold {
		return SeverityHigh
	}
	return SeverityMedium
}

func severityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	default:
		return 2
	}
}

func sortedDimensions(scores map[string]float64) []string {
	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func questionFor(dimension string) string {
	switch dimension {
	case DimAuthority:
		return "Can you point to official documentation or an authoritative source for this topic?"
	case DimConcepts:
		return "What are the key concepts or terms someone using this skill must understand?"
	case DimPractices:
		return "What best practices or conventions should the skill follow?"
	case DimWorkflow:
		return "Can you describe the step-by-step workflow this skill should capture?"
	case DimTools:
		return "Which tools or commands does this workflow depend on?"
	case DimExamples:
		return "Can you share a concrete example of the task this skill performs?"
	case DimCompleteness:
		return "Are there open questions about scope or behavior that still need answers?"
	default:
		return fmt.Sprintf("Can you provide more detail about %s?", dimension)
	}
}

// Step functions. Each maps a raw count (or tier) to a score by explicit
// bands; no interpolation.

func scoreConcepts(n int) float64 {
	switch {
	case n >= 10:
		return 1.0
	case n >= 7:
		return 0.8
	case n >= 5:
		return 0.6
	case n >= 3:
		return 0.4
	case n >= 1:
		return 0.2
	default:
		return 0.0
	}
}

func scorePractices(n int) float64 {
	switch {
	case n >= 8:
		return 1.0
	case n >= 6:
		return 0.8
	case n >= 4:
		return 0.6
	case n >= 2:
		return 0.4
	case n >= 1:
		return 0.2
	default:
		return 0.0
	}
}

func scoreWorkflow(n int) float64 {
	switch {
	case n >= 7:
		return 1.0
	case n >= 5:
		return 0.8
	case n >= 3:
		return 0.6
	case n >= 2:
		return 0.4
	case n >= 1:
		return 0.2
	default:
		return 0.0
	}
}

func scoreTools(n int) float64 {
	switch {
	case n >= 5:
		return 1.0
	case n >= 4:
		return 0.8
	case n >= 3:
		return 0.6
	case n >= 2:
		return 0.4
	case n >= 1:
		return 0.2
	default:
		return 0.0
	}
}

func scoreExamples(n int) float64 {
	switch {
	case n >= 5:
		return 1.0
	case n >= 4:
		return 0.8
	case n >= 3:
		return 0.6
	case n >= 2:
		return 0.4
	case n >= 1:
		return 0.2
	default:
		return 0.0
	}
}

func scoreAuthority(tier Tier) float64 {
	switch tier {
	case TierOfficial:
		return 1.0
	case TierMaintained:
		return 0.8
	case TierCommunity:
		return 0.6
	case TierForum:
		return 0.4
	case TierUnknown:
		return 0.2
	default:
		return 0.0
	}
}

func scoreCompleteness(openQuestions int) float64 {
	switch {
	case openQuestions == 0:
		return 1.0
	case openQuestions == 1:
		return 0.7
	case openQuestions <= 3:
		return 0.4
	default:
		return 0.2
	}
}
