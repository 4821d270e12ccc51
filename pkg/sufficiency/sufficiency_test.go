package sufficiency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightsSumToOne(t *testing.T) {
	var sum float64
	for _, w := range Weights() {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

// Findings chosen to produce the dimension scores
// {authority:0.8, concepts:0.6, practices:0.8, workflow:0.6,
// tools:1.0, examples:0.6, completeness:0.7}, which must compose to
// exactly 0.72 and decide "proceed with warnings".
func TestEvaluateCompositeArithmetic(t *testing.T) {
	f := Findings{
		Concepts:      5,
		BestPractices: 6,
		WorkflowSteps: 4,
		Tools:         5,
		Examples:      3,
		Authority:     TierMaintained,
		OpenQuestions: []string{"what about retries?"},
	}

	report, err := Evaluate(f)
	require.NoError(t, err)

	assert.InDelta(t, 0.8, report.Scores[DimAuthority], 1e-9)
	assert.InDelta(t, 0.6, report.Scores[DimConcepts], 1e-9)
	assert.InDelta(t, 0.8, report.Scores[DimPractices], 1e-9)
	assert.InDelta(t, 0.6, report.Scores[DimWorkflow], 1e-9)
	assert.InDelta(t, 1.0, report.Scores[DimTools], 1e-9)
	assert.InDelta(t, 0.6, report.Scores[DimExamples], 1e-9)
	assert.InDelta(t, 0.7, report.Scores[DimCompleteness], 1e-9)

	assert.InDelta(t, 0.72, report.Composite, 1e-9)
	assert.Equal(t, DecisionProceedWithWarnings, report.Decision)
}

func TestEvaluateRichFindingsProceed(t *testing.T) {
	f := Findings{
		Concepts:      12,
		BestPractices: 9,
		WorkflowSteps: 8,
		Tools:         6,
		Examples:      6,
		Authority:     TierOfficial,
	}

	report, err := Evaluate(f)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, report.Composite, 1e-9)
	assert.Equal(t, DecisionProceed, report.Decision)
	assert.Empty(t, report.Gaps)
}

func TestEvaluateEmptyFindingsClarify(t *testing.T) {
	report, err := Evaluate(Findings{})
	require.NoError(t, err)

	assert.InDelta(t, 0.1, report.Composite, 1e-9) // only completeness scores 1.0
	assert.Equal(t, DecisionClarify, report.Decision)
	assert.NotEmpty(t, report.Gaps)
}

func TestCompositeAlwaysInUnitInterval(t *testing.T) {
	cases := []Findings{
		{},
		{Concepts: 100, BestPractices: 100, WorkflowSteps: 100, Tools: 100, Examples: 100, Authority: TierOfficial},
		{Concepts: 1, Authority: TierForum, OpenQuestions: make([]string, 10)},
		{WorkflowSteps: 3, Tools: 2},
	}

	for _, f := range cases {
		report, err := Evaluate(f)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, report.Composite, 0.0)
		assert.LessOrEqual(t, report.Composite, 1.0)
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	f := Findings{
		Concepts:      4,
		BestPractices: 2,
		WorkflowSteps: 1,
		Tools:         1,
		Examples:      0,
		Authority:     TierForum,
		OpenQuestions: []string{"a", "b"},
	}

	first, err := Evaluate(f)
	require.NoError(t, err)
	second, err := Evaluate(f)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGapSeverityOrdering(t *testing.T) {
	// Workflow below 0.4 is critical; other weak dimensions rank behind it.
	f := Findings{
		Concepts:      5,    // 0.6, no gap
		BestPractices: 2,    // 0.4, medium
		WorkflowSteps: 1,    // 0.2, critical
		Tools:         1,    // 0.2, high
		Examples:      3,    // 0.6, no gap
		Authority:     TierCommunity, // 0.6, no gap
	}

	report, err := Evaluate(f)
	require.NoError(t, err)
	require.NotEmpty(t, report.Gaps)

	assert.Equal(t, DimWorkflow, report.Gaps[0].Dimension)
	assert.Equal(t, SeverityCritical, report.Gaps[0].Severity)

	for i := 1; i < len(report.Gaps); i++ {
		assert.LessOrEqual(t,
			severityRank(report.Gaps[i-1].Severity),
			severityRank(report.Gaps[i].Severity))
	}
}

func TestTopQuestionsCapped(t *testing.T) {
	report, err := Evaluate(Findings{})
	require.NoError(t, err)

	questions := report.TopQuestions(MaxQuestionsPerRound)
	assert.Len(t, questions, 2)
	for _, q := range questions {
		assert.NotEmpty(t, q)
	}
}

func TestAuthorityTierSteps(t *testing.T) {
	cases := map[Tier]float64{
		TierNone:       0.0,
		TierUnknown:    0.2,
		TierForum:      0.4,
		TierCommunity:  0.6,
		TierMaintained: 0.8,
		TierOfficial:   1.0,
	}
	for tier, want := range cases {
		assert.InDelta(t, want, scoreAuthority(tier), 1e-9)
	}
}
