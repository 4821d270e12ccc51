package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func documentedComponents() []ComponentScore {
	return []ComponentScore{
		{Name: ComponentSpecCompliance, Score: 10, Weight: 0.25, HardFail: true, Passed: true},
		{Name: ComponentStructure, Score: 9.2, Weight: 0.10, HardFail: true, Passed: true},
		{Name: ComponentContentQuality, Score: 7.8, Weight: 0.20, Passed: true},
		{Name: ComponentExpertise, Score: 7.2, Weight: 0.15, Passed: true},
		{Name: ComponentBudget, Score: 10, Weight: 0.10, HardFail: true, Passed: true},
		{Name: ComponentFrontmatter, Score: 10, Weight: 0.10, HardFail: true, Passed: true},
	}
}

// With scripts absent, weights sum to 0.90 and the composite is
// renormalized by that sum: 8.06/0.90.
func TestAggregateRenormalizesAbsentComponent(t *testing.T) {
	a, err := Aggregate(documentedComponents())
	require.NoError(t, err)

	assert.InDelta(t, 8.06/0.90, a.Overall, 1e-9)
	assert.True(t, a.Passed)
	assert.Equal(t, RecommendationApprove, a.Recommendation)
}

// With scripts present at weight 0.10, the weights sum to 1.0 and the
// same components produce (8.06 + 0.10*scripts)/1.0.
func TestAggregateWithScriptsIncluded(t *testing.T) {
	components := append(documentedComponents(),
		ComponentScore{Name: ComponentScripts, Score: 9.0, Weight: 0.10, HardFail: true, Passed: true})

	a, err := Aggregate(components)
	require.NoError(t, err)
	assert.InDelta(t, 8.06+0.9, a.Overall, 1e-9)
}

func TestAggregateHardFailureBlocksDespiteHighAverage(t *testing.T) {
	components := []ComponentScore{
		{Name: ComponentContentQuality, Score: 9.5, Weight: 0.45, Passed: true},
		{Name: ComponentExpertise, Score: 9.5, Weight: 0.35, Passed: true},
		{Name: ComponentStructure, Score: 2.0, Weight: 0.20, HardFail: true, Passed: false,
			Errors: []string{"required section \"workflow\" is missing"}},
	}

	a, err := Aggregate(components)
	require.NoError(t, err)

	assert.Greater(t, a.Overall, 7.0, "the average alone would pass")
	assert.False(t, a.Passed)
	assert.Equal(t, RecommendationReject, a.Recommendation)
	require.Len(t, a.BlockingIssues, 1)
	assert.Contains(t, a.BlockingIssues[0], "workflow")
}

func TestPassedImpliesNoBlockingIssues(t *testing.T) {
	cases := [][]ComponentScore{
		documentedComponents(),
		{
			{Name: "a", Score: 8, Weight: 0.5, HardFail: true, Passed: true},
			{Name: "b", Score: 4, Weight: 0.5, HardFail: true, Passed: false, Errors: []string{"broken"}},
		},
		{
			{Name: "only", Score: 3, Weight: 1.0, Passed: true},
		},
	}

	for _, components := range cases {
		a, err := Aggregate(components)
		require.NoError(t, err)
		if a.Passed {
			assert.Empty(t, a.BlockingIssues)
		}
	}
}

func TestRecommendationLadder(t *testing.T) {
	build := func(overall float64) []ComponentScore {
		return []ComponentScore{{Name: "only", Score: overall, Weight: 1.0, Passed: true}}
	}

	cases := []struct {
		overall float64
		want    Recommendation
	}{
		{9.0, RecommendationApprove},
		{8.0, RecommendationApprove},
		{6.5, RecommendationRevise},
		{5.0, RecommendationRevise},
		{4.9, RecommendationReject},
		{1.0, RecommendationReject},
	}

	for _, tc := range cases {
		a, err := Aggregate(build(tc.overall))
		require.NoError(t, err)
		assert.Equal(t, tc.want, a.Recommendation, "overall %.1f", tc.overall)
	}
}

// Borderline approvals (7.0 <= overall < 8.0) require every high-weight
// component to score at least 6.0.
func TestBorderlineApprovalBlockedByWeakHighWeightComponent(t *testing.T) {
	components := []ComponentScore{
		{Name: "strong", Score: 8.0, Weight: 0.60, Passed: true},
		{Name: "weak", Score: 5.5, Weight: 0.40, Passed: true},
	}

	a, err := Aggregate(components)
	require.NoError(t, err)
	require.GreaterOrEqual(t, a.Overall, 7.0)
	require.Less(t, a.Overall, 8.0)
	assert.Equal(t, RecommendationRevise, a.Recommendation)
}

func TestBorderlineApprovalWithSolidComponents(t *testing.T) {
	components := []ComponentScore{
		{Name: "strong", Score: 7.6, Weight: 0.50, Passed: true},
		{Name: "solid", Score: 7.0, Weight: 0.50, Passed: true},
	}

	a, err := Aggregate(components)
	require.NoError(t, err)
	require.GreaterOrEqual(t, a.Overall, 7.0)
	require.Less(t, a.Overall, 8.0)
	assert.Equal(t, RecommendationApprove, a.Recommendation)
}

func TestAggregateValidation(t *testing.T) {
	_, err := Aggregate(nil)
	assert.Error(t, err)

	_, err = Aggregate([]ComponentScore{
		{Name: "dup", Score: 5, Weight: 0.5},
		{Name: "dup", Score: 5, Weight: 0.5},
	})
	assert.Error(t, err)

	_, err = Aggregate([]ComponentScore{{Name: "range", Score: 11, Weight: 1.0}})
	assert.Error(t, err)
}
