package research

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillforge/skillforge/pkg/sufficiency"
	"github.com/skillforge/skillforge/pkg/worker"
)

func TestWorkerProviderParsesReply(t *testing.T) {
	scripted := worker.NewScriptedWorker(worker.Result{Text: `
CONCEPT: the staging area separates edits from commits
PRACTICE: commit small, reviewable changes
STEP: stage the files you mean to commit
TOOL: git add with the -p flag for hunk selection
EXAMPLE: splitting a refactor into three commits
QUESTION: how does this interact with partial clones?
AUTHORITY: official
some stray line the model added
`})

	provider, err := NewWorkerProvider(scripted)
	require.NoError(t, err)

	findings, err := provider.Search(context.Background(), "git staging basics")
	require.NoError(t, err)
	require.Len(t, findings, 6)

	for _, finding := range findings {
		assert.Equal(t, "git staging basics", finding.Query)
		assert.Equal(t, sufficiency.TierOfficial, finding.Authority)
	}

	tallied := Tally(findings)
	assert.Equal(t, 1, tallied.Concepts)
	assert.Equal(t, 1, tallied.BestPractices)
	assert.Equal(t, 1, tallied.WorkflowSteps)
	assert.Equal(t, 1, tallied.Tools)
	assert.Equal(t, 1, tallied.Examples)
	assert.Len(t, tallied.OpenQuestions, 1)
}

func TestWorkerProviderUnknownAuthority(t *testing.T) {
	scripted := worker.NewScriptedWorker(worker.Result{Text: "CONCEPT: x\nAUTHORITY: blog-post"})

	provider, err := NewWorkerProvider(scripted)
	require.NoError(t, err)

	findings, err := provider.Search(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, sufficiency.TierUnknown, findings[0].Authority)
}

func TestWorkerProviderEmptyReply(t *testing.T) {
	provider, err := NewWorkerProvider(worker.NewScriptedWorker(worker.Result{Text: "nothing structured here"}))
	require.NoError(t, err)

	findings, err := provider.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestWorkerProviderRequiresWorker(t *testing.T) {
	_, err := NewWorkerProvider(nil)
	assert.Error(t, err)
}
