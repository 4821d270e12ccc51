package blueprint

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBlueprint() *Blueprint {
	return &Blueprint{
		Name:        "git-release-helper",
		Type:        TypeWorkflow,
		Description: "Guides a release through tagging, changelog, and publication.",
		Sections: []Section{
			{Name: "overview", LineBudget: 40, Required: true},
			{Name: "workflow", LineBudget: 120, Required: true},
			{Name: "steps", LineBudget: 80},
		},
		Files: []PlannedFile{
			{Path: "SKILL.md", Kind: KindSkill},
			{Path: "references/changelog.md", Kind: KindReference, TokenBudget: 2000, DependsOn: []string{"SKILL.md"}},
			{Path: "scripts/tag.sh", Kind: KindScript, DependsOn: []string{"SKILL.md"}},
		},
		GenerationOrder: []string{"SKILL.md", "references/changelog.md", "scripts/tag.sh"},
	}
}

func TestValidateCleanBlueprint(t *testing.T) {
	errs, warns := Validate(validBlueprint())
	assert.Empty(t, errs)
	assert.Empty(t, warns)
}

// A 520-line primary document against the 500-line cap must produce
// exactly one error, citing the line-count rule, and nothing else.
func TestValidateLineCapSingleError(t *testing.T) {
	bp := validBlueprint()
	bp.Sections = []Section{
		{Name: "overview", LineBudget: 120, Required: true},
		{Name: "workflow", LineBudget: 400, Required: true},
	}
	require.Equal(t, 520, bp.SkillLines())

	errs, _ := Validate(bp)
	require.Len(t, errs, 1)
	assert.Equal(t, RuleSkillLines, errs[0].Rule)
	assert.Contains(t, errs[0].Message, "520")
}

func TestValidateWarnsAboveEightyPercent(t *testing.T) {
	bp := validBlueprint()
	bp.Sections = []Section{
		{Name: "overview", LineBudget: 100, Required: true},
		{Name: "workflow", LineBudget: 330, Required: true},
	}

	errs, warns := Validate(bp)
	assert.Empty(t, errs)
	require.Len(t, warns, 1)
	assert.Equal(t, RuleSkillLines, warns[0].Rule)
}

func TestValidateMissingRequiredSection(t *testing.T) {
	bp := validBlueprint()
	bp.Sections = bp.Sections[:1] // drop workflow

	errs, _ := Validate(bp)
	require.Len(t, errs, 1)
	assert.Equal(t, RuleRequiredSections, errs[0].Rule)
	assert.Contains(t, errs[0].Message, "workflow")
}

func TestValidateReferenceTokenCaps(t *testing.T) {
	bp := validBlueprint()
	bp.Files = append(bp.Files, PlannedFile{
		Path: "references/huge.md", Kind: KindReference, TokenBudget: 6000,
	})
	bp.GenerationOrder = append(bp.GenerationOrder, "references/huge.md")

	errs, _ := Validate(bp)
	require.Len(t, errs, 1)
	assert.Equal(t, RulePerReference, errs[0].Rule)
}

func TestValidateGenerationOrder(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		bp := validBlueprint()
		bp.GenerationOrder = []string{"SKILL.md", "references/changelog.md"}

		errs, _ := Validate(bp)
		require.Len(t, errs, 1)
		assert.Equal(t, RuleGenerationOrder, errs[0].Rule)
		assert.Contains(t, errs[0].Message, "scripts/tag.sh")
	})

	t.Run("duplicate entry", func(t *testing.T) {
		bp := validBlueprint()
		bp.GenerationOrder = append(bp.GenerationOrder, "SKILL.md")

		errs, _ := Validate(bp)
		require.NotEmpty(t, errs)
		assert.Equal(t, RuleGenerationOrder, errs[0].Rule)
	})

	t.Run("dependency ordered later", func(t *testing.T) {
		bp := validBlueprint()
		bp.GenerationOrder = []string{"references/changelog.md", "scripts/tag.sh", "SKILL.md"}

		errs, _ := Validate(bp)
		require.NotEmpty(t, errs)
		for _, issue := range errs {
			assert.Equal(t, RuleGenerationOrder, issue.Rule)
		}
	})

	t.Run("unknown entry", func(t *testing.T) {
		bp := validBlueprint()
		bp.GenerationOrder = append(bp.GenerationOrder, "ghost.md")

		errs, _ := Validate(bp)
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0].Message, "ghost.md")
	})
}

func TestValidateNameRules(t *testing.T) {
	cases := map[string]string{
		"ab":                     "too short",
		"Bad-Name":               "uppercase",
		"has--double":            "repeated separators",
		"-leading":               "leading hyphen",
		"trailing-":              "trailing hyphen",
		"under_score":            "invalid charset",
	}

	for name := range cases {
		bp := validBlueprint()
		bp.Name = name

		errs, _ := Validate(bp)
		require.NotEmpty(t, errs, "name %q should fail", name)
		assert.Equal(t, RuleName, errs[0].Rule)
	}
}

func TestValidateDescriptionRules(t *testing.T) {
	bp := validBlueprint()
	bp.Description = ""
	errs, _ := Validate(bp)
	require.Len(t, errs, 1)
	assert.Equal(t, RuleDescription, errs[0].Rule)

	bp = validBlueprint()
	bp.Description = "Does something with {{placeholder}} text"
	errs, _ = Validate(bp)
	require.Len(t, errs, 1)
	assert.Equal(t, RuleDescription, errs[0].Rule)
}

func TestValidateTypeSectionsAreWarnings(t *testing.T) {
	bp := validBlueprint()
	bp.Type = TypeAutomation

	errs, warns := Validate(bp)
	assert.Empty(t, errs)
	require.Len(t, warns, 2)
	for _, w := range warns {
		assert.Equal(t, RuleTypeSections, w.Rule)
	}
}

func TestValidateIsDeterministic(t *testing.T) {
	bp := validBlueprint()
	bp.Sections = bp.Sections[:1]
	bp.GenerationOrder = []string{"SKILL.md"}

	errs1, warns1 := Validate(bp)
	errs2, warns2 := Validate(bp)
	assert.Equal(t, errs1, errs2)
	assert.Equal(t, warns1, warns2)
}

func TestBlueprintYAMLRoundTrip(t *testing.T) {
	bp := validBlueprint()
	path := filepath.Join(t.TempDir(), "blueprint.yaml")

	require.NoError(t, bp.Save(path))
	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, bp, loaded)
}

func TestNewValidationError(t *testing.T) {
	assert.NoError(t, NewValidationError(nil))

	err := NewValidationError([]Issue{{Rule: RuleName, Message: "bad"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), RuleName)
}
