package quality

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/skillforge/skillforge/pkg/blueprint"
	"github.com/skillforge/skillforge/pkg/skillpack"
	"github.com/skillforge/skillforge/pkg/worker"
)

// StructuralScorer verifies the generated bundle's structure: the
// primary document exists, parses, and contains every planned section.
type StructuralScorer struct{}

func (StructuralScorer) Name() string { return ComponentStructure }

func (StructuralScorer) Evaluate(_ context.Context, target Target) (ComponentScore, error) {
	score := ComponentScore{
		Name:     ComponentStructure,
		Weight:   DefaultWeights[ComponentStructure],
		HardFail: true,
		Score:    10,
		Passed:   true,
	}

	skill, ok := target.Bundle.Skill()
	if !ok {
		score.Score = 0
		score.Passed = false
		score.Errors = append(score.Errors, "primary document is missing from the bundle")
		return score, nil
	}

	if _, err := skillpack.ParseFrontmatter(skill.Content); err != nil {
		score.Score -= 4
		score.Passed = false
		score.Errors = append(score.Errors, fmt.Sprintf("frontmatter: %v", err))
	}

	present := make(map[string]bool)
	for _, name := range skillpack.Sections(skill.Content) {
		present[name] = true
	}
	for _, section := range target.Blueprint.Sections {
		if !present[strings.ToLower(section.Name)] {
			score.Score -= 2
			if section.Required {
				score.Passed = false
				score.Errors = append(score.Errors, fmt.Sprintf("required section %q is missing", section.Name))
			} else {
				score.Warnings = append(score.Warnings, fmt.Sprintf("planned section %q is missing", section.Name))
			}
		}
	}

	if score.Score < 0 {
		score.Score = 0
	}
	return score, nil
}

// FrontmatterScorer verifies that the generated frontmatter matches the
// blueprint identity.
type FrontmatterScorer struct{}

func (FrontmatterScorer) Name() string { return ComponentFrontmatter }

func (FrontmatterScorer) Evaluate(_ context.Context, target Target) (ComponentScore, error) {
	score := ComponentScore{
		Name:     ComponentFrontmatter,
		Weight:   DefaultWeights[ComponentFrontmatter],
		HardFail: true,
		Score:    10,
		Passed:   true,
	}

	skill, ok := target.Bundle.Skill()
	if !ok {
		score.Score = 0
		score.Passed = false
		score.Errors = append(score.Errors, "primary document is missing from the bundle")
		return score, nil
	}

	fm, err := skillpack.ParseFrontmatter(skill.Content)
	if err != nil {
		score.Score = 0
		score.Passed = false
		score.Errors = append(score.Errors, err.Error())
		return score, nil
	}

	if fm.Name != target.Blueprint.Name {
		score.Score -= 5
		score.Passed = false
		score.Errors = append(score.Errors,
			fmt.Sprintf("frontmatter name %q does not match blueprint name %q", fm.Name, target.Blueprint.Name))
	}
	if strings.TrimSpace(fm.Description) == "" {
		score.Score -= 5
		score.Passed = false
		score.Errors = append(score.Errors, "frontmatter description is empty")
	}
	if score.Score < 0 {
		score.Score = 0
	}
	return score, nil
}

// SpecComplianceScorer verifies that every planned file was generated.
// Compliance is all-or-nothing for the gate: the score is the generated
// fraction on the 0-10 scale, but only 10 passes.
type SpecComplianceScorer struct{}

func (SpecComplianceScorer) Name() string { return ComponentSpecCompliance }

func (SpecComplianceScorer) Evaluate(_ context.Context, target Target) (ComponentScore, error) {
	score := ComponentScore{
		Name:     ComponentSpecCompliance,
		Weight:   DefaultWeights[ComponentSpecCompliance],
		HardFail: true,
	}

	planned := len(target.Blueprint.Files)
	if planned == 0 {
		score.Score = 10
		score.Passed = true
		return score, nil
	}

	var generated int
	for _, f := range target.Blueprint.Files {
		if _, ok := target.Bundle.Get(f.Path); ok {
			generated++
		} else {
			score.Errors = append(score.Errors, fmt.Sprintf("planned file %q was not generated", f.Path))
		}
	}
	for _, a := range target.Bundle.Artifacts {
		if _, ok := target.Blueprint.File(a.Path); !ok {
			score.Errors = append(score.Errors, fmt.Sprintf("unplanned file %q was generated", a.Path))
		}
	}

	score.Score = 10 * float64(generated) / float64(planned)
	score.Passed = len(score.Errors) == 0
	return score, nil
}

// BudgetScorer verifies that generated artifacts respect the
// blueprint's line and token allocations. Small overruns cost points;
// exceeding a hard cap fails the component.
type BudgetScorer struct{}

func (BudgetScorer) Name() string { return ComponentBudget }

func (BudgetScorer) Evaluate(_ context.Context, target Target) (ComponentScore, error) {
	score := ComponentScore{
		Name:     ComponentBudget,
		Weight:   DefaultWeights[ComponentBudget],
		HardFail: true,
		Score:    10,
		Passed:   true,
	}

	if skill, ok := target.Bundle.Skill(); ok {
		lines := skill.Lines()
		budget := target.Blueprint.SkillLines()
		switch {
		case lines > blueprint.MaxSkillLines:
			score.Score = 0
			score.Passed = false
			score.Errors = append(score.Errors,
				fmt.Sprintf("primary document is %d lines, hard cap is %d", lines, blueprint.MaxSkillLines))
		case budget > 0 && lines > budget:
			score.Score -= 3
			score.Warnings = append(score.Warnings,
				fmt.Sprintf("primary document is %d lines, budgeted %d", lines, budget))
		}
	}

	for _, f := range target.Blueprint.Files {
		if f.Kind != blueprint.KindReference || f.TokenBudget == 0 {
			continue
		}
		artifact, ok := target.Bundle.Get(f.Path)
		if !ok {
			continue // spec compliance reports missing files
		}
		tokens := artifact.Tokens()
		switch {
		case tokens > blueprint.MaxPerReferenceTokens:
			score.Score = 0
			score.Passed = false
			score.Errors = append(score.Errors,
				fmt.Sprintf("reference %q is %d tokens, hard cap is %d", f.Path, tokens, blueprint.MaxPerReferenceTokens))
		case tokens > f.TokenBudget:
			score.Score -= 2
			score.Warnings = append(score.Warnings,
				fmt.Sprintf("reference %q is %d tokens, budgeted %d", f.Path, tokens, f.TokenBudget))
		}
	}

	if score.Score < 0 {
		score.Score = 0
	}
	return score, nil
}

// ScriptScorer runs static checks over generated scripts: non-empty
// content and an interpreter line. Actual execution is delegated to an
// external script-tester collaborator when one is configured.
type ScriptScorer struct{}

func (ScriptScorer) Name() string { return ComponentScripts }

func (ScriptScorer) Evaluate(_ context.Context, target Target) (ComponentScore, error) {
	score := ComponentScore{
		Name:     ComponentScripts,
		Weight:   DefaultWeights[ComponentScripts],
		HardFail: true,
		Score:    10,
		Passed:   true,
	}

	for _, f := range target.Blueprint.Files {
		if f.Kind != blueprint.KindScript {
			continue
		}
		artifact, ok := target.Bundle.Get(f.Path)
		if !ok {
			continue
		}
		if strings.TrimSpace(artifact.Content) == "" {
			score.Score = 0
			score.Passed = false
			score.Errors = append(score.Errors, fmt.Sprintf("script %q is empty", f.Path))
			continue
		}
		if !strings.HasPrefix(artifact.Content, "#!") {
			score.Score -= 3
			score.Warnings = append(score.Warnings, fmt.Sprintf("script %q has no interpreter line", f.Path))
		}
	}

	if score.Score < 0 {
		score.Score = 0
	}
	return score, nil
}

// WorkerScorer delegates a judgment call (content quality, expertise
// depth) to a worker. The worker must reply with a "SCORE: <0-10>"
// line; subsequent "ISSUE: ..." lines become warnings.
type WorkerScorer struct {
	ComponentName string
	Weight        float64
	Hard          bool
	Worker        worker.Worker
	Rubric        string
}

func (s *WorkerScorer) Name() string { return s.ComponentName }

func (s *WorkerScorer) Evaluate(ctx context.Context, target Target) (ComponentScore, error) {
	score := ComponentScore{
		Name:     s.ComponentName,
		Weight:   s.Weight,
		HardFail: s.Hard,
	}

	skill, ok := target.Bundle.Skill()
	if !ok {
		score.Passed = false
		score.Errors = append(score.Errors, "primary document is missing from the bundle")
		return score, nil
	}

	result, err := s.Worker.Execute(ctx, worker.Request{
		System: s.Rubric,
		Prompt: skill.Content,
	})
	if err != nil {
		return ComponentScore{}, err
	}

	parsed, issues, err := parseJudgment(result.Text)
	if err != nil {
		return ComponentScore{}, err
	}

	score.Score = parsed
	score.Passed = true
	score.Warnings = issues
	return score, nil
}

func parseJudgment(text string) (float64, []string, error) {
	var score float64
	var found bool
	var issues []string

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(trimmed, "SCORE:"); ok {
			parsed, err := strconv.ParseFloat(strings.TrimSpace(rest), 64)
			if err != nil {
				return 0, nil, errors.Errorf("unparseable score line %q", trimmed)
			}
			score = parsed
			found = true
		} else if rest, ok := strings.CutPrefix(trimmed, "ISSUE:"); ok {
			issues = append(issues, strings.TrimSpace(rest))
		}
	}

	if !found {
		return 0, nil, errors.New("judgment reply contains no SCORE line")
	}
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}
	return score, issues, nil
}
