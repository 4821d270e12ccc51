package orchestrator

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/skillforge/skillforge/pkg/blueprint"
	"github.com/skillforge/skillforge/pkg/budget"
	"github.com/skillforge/skillforge/pkg/sufficiency"
)

// minRequiredSectionLines is the floor a mandatory section may never
// shrink below, even under budget pressure.
const minRequiredSectionLines = 10

// Importance bonuses. Content that fills an open research gap, or
// that other planned files depend on, shrinks last under budget
// pressure.
const (
	gapFillBonus          = 0.15
	usageBonusPerConsumer = 0.05
)

// CompressToBudget fits a designed blueprint into the documented size
// caps: section line budgets into the primary-document cap, reference
// token budgets into the reference-set cap. Open discovery gaps boost
// the importance of the categories that fill them. The input is never
// mutated; an infeasible blueprint (floors exceed the cap) surfaces
// budget.ErrBudgetInfeasible and needs redesign, not retry.
func CompressToBudget(bp *blueprint.Blueprint, gaps []sufficiency.Gap) (*blueprint.Blueprint, error) {
	compressed := *bp
	compressed.Sections = append([]blueprint.Section{}, bp.Sections...)
	compressed.Files = append([]blueprint.PlannedFile{}, bp.Files...)

	gapped := gapCategories(gaps)
	if err := compressSections(&compressed, gapped); err != nil {
		return nil, err
	}
	if err := compressReferences(&compressed, gapped); err != nil {
		return nil, err
	}
	return &compressed, nil
}

// gapCategories maps open sufficiency gaps to the budget categories
// whose content fills them. Authority and completeness gaps have no
// section counterpart.
func gapCategories(gaps []sufficiency.Gap) map[budget.Category]bool {
	out := make(map[budget.Category]bool, len(gaps))
	for _, gap := range gaps {
		switch gap.Dimension {
		case sufficiency.DimWorkflow:
			out[budget.CategoryWorkflow] = true
		case sufficiency.DimExamples:
			out[budget.CategoryExample] = true
		case sufficiency.DimTools:
			out[budget.CategoryTooling] = true
		case sufficiency.DimConcepts, sufficiency.DimPractices:
			out[budget.CategoryDomain] = true
		}
	}
	return out
}

func compressSections(bp *blueprint.Blueprint, gapped map[budget.Category]bool) error {
	if len(bp.Sections) == 0 {
		return nil
	}

	candidates := make([]budget.Candidate, 0, len(bp.Sections))
	for _, section := range bp.Sections {
		natural := section.LineBudget
		floor := 0
		if section.Required {
			floor = minRequiredSectionLines
			if natural < floor {
				natural = floor
			}
		}
		category := categorizeSection(section.Name)
		candidate := budget.Candidate{
			Name:        section.Name,
			Category:    category,
			NaturalSize: natural,
			Floor:       floor,
		}
		if gapped[category] {
			candidate.GapBonus = gapFillBonus
		}
		candidates = append(candidates, candidate)
	}

	plan, err := budget.Allocate(blueprint.MaxSkillLines, candidates)
	if err != nil {
		return errors.Wrap(err, "section budgets do not fit")
	}

	for i := range bp.Sections {
		if alloc, ok := plan.Get(bp.Sections[i].Name); ok {
			bp.Sections[i].LineBudget = alloc.Allocated
		}
	}
	return nil
}

func compressReferences(bp *blueprint.Blueprint, gapped map[budget.Category]bool) error {
	consumers := referenceConsumers(bp)

	var candidates []budget.Candidate
	for _, file := range bp.Files {
		if file.Kind != blueprint.KindReference {
			continue
		}
		category := categorizeReference(file.Path)
		candidate := budget.Candidate{
			Name:        file.Path,
			Category:    category,
			NaturalSize: file.TokenBudget,
			Ceiling:     blueprint.MaxPerReferenceTokens,
			UsageBonus:  usageBonusPerConsumer * float64(consumers[file.Path]),
		}
		if gapped[category] {
			candidate.GapBonus = gapFillBonus
		}
		candidates = append(candidates, candidate)
	}
	if len(candidates) == 0 {
		return nil
	}

	plan, err := budget.Allocate(blueprint.MaxReferenceTokens, candidates)
	if err != nil {
		return errors.Wrap(err, "reference budgets do not fit")
	}

	for i := range bp.Files {
		if alloc, ok := plan.Get(bp.Files[i].Path); ok {
			bp.Files[i].TokenBudget = alloc.Allocated
		}
	}
	return nil
}

// referenceConsumers counts, per planned file path, how many other
// planned files depend on it.
func referenceConsumers(bp *blueprint.Blueprint) map[string]int {
	counts := make(map[string]int)
	for _, file := range bp.Files {
		for _, dep := range file.DependsOn {
			counts[dep]++
		}
	}
	return counts
}

// categorizeSection maps a section name to its budget category. The
// mandatory overview and workflow sections carry the highest weights.
func categorizeSection(name string) budget.Category {
	name = strings.ToLower(name)
	switch {
	case strings.Contains(name, "workflow"), strings.Contains(name, "step"):
		return budget.CategoryWorkflow
	case strings.Contains(name, "example"):
		return budget.CategoryExample
	case strings.Contains(name, "tool"), strings.Contains(name, "command"):
		return budget.CategoryTooling
	case strings.Contains(name, "troubleshoot"), strings.Contains(name, "reference"),
		strings.Contains(name, "pitfall"):
		return budget.CategoryReference
	default:
		return budget.CategoryDomain
	}
}

func categorizeReference(path string) budget.Category {
	lower := strings.ToLower(path)
	if strings.Contains(lower, "example") {
		return budget.CategoryExample
	}
	return budget.CategoryReference
}
