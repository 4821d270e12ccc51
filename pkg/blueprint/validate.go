package blueprint

import (
	"fmt"
	"strings"
)

// Size ceilings. A check produces an error above the hard limit and a
// warning above the warning ratio of the limit.
const (
	// MaxSkillLines caps the primary document.
	MaxSkillLines = 500
	// MaxReferenceTokens caps the whole reference set.
	MaxReferenceTokens = 20000
	// MaxPerReferenceTokens caps a single reference file.
	MaxPerReferenceTokens = 5000

	warnRatio = 0.8
)

// Identifier constraints on the skill's public name and description.
const (
	MinNameLength        = 3
	MaxNameLength        = 64
	MaxDescriptionLength = 1024
)

// Rule names cited by validation issues.
const (
	RuleRequiredSections = "required-sections"
	RuleSkillLines       = "skill-line-count"
	RuleReferenceTokens  = "reference-token-count"
	RulePerReference     = "per-reference-token-count"
	RuleGenerationOrder  = "generation-order"
	RuleName             = "skill-name"
	RuleDescription      = "skill-description"
	RuleTypeSections     = "type-sections"
)

// requiredSections must appear in every blueprint regardless of type.
var requiredSections = []string{"overview", "workflow"}

// typeSections are soft expectations per skill type, reported as
// warnings only.
var typeSections = map[SkillType][]string{
	TypeAutomation: {"trigger", "verification"},
	TypeWorkflow:   {"steps"},
}

// placeholderMarkers flag unresolved template content in descriptions.
var placeholderMarkers = []string{"{{", "}}", "TODO", "TBD", "FIXME", "<placeholder>"}

// Issue is a single validation finding citing the rule that produced it.
type Issue struct {
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Rule, i.Message)
}

// Validate checks the blueprint against all structural and size
// constraints. Checks are independent and order-insensitive; the
// blueprint is never mutated. Callers decide whether to auto-correct
// (typically by proportional budget compression) and re-validate, or
// escalate.
func Validate(bp *Blueprint) (errs []Issue, warns []Issue) {
	errs = append(errs, checkName(bp)...)
	errs = append(errs, checkDescription(bp)...)

	e, w := checkRequiredSections(bp)
	errs, warns = append(errs, e...), append(warns, w...)

	e, w = checkSizes(bp)
	errs, warns = append(errs, e...), append(warns, w...)

	errs = append(errs, checkGenerationOrder(bp)...)
	warns = append(warns, checkTypeSections(bp)...)

	return errs, warns
}

func checkName(bp *Blueprint) []Issue {
	var issues []Issue
	name := bp.Name

	if len(name) < MinNameLength || len(name) > MaxNameLength {
		issues = append(issues, Issue{RuleName,
			fmt.Sprintf("name %q must be between %d and %d characters", name, MinNameLength, MaxNameLength)})
		return issues
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
			issues = append(issues, Issue{RuleName,
				fmt.Sprintf("name %q may only contain lowercase letters, digits, and hyphens", name)})
			break
		}
	}
	if strings.HasPrefix(name, "-") || strings.HasSuffix(name, "-") {
		issues = append(issues, Issue{RuleName,
			fmt.Sprintf("name %q may not start or end with a hyphen", name)})
	}
	if strings.Contains(name, "--") {
		issues = append(issues, Issue{RuleName,
			fmt.Sprintf("name %q may not contain repeated hyphens", name)})
	}
	return issues
}

func checkDescription(bp *Blueprint) []Issue {
	var issues []Issue
	desc := strings.TrimSpace(bp.Description)

	if desc == "" {
		issues = append(issues, Issue{RuleDescription, "description must not be empty"})
		return issues
	}
	if len(desc) > MaxDescriptionLength {
		issues = append(issues, Issue{RuleDescription,
			fmt.Sprintf("description exceeds %d characters", MaxDescriptionLength)})
	}
	for _, marker := range placeholderMarkers {
		if strings.Contains(desc, marker) {
			issues = append(issues, Issue{RuleDescription,
				fmt.Sprintf("description contains unresolved placeholder %q", marker)})
			break
		}
	}
	return issues
}

func checkRequiredSections(bp *Blueprint) (errs, warns []Issue) {
	for _, required := range requiredSections {
		if _, ok := bp.Section(required); !ok {
			errs = append(errs, Issue{RuleRequiredSections,
				fmt.Sprintf("required section %q is missing", required)})
		}
	}
	return errs, warns
}

func checkSizes(bp *Blueprint) (errs, warns []Issue) {
	lines := bp.SkillLines()
	if lines > MaxSkillLines {
		errs = append(errs, Issue{RuleSkillLines,
			fmt.Sprintf("primary document budget is %d lines, hard cap is %d", lines, MaxSkillLines)})
	} else if float64(lines) > warnRatio*MaxSkillLines {
		warns = append(warns, Issue{RuleSkillLines,
			fmt.Sprintf("primary document budget %d lines is above %.0f%% of the %d-line cap", lines, warnRatio*100, MaxSkillLines)})
	}

	tokens := bp.ReferenceTokens()
	if tokens > MaxReferenceTokens {
		errs = append(errs, Issue{RuleReferenceTokens,
			fmt.Sprintf("reference set budget is %d tokens, hard cap is %d", tokens, MaxReferenceTokens)})
	} else if float64(tokens) > warnRatio*MaxReferenceTokens {
		warns = append(warns, Issue{RuleReferenceTokens,
			fmt.Sprintf("reference set budget %d tokens is above %.0f%% of the %d-token cap", tokens, warnRatio*100, MaxReferenceTokens)})
	}

	for _, f := range bp.Files {
		if f.Kind != KindReference {
			continue
		}
		if f.TokenBudget > MaxPerReferenceTokens {
			errs = append(errs, Issue{RulePerReference,
				fmt.Sprintf("reference %q budget is %d tokens, hard cap is %d", f.Path, f.TokenBudget, MaxPerReferenceTokens)})
		} else if float64(f.TokenBudget) > warnRatio*MaxPerReferenceTokens {
			warns = append(warns, Issue{RulePerReference,
				fmt.Sprintf("reference %q budget %d tokens is above %.0f%% of the %d-token cap", f.Path, f.TokenBudget, warnRatio*100, MaxPerReferenceTokens)})
		}
	}
	return errs, warns
}

// checkGenerationOrder verifies that every planned file appears exactly
// once and that every dependency is listed earlier in the order, which
// together make the order a valid topological sort.
func checkGenerationOrder(bp *Blueprint) []Issue {
	var issues []Issue

	planned := make(map[string]PlannedFile, len(bp.Files))
	for _, f := range bp.Files {
		if _, dup := planned[f.Path]; dup {
			issues = append(issues, Issue{RuleGenerationOrder,
				fmt.Sprintf("file %q is planned more than once", f.Path)})
		}
		planned[f.Path] = f
	}

	position := make(map[string]int, len(bp.GenerationOrder))
	for i, path := range bp.GenerationOrder {
		if _, seen := position[path]; seen {
			issues = append(issues, Issue{RuleGenerationOrder,
				fmt.Sprintf("%q appears more than once in generation_order", path)})
			continue
		}
		position[path] = i
		if _, ok := planned[path]; !ok {
			issues = append(issues, Issue{RuleGenerationOrder,
				fmt.Sprintf("generation_order references unplanned file %q", path)})
		}
	}

	for _, f := range bp.Files {
		pos, listed := position[f.Path]
		if !listed {
			issues = append(issues, Issue{RuleGenerationOrder,
				fmt.Sprintf("planned file %q is missing from generation_order", f.Path)})
			continue
		}
		for _, dep := range f.DependsOn {
			depPos, ok := position[dep]
			if !ok {
				issues = append(issues, Issue{RuleGenerationOrder,
					fmt.Sprintf("file %q depends on %q, which is not in generation_order", f.Path, dep)})
				continue
			}
			if depPos >= pos {
				issues = append(issues, Issue{RuleGenerationOrder,
					fmt.Sprintf("file %q depends on %q, which is not generated earlier", f.Path, dep)})
			}
		}
	}
	return issues
}

func checkTypeSections(bp *Blueprint) []Issue {
	var warns []Issue
	for _, expected := range typeSections[bp.Type] {
		if _, ok := bp.Section(expected); !ok {
			warns = append(warns, Issue{RuleTypeSections,
				fmt.Sprintf("%s skills usually declare a %q section", bp.Type, expected)})
		}
	}
	return warns
}
