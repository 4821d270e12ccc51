package orchestrator

import (
	"fmt"
	"strings"

	"github.com/skillforge/skillforge/pkg/blueprint"
	"github.com/skillforge/skillforge/pkg/skillpack"
)

const generationSystemPrompt = `You are writing one file of a skill package: a bundle of instruction
documents, references, and helper scripts that teaches a capable reader
to perform a task. Write only the file content, nothing else. Respect
the size budget you are given; going over it fails validation.`

const contentQualityRubric = `You are reviewing a skill document for content quality: clarity,
correctness, actionability, and internal consistency. Reply with:

SCORE: <0-10>
ISSUE: <one concrete problem, if any>

Repeat the ISSUE line for each problem found. Output nothing else.`

const expertiseRubric = `You are reviewing a skill document for domain-expertise depth: does it
read like it was written by a practitioner, with real constraints,
trade-offs, and failure modes, rather than a generic summary? Reply with:

SCORE: <0-10>
ISSUE: <one concrete gap in depth, if any>

Repeat the ISSUE line for each gap found. Output nothing else.`

// generationPrompt builds the per-file prompt: the request, the file's
// role and budget, and the paths already generated so the worker keeps
// cross-references consistent.
func generationPrompt(request string, bp *blueprint.Blueprint, file blueprint.PlannedFile, done []skillpack.Artifact) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Skill: %s (%s)\n", bp.Name, bp.Type)
	fmt.Fprintf(&b, "Description: %s\n", bp.Description)
	fmt.Fprintf(&b, "User request: %s\n\n", request)

	switch file.Kind {
	case blueprint.KindSkill:
		fmt.Fprintf(&b, "Write %s. Start with YAML frontmatter carrying name: %s and the description above.\n",
			file.Path, bp.Name)
		b.WriteString("Sections, each as a '## ' heading, with their line budgets:\n")
		for _, section := range bp.Sections {
			fmt.Fprintf(&b, "- %s: at most %d lines\n", section.Name, section.LineBudget)
		}
	case blueprint.KindReference:
		fmt.Fprintf(&b, "Write the reference document %s, budgeted at roughly %d tokens.\n",
			file.Path, file.TokenBudget)
	case blueprint.KindScript:
		fmt.Fprintf(&b, "Write the helper script %s. Begin with a shebang line.\n", file.Path)
	}

	if len(done) > 0 {
		b.WriteString("\nAlready generated (reference these paths, do not repeat their content):\n")
		for _, artifact := range done {
			fmt.Fprintf(&b, "- %s\n", artifact.Path)
		}
	}
	return b.String()
}

func generationMaxTokens(file blueprint.PlannedFile) int {
	switch file.Kind {
	case blueprint.KindReference:
		if file.TokenBudget > 0 {
			// Headroom for the worker to land under the budget.
			return file.TokenBudget + file.TokenBudget/4
		}
		return blueprint.MaxPerReferenceTokens
	case blueprint.KindScript:
		return 2048
	default:
		return 8192
	}
}
