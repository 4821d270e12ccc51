package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/skillforge/skillforge/pkg/blueprint"
	"github.com/skillforge/skillforge/pkg/sufficiency"
	"github.com/skillforge/skillforge/pkg/worker"
)

const architectSystemPrompt = `You design generation blueprints for skill packages. Reply with a
single YAML document and nothing else, using this shape:

name: <kebab-case skill name, 3-64 chars>
type: <knowledge | workflow | automation>
description: <one or two sentences>
sections:
  - name: overview
    line_budget: <int>
    required: true
  - name: workflow
    line_budget: <int>
    required: true
  # further sections as needed
files:
  - path: SKILL.md
    kind: skill
  - path: references/<topic>.md
    kind: reference
    token_budget: <int>
  # scripts only when the skill genuinely needs one
generation_order:
  - SKILL.md
  # every planned file exactly once, dependencies first`

// WorkerArchitect designs blueprints by asking a content worker for a
// YAML plan and parsing it.
type WorkerArchitect struct {
	worker    worker.Worker
	maxTokens int
}

// NewWorkerArchitect creates an architect backed by the given worker.
func NewWorkerArchitect(w worker.Worker) (*WorkerArchitect, error) {
	if w == nil {
		return nil, errors.New("worker is required")
	}
	return &WorkerArchitect{worker: w, maxTokens: 4096}, nil
}

// Design produces a blueprint for the request, informed by what the
// research found.
func (a *WorkerArchitect) Design(ctx context.Context, request string, findings sufficiency.Findings) (*blueprint.Blueprint, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Design a blueprint for this request: %s\n\n", request)
	fmt.Fprintf(&b, "Research coverage: %d concepts, %d best practices, %d workflow steps, %d tools, %d examples.\n",
		findings.Concepts, findings.BestPractices, findings.WorkflowSteps, findings.Tools, findings.Examples)
	if len(findings.OpenQuestions) > 0 {
		b.WriteString("Unresolved questions the skill should acknowledge:\n")
		for _, q := range findings.OpenQuestions {
			fmt.Fprintf(&b, "- %s\n", q)
		}
	}
	return a.ask(ctx, b.String())
}

// Correct revises a rejected blueprint. The validation issues are
// quoted verbatim so the worker fixes exactly what failed.
func (a *WorkerArchitect) Correct(ctx context.Context, bp *blueprint.Blueprint, issues []blueprint.Issue) (*blueprint.Blueprint, error) {
	current, err := yamlString(bp)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("This blueprint failed validation. Fix every listed issue and reply with the corrected YAML only.\n\n")
	b.WriteString("Issues:\n")
	for _, issue := range issues {
		fmt.Fprintf(&b, "- [%s] %s\n", issue.Rule, issue.Message)
	}
	b.WriteString("\nBlueprint:\n")
	b.WriteString(current)
	return a.ask(ctx, b.String())
}

func (a *WorkerArchitect) ask(ctx context.Context, prompt string) (*blueprint.Blueprint, error) {
	result, err := a.worker.Execute(ctx, worker.Request{
		System:    architectSystemPrompt,
		Prompt:    prompt,
		MaxTokens: a.maxTokens,
	})
	if err != nil {
		return nil, errors.Wrap(err, "architect worker failed")
	}

	bp, err := blueprint.Parse([]byte(stripFence(result.Text)))
	if err != nil {
		return nil, errors.Wrap(err, "architect returned unparseable yaml")
	}
	return bp, nil
}

func yamlString(bp *blueprint.Blueprint) (string, error) {
	data, err := yaml.Marshal(bp)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal blueprint")
	}
	return string(data), nil
}

// stripFence removes a markdown code fence if the worker wrapped its
// reply in one.
func stripFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return trimmed
	}
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
