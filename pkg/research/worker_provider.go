package research

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/skillforge/skillforge/pkg/sufficiency"
	"github.com/skillforge/skillforge/pkg/worker"
)

const researchSystemPrompt = `You are a research assistant gathering material for a skill document.
For the given query, report each finding on its own line, prefixed with its category:

CONCEPT: <a core concept the skill must explain>
PRACTICE: <a best practice with its rationale>
STEP: <one step of the working workflow>
TOOL: <a tool or command involved, with its role>
EXAMPLE: <a concrete worked example>
QUESTION: <something your sources could not answer>
AUTHORITY: <one of: official, maintained, community, forum, unknown, none>

Report AUTHORITY exactly once, for the best source you drew on. Output nothing else.`

// WorkerProvider runs research queries through a content worker and
// parses the line-oriented reply into classified findings.
type WorkerProvider struct {
	worker    worker.Worker
	maxTokens int
}

// NewWorkerProvider creates a provider backed by the given worker.
func NewWorkerProvider(w worker.Worker) (*WorkerProvider, error) {
	if w == nil {
		return nil, errors.New("worker is required")
	}
	return &WorkerProvider{worker: w, maxTokens: 2048}, nil
}

// Search runs one query and classifies the reply.
func (p *WorkerProvider) Search(ctx context.Context, query string) ([]Finding, error) {
	result, err := p.worker.Execute(ctx, worker.Request{
		System:    researchSystemPrompt,
		Prompt:    query,
		MaxTokens: p.maxTokens,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "research worker failed for query %q", query)
	}
	return parseFindings(query, result.Text), nil
}

var findingPrefixes = map[string]Kind{
	"CONCEPT":  KindConcept,
	"PRACTICE": KindPractice,
	"STEP":     KindWorkflowStep,
	"TOOL":     KindTool,
	"EXAMPLE":  KindExample,
	"QUESTION": KindOpenQuestion,
}

var authorityNames = map[string]sufficiency.Tier{
	"official":   sufficiency.TierOfficial,
	"maintained": sufficiency.TierMaintained,
	"community":  sufficiency.TierCommunity,
	"forum":      sufficiency.TierForum,
	"unknown":    sufficiency.TierUnknown,
	"none":       sufficiency.TierNone,
}

// parseFindings scans reply lines for the documented prefixes. Lines
// that match nothing are ignored; an unrecognized authority name maps
// to the unknown tier.
func parseFindings(query, text string) []Finding {
	var findings []Finding
	authority := sufficiency.TierNone

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		prefix, rest, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		rest = strings.TrimSpace(rest)
		if rest == "" {
			continue
		}

		if strings.EqualFold(prefix, "AUTHORITY") {
			tier, known := authorityNames[strings.ToLower(rest)]
			if !known {
				tier = sufficiency.TierUnknown
			}
			if tier > authority {
				authority = tier
			}
			continue
		}

		kind, known := findingPrefixes[strings.ToUpper(prefix)]
		if !known {
			continue
		}
		findings = append(findings, Finding{Query: query, Kind: kind, Text: rest})
	}

	for i := range findings {
		findings[i].Authority = authority
	}
	return findings
}
