// Package orchestrator drives a session through the generation
// pipeline: Discovery, Architecture, Generation, Validation, and
// Installation, with conditional back-edges to Clarify and Rework.
// Every phase outcome is an event resolved against a fixed transition
// table; the session record is checkpointed after each transition.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/skillforge/skillforge/pkg/blueprint"
	"github.com/skillforge/skillforge/pkg/install"
	"github.com/skillforge/skillforge/pkg/logger"
	"github.com/skillforge/skillforge/pkg/quality"
	"github.com/skillforge/skillforge/pkg/research"
	"github.com/skillforge/skillforge/pkg/session"
	"github.com/skillforge/skillforge/pkg/skillpack"
	"github.com/skillforge/skillforge/pkg/sufficiency"
	"github.com/skillforge/skillforge/pkg/worker"
)

// Architect designs the generation blueprint and corrects it when
// validation rejects the first draft.
type Architect interface {
	Design(ctx context.Context, request string, findings sufficiency.Findings) (*blueprint.Blueprint, error)
	Correct(ctx context.Context, bp *blueprint.Blueprint, issues []blueprint.Issue) (*blueprint.Blueprint, error)
}

// Asker relays clarification questions to the user and returns their
// answers, one per question.
type Asker interface {
	Ask(ctx context.Context, questions []string) ([]string, error)
}

// Operator makes the decisions the pipeline may not take on its own:
// proceeding past exhausted clarification rounds and authorizing
// rework after a gate failure.
type Operator interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ErrAborted is returned when the operator declines to continue.
var ErrAborted = errors.New("session aborted by operator")

// Dependencies are the collaborators every orchestrator needs.
type Dependencies struct {
	Store     session.Store
	Runner    *research.Runner
	Worker    worker.Worker
	Architect Architect
	Asker     Asker
	Operator  Operator
	Installer install.Installer
}

// Orchestrator runs the pipeline for one session at a time.
type Orchestrator struct {
	deps       Dependencies
	scorers    []quality.Scorer
	thresholds quality.Thresholds
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithScorers replaces the default quality scorer set.
func WithScorers(scorers ...quality.Scorer) Option {
	return func(o *Orchestrator) error {
		if len(scorers) == 0 {
			return errors.New("at least one scorer is required")
		}
		o.scorers = scorers
		return nil
	}
}

// WithThresholds overrides the gate thresholds.
func WithThresholds(th quality.Thresholds) Option {
	return func(o *Orchestrator) error {
		o.thresholds = th
		return nil
	}
}

// New creates an orchestrator. All dependencies are required.
func New(deps Dependencies, opts ...Option) (*Orchestrator, error) {
	switch {
	case deps.Store == nil:
		return nil, errors.New("session store is required")
	case deps.Runner == nil:
		return nil, errors.New("research runner is required")
	case deps.Worker == nil:
		return nil, errors.New("content worker is required")
	case deps.Architect == nil:
		return nil, errors.New("architect is required")
	case deps.Asker == nil:
		return nil, errors.New("asker is required")
	case deps.Operator == nil:
		return nil, errors.New("operator is required")
	case deps.Installer == nil:
		return nil, errors.New("installer is required")
	}

	o := &Orchestrator{
		deps:       deps,
		scorers:    defaultScorers(deps.Worker),
		thresholds: quality.DefaultThresholds(),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, errors.Wrap(err, "invalid orchestrator option")
		}
	}
	return o, nil
}

func defaultScorers(w worker.Worker) []quality.Scorer {
	return []quality.Scorer{
		quality.SpecComplianceScorer{},
		quality.StructuralScorer{},
		quality.FrontmatterScorer{},
		quality.BudgetScorer{},
		quality.ScriptScorer{},
		&quality.WorkerScorer{
			ComponentName: quality.ComponentContentQuality,
			Weight:        quality.DefaultWeights[quality.ComponentContentQuality],
			Worker:        w,
			Rubric:        contentQualityRubric,
		},
		&quality.WorkerScorer{
			ComponentName: quality.ComponentExpertise,
			Weight:        quality.DefaultWeights[quality.ComponentExpertise],
			Worker:        w,
			Rubric:        expertiseRubric,
		},
	}
}

// Begin checkpoints a new session without running any phase, so the
// caller can take the session lock for the new id before driving it.
func (o *Orchestrator) Begin(ctx context.Context, request string) (*session.Record, error) {
	request = strings.TrimSpace(request)
	if request == "" {
		return nil, errors.New("request must not be empty")
	}
	record := session.NewRecord(request)
	if err := o.checkpoint(ctx, &record); err != nil {
		return &record, err
	}
	return &record, nil
}

// Create starts a new session for the request and drives it as far as
// it can go.
func (o *Orchestrator) Create(ctx context.Context, request string) (*session.Record, error) {
	record, err := o.Begin(ctx, request)
	if err != nil {
		return record, err
	}
	return o.drive(ctx, *record)
}

// Resume reloads a session and continues from its recorded phase.
func (o *Orchestrator) Resume(ctx context.Context, id string) (*session.Record, error) {
	record, err := o.deps.Store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.Phase.Terminal() {
		return &record, errors.Errorf("session %s is already complete", id)
	}
	return o.drive(ctx, record)
}

// drive advances the session until it reaches a terminal phase or a
// phase reports an error. The record is checkpointed after every
// transition, so a crash or cancellation resumes at the last cleanly
// completed phase.
func (o *Orchestrator) drive(ctx context.Context, record session.Record) (*session.Record, error) {
	for !record.Phase.Terminal() {
		if err := ctx.Err(); err != nil {
			return &record, errors.Wrap(err, "session cancelled")
		}

		log := logger.G(ctx).WithField("session", record.ID).WithField("phase", record.Phase)
		event, err := o.runPhase(ctx, &record)
		if err != nil {
			// Keep whatever the phase recorded before failing.
			if saveErr := o.checkpoint(ctx, &record); saveErr != nil {
				log.WithError(saveErr).Warn("failed to checkpoint after phase error")
			}
			return &record, err
		}

		next, err := Next(record.Phase, event)
		if err != nil {
			return &record, err
		}
		log.WithField("event", event).WithField("next", next).Debug("phase transition")

		record.Phase = next
		if err := o.checkpoint(ctx, &record); err != nil {
			return &record, err
		}
	}
	return &record, nil
}

func (o *Orchestrator) checkpoint(ctx context.Context, record *session.Record) error {
	record.Touch()
	return errors.Wrap(o.deps.Store.Save(ctx, *record), "failed to checkpoint session")
}

func (o *Orchestrator) runPhase(ctx context.Context, record *session.Record) (Event, error) {
	switch record.Phase {
	case session.PhaseInit:
		return EventBegin, nil
	case session.PhaseDiscovery:
		return o.runDiscovery(ctx, record)
	case session.PhaseClarify:
		return o.runClarify(ctx, record)
	case session.PhaseArchitecture:
		return o.runArchitecture(ctx, record)
	case session.PhaseGeneration:
		return o.runGeneration(ctx, record)
	case session.PhaseValidation:
		return o.runValidation(ctx, record)
	case session.PhaseRework:
		return o.runRework(ctx, record)
	case session.PhaseInstallation:
		return o.runInstallation(ctx, record)
	default:
		return "", &TransitionError{From: record.Phase, Event: ""}
	}
}

// runDiscovery fans out research queries, tallies the findings, and
// scores sufficiency. Re-entering a completed discovery re-emits its
// event without re-running the research.
func (o *Orchestrator) runDiscovery(ctx context.Context, record *session.Record) (Event, error) {
	if record.Discovery == nil {
		record.Discovery = &session.DiscoveryRecord{Queries: deriveQueries(record.Request)}
	}
	d := record.Discovery

	if d.CompletedAt == nil {
		queries := append([]string{}, d.Queries...)
		queries = append(queries, d.Answers...)

		results, err := o.deps.Runner.Run(ctx, queries)
		if err != nil {
			return "", errors.Wrap(err, "research failed")
		}
		for _, failed := range results.Failed {
			logger.G(ctx).WithField("query", failed.Query).WithError(failed.Err).
				Warn("research query dropped")
		}

		d.Findings = research.Tally(results.Findings)
		report, err := sufficiency.Evaluate(d.Findings)
		if err != nil {
			return "", errors.Wrap(err, "sufficiency evaluation failed")
		}
		d.Report = &report
		now := time.Now()
		d.CompletedAt = &now
	}

	return o.discoveryEvent(ctx, record)
}

// discoveryEvent maps a completed discovery to its transition event.
// It is re-runnable: deciding twice never mutates the record.
func (o *Orchestrator) discoveryEvent(ctx context.Context, record *session.Record) (Event, error) {
	d := record.Discovery
	switch d.Report.Decision {
	case sufficiency.DecisionProceed, sufficiency.DecisionProceedWithWarnings:
		return EventSufficient, nil
	case sufficiency.DecisionClarify:
		if d.ClarifyRounds < sufficiency.MaxClarifyRounds {
			return EventInsufficient, nil
		}
		prompt := fmt.Sprintf(
			"research is still insufficient after %d clarification rounds (score %.2f); proceed anyway?",
			d.ClarifyRounds, d.Report.Composite)
		proceed, err := o.deps.Operator.Confirm(ctx, prompt)
		if err != nil {
			return "", errors.Wrap(err, "operator decision failed")
		}
		if !proceed {
			return "", errors.Wrapf(ErrAborted,
				"research insufficient (score %.2f) after %d rounds", d.Report.Composite, d.ClarifyRounds)
		}
		return EventUserOverride, nil
	default:
		return "", errors.Errorf("unknown sufficiency decision %q", d.Report.Decision)
	}
}

// runClarify asks the pending questions, records the answers, and
// sends discovery around again. Questions already answered are never
// asked twice.
func (o *Orchestrator) runClarify(ctx context.Context, record *session.Record) (Event, error) {
	d := record.Discovery
	if d == nil || d.Report == nil {
		return "", errors.New("clarify phase entered without a discovery report")
	}

	if len(d.Questions) == len(d.Answers) {
		pending := d.Report.TopQuestions(sufficiency.MaxQuestionsPerRound)
		if len(pending) == 0 {
			return "", errors.New("clarify phase entered with no open gaps")
		}
		d.Questions = append(d.Questions, pending...)
	}

	unanswered := d.Questions[len(d.Answers):]
	answers, err := o.deps.Asker.Ask(ctx, unanswered)
	if err != nil {
		return "", errors.Wrap(err, "clarification failed")
	}
	if len(answers) != len(unanswered) {
		return "", errors.Errorf("expected %d answers, got %d", len(unanswered), len(answers))
	}

	d.Answers = append(d.Answers, answers...)
	d.ClarifyRounds++

	// Force a fresh evaluation on the way back through discovery.
	d.Report = nil
	d.CompletedAt = nil
	return EventAnswersReceived, nil
}

// runArchitecture designs the blueprint, compresses its budgets to
// the documented caps, and validates it. Validation errors get one
// auto-correction retry; a second failure is surfaced to the caller.
func (o *Orchestrator) runArchitecture(ctx context.Context, record *session.Record) (Event, error) {
	if record.Architecture == nil {
		record.Architecture = &session.ArchitectureRecord{}
	}
	a := record.Architecture

	if a.CompletedAt != nil && a.Blueprint != nil {
		return EventBlueprintValid, nil
	}

	gaps := discoveryGaps(record)

	if a.Blueprint == nil {
		bp, err := o.deps.Architect.Design(ctx, record.Request, record.Discovery.Findings)
		if err != nil {
			return "", errors.Wrap(err, "blueprint design failed")
		}
		compressed, err := CompressToBudget(bp, gaps)
		if err != nil {
			return "", err
		}
		a.Blueprint = compressed
	}

	errs, warns := blueprint.Validate(a.Blueprint)
	a.Warnings = issueMessages(warns)

	if len(errs) > 0 {
		if a.AutoCorrected {
			return "", blueprint.NewValidationError(errs)
		}
		a.AutoCorrected = true

		corrected, err := o.deps.Architect.Correct(ctx, a.Blueprint, errs)
		if err != nil {
			return "", errors.Wrap(err, "blueprint correction failed")
		}
		compressed, err := CompressToBudget(corrected, gaps)
		if err != nil {
			return "", err
		}
		a.Blueprint = compressed
		return EventAutoCorrect, nil
	}

	now := time.Now()
	a.CompletedAt = &now
	return EventBlueprintValid, nil
}

// runGeneration produces every planned artifact in generation order.
// Artifacts already present from an interrupted run are kept, not
// regenerated.
func (o *Orchestrator) runGeneration(ctx context.Context, record *session.Record) (Event, error) {
	if record.Generation == nil {
		record.Generation = &session.GenerationRecord{Attempt: 1}
	}
	g := record.Generation
	if g.CompletedAt != nil {
		return EventArtifactsComplete, nil
	}

	bp := record.Architecture.Blueprint
	bundle := g.Bundle()

	for _, path := range bp.GenerationOrder {
		if _, done := bundle.Get(path); done {
			continue
		}
		artifact, err := o.generateArtifact(ctx, record.Request, bp, path, g.Artifacts)
		if err != nil {
			return "", errors.Wrapf(err, "failed to generate %s", path)
		}
		g.Artifacts = append(g.Artifacts, artifact)
		bundle = g.Bundle()
	}

	now := time.Now()
	g.CompletedAt = &now
	return EventArtifactsComplete, nil
}

func (o *Orchestrator) generateArtifact(ctx context.Context, request string, bp *blueprint.Blueprint, path string, done []skillpack.Artifact) (skillpack.Artifact, error) {
	file, ok := bp.File(path)
	if !ok {
		return skillpack.Artifact{}, errors.Errorf("generation order names unplanned file %q", path)
	}

	result, err := o.deps.Worker.Execute(ctx, worker.Request{
		System:    generationSystemPrompt,
		Prompt:    generationPrompt(request, bp, file, done),
		MaxTokens: generationMaxTokens(file),
	})
	if err != nil {
		return skillpack.Artifact{}, err
	}

	return skillpack.Artifact{Path: path, Kind: file.Kind, Content: result.Text}, nil
}

// runValidation scores the bundle and applies the quality gate. The
// gate is always recomputed from the stored assessment, never cached,
// so a rework cycle can never ride on a stale pass.
func (o *Orchestrator) runValidation(ctx context.Context, record *session.Record) (Event, error) {
	if record.Validation == nil {
		record.Validation = &session.ValidationRecord{Attempt: record.Generation.Attempt}
	}
	v := record.Validation

	if v.CompletedAt == nil || v.Assessment == nil {
		target := quality.Target{
			Blueprint: record.Architecture.Blueprint,
			Bundle:    record.Generation.Bundle(),
		}

		var components []quality.ComponentScore
		for _, scorer := range o.scorers {
			// Scripts score only when the blueprint plans any; an absent
			// component drops out of the renormalized weights entirely.
			if scorer.Name() == quality.ComponentScripts && !plansScripts(target.Blueprint) {
				continue
			}
			score, err := scorer.Evaluate(ctx, target)
			if err != nil {
				return "", errors.Wrapf(err, "scorer %s failed", scorer.Name())
			}
			components = append(components, score)
		}

		assessment, err := quality.Aggregate(components)
		if err != nil {
			return "", errors.Wrap(err, "quality aggregation failed")
		}
		v.Assessment = &assessment
		now := time.Now()
		v.CompletedAt = &now
	}

	gate := quality.ApplyGate(*v.Assessment, o.thresholds)
	if gate.Passed {
		return EventGatePassed, nil
	}
	logger.G(ctx).WithField("session", record.ID).WithField("overall", v.Assessment.Overall).
		Info("quality gate failed")
	return EventGateFailed, nil
}

// runRework asks the operator whether to regenerate. Authorization
// resets the generation and validation records for a fresh attempt;
// refusal surfaces the gate failure.
func (o *Orchestrator) runRework(ctx context.Context, record *session.Record) (Event, error) {
	v := record.Validation
	if v == nil || v.Assessment == nil {
		return "", errors.New("rework phase entered without an assessment")
	}

	gate := quality.ApplyGate(*v.Assessment, o.thresholds)
	prompt := fmt.Sprintf("quality gate failed (%s); regenerate the skill?", gate.Message)
	authorized, err := o.deps.Operator.Confirm(ctx, prompt)
	if err != nil {
		return "", errors.Wrap(err, "operator decision failed")
	}
	if !authorized {
		return "", &quality.GateFailure{Result: gate}
	}

	attempt := record.Generation.Attempt + 1
	record.Generation = &session.GenerationRecord{Attempt: attempt}
	record.Validation = nil
	return EventReworkAuthorized, nil
}

// runInstallation copies the validated bundle to its target. A
// completed installation is never repeated.
func (o *Orchestrator) runInstallation(ctx context.Context, record *session.Record) (Event, error) {
	if record.Installation == nil {
		record.Installation = &session.InstallationRecord{}
	}
	inst := record.Installation
	if inst.CompletedAt != nil {
		return EventInstalled, nil
	}

	receipt, err := o.deps.Installer.Install(ctx, record.Generation.Bundle())
	if err != nil {
		return "", errors.Wrap(err, "installation failed")
	}

	inst.TargetDir = receipt.TargetDir
	inst.Installed = receipt.Installed
	now := time.Now()
	inst.CompletedAt = &now
	return EventInstalled, nil
}

// discoveryGaps returns the open gaps from the discovery report, if
// any; the planner uses them to protect gap-filling content during
// budget compression.
func discoveryGaps(record *session.Record) []sufficiency.Gap {
	if record.Discovery == nil || record.Discovery.Report == nil {
		return nil
	}
	return record.Discovery.Report.Gaps
}

func plansScripts(bp *blueprint.Blueprint) bool {
	for _, f := range bp.Files {
		if f.Kind == blueprint.KindScript {
			return true
		}
	}
	return false
}

// deriveQueries expands a request into the independent research
// queries discovery fans out.
func deriveQueries(request string) []string {
	return []string{
		request,
		request + " best practices",
		request + " step by step workflow",
		request + " tools and commands",
		request + " worked examples",
	}
}

func issueMessages(issues []blueprint.Issue) []string {
	if len(issues) == 0 {
		return nil
	}
	messages := make([]string, 0, len(issues))
	for _, issue := range issues {
		messages = append(messages, issue.Message)
	}
	return messages
}
