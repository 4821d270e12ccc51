package orchestrator

import (
	"fmt"

	"github.com/skillforge/skillforge/pkg/session"
)

// Event is a phase outcome that drives the next transition.
type Event string

const (
	// EventBegin starts a fresh session.
	EventBegin Event = "begin"
	// EventSufficient means research scored at or above the proceed
	// threshold, warnings included.
	EventSufficient Event = "sufficient"
	// EventInsufficient means research scored below threshold with
	// clarification rounds remaining.
	EventInsufficient Event = "insufficient"
	// EventAnswersReceived means the user answered a clarification round.
	EventAnswersReceived Event = "answers_received"
	// EventUserOverride means the user chose to proceed despite
	// exhausted clarification rounds.
	EventUserOverride Event = "user_override"
	// EventBlueprintValid means the blueprint validated without errors.
	EventBlueprintValid Event = "blueprint_valid"
	// EventAutoCorrect means validation failed and the one permitted
	// correction retry is being taken.
	EventAutoCorrect Event = "auto_correct"
	// EventArtifactsComplete means every planned artifact was written.
	EventArtifactsComplete Event = "artifacts_complete"
	// EventGatePassed means the quality gate passed.
	EventGatePassed Event = "gate_passed"
	// EventGateFailed means the quality gate failed.
	EventGateFailed Event = "gate_failed"
	// EventReworkAuthorized means regeneration was approved.
	EventReworkAuthorized Event = "rework_authorized"
	// EventInstalled means the bundle was copied and verified.
	EventInstalled Event = "installed"
)

type transitionKey struct {
	from  session.Phase
	event Event
}

// transitions is the complete phase graph. Any (phase, event) pair
// missing here is an internal-consistency bug, never a user error.
var transitions = map[transitionKey]session.Phase{
	{session.PhaseInit, EventBegin}: session.PhaseDiscovery,

	{session.PhaseDiscovery, EventSufficient}:   session.PhaseArchitecture,
	{session.PhaseDiscovery, EventInsufficient}: session.PhaseClarify,
	{session.PhaseDiscovery, EventUserOverride}: session.PhaseArchitecture,

	{session.PhaseClarify, EventAnswersReceived}: session.PhaseDiscovery,

	{session.PhaseArchitecture, EventBlueprintValid}: session.PhaseGeneration,
	{session.PhaseArchitecture, EventAutoCorrect}:    session.PhaseArchitecture,

	{session.PhaseGeneration, EventArtifactsComplete}: session.PhaseValidation,

	{session.PhaseValidation, EventGatePassed}: session.PhaseInstallation,
	{session.PhaseValidation, EventGateFailed}: session.PhaseRework,

	{session.PhaseRework, EventReworkAuthorized}: session.PhaseGeneration,

	{session.PhaseInstallation, EventInstalled}: session.PhaseComplete,
}

// TransitionError reports an attempt to take a transition outside the
// phase graph. It is always fatal.
type TransitionError struct {
	From  session.Phase
	Event Event
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("no transition from phase %q on event %q", e.From, e.Event)
}

// Next resolves one transition. It is a pure function of the table.
func Next(from session.Phase, event Event) (session.Phase, error) {
	next, ok := transitions[transitionKey{from, event}]
	if !ok {
		return "", &TransitionError{From: from, Event: event}
	}
	return next, nil
}
