package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillforge/skillforge/pkg/session"
)

func TestNextResolvesEveryTableEntry(t *testing.T) {
	for key, want := range transitions {
		got, err := Next(key.from, key.event)
		require.NoError(t, err)
		assert.Equal(t, want, got, "%s + %s", key.from, key.event)
		assert.True(t, got.Valid(), "transition target %s must be a known phase", got)
	}
}

func TestNextRejectsUndefinedTransitions(t *testing.T) {
	cases := []struct {
		from  session.Phase
		event Event
	}{
		{session.PhaseInit, EventGatePassed},
		{session.PhaseDiscovery, EventBegin},
		{session.PhaseGeneration, EventGateFailed},
		{session.PhaseComplete, EventBegin},
		{session.PhaseValidation, EventArtifactsComplete},
		{session.PhaseClarify, EventSufficient},
	}

	for _, tc := range cases {
		_, err := Next(tc.from, tc.event)
		require.Error(t, err, "%s + %s", tc.from, tc.event)

		var transitionErr *TransitionError
		require.ErrorAs(t, err, &transitionErr)
		assert.Equal(t, tc.from, transitionErr.From)
		assert.Equal(t, tc.event, transitionErr.Event)
	}
}

func TestTransitionGraphShape(t *testing.T) {
	// The documented graph, spelled out pair by pair.
	expect := func(from session.Phase, event Event, to session.Phase) {
		got, err := Next(from, event)
		require.NoError(t, err)
		assert.Equal(t, to, got)
	}

	expect(session.PhaseInit, EventBegin, session.PhaseDiscovery)
	expect(session.PhaseDiscovery, EventSufficient, session.PhaseArchitecture)
	expect(session.PhaseDiscovery, EventInsufficient, session.PhaseClarify)
	expect(session.PhaseDiscovery, EventUserOverride, session.PhaseArchitecture)
	expect(session.PhaseClarify, EventAnswersReceived, session.PhaseDiscovery)
	expect(session.PhaseArchitecture, EventBlueprintValid, session.PhaseGeneration)
	expect(session.PhaseArchitecture, EventAutoCorrect, session.PhaseArchitecture)
	expect(session.PhaseGeneration, EventArtifactsComplete, session.PhaseValidation)
	expect(session.PhaseValidation, EventGatePassed, session.PhaseInstallation)
	expect(session.PhaseValidation, EventGateFailed, session.PhaseRework)
	expect(session.PhaseRework, EventReworkAuthorized, session.PhaseGeneration)
	expect(session.PhaseInstallation, EventInstalled, session.PhaseComplete)

	assert.Len(t, transitions, 12)
}
