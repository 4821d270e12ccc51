package session

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhaseValid(t *testing.T) {
	for _, phase := range []Phase{
		PhaseInit, PhaseDiscovery, PhaseClarify, PhaseArchitecture,
		PhaseGeneration, PhaseValidation, PhaseRework, PhaseInstallation, PhaseComplete,
	} {
		assert.True(t, phase.Valid(), "phase %s should be valid", phase)
	}
	assert.False(t, Phase("bogus").Valid())
	assert.False(t, Phase("").Valid())
}

func TestPhaseTerminal(t *testing.T) {
	assert.True(t, PhaseComplete.Terminal())
	assert.False(t, PhaseInstallation.Terminal())
	assert.False(t, PhaseInit.Terminal())
}

func TestNewRecord(t *testing.T) {
	record := NewRecord("teach me git bisect")

	assert.NotEmpty(t, record.ID)
	assert.Equal(t, PhaseInit, record.Phase)
	assert.Equal(t, "teach me git bisect", record.Request)
	assert.False(t, record.CreatedAt.IsZero())
	assert.Equal(t, record.CreatedAt, record.UpdatedAt)
}

func TestToSummaryTruncatesRequest(t *testing.T) {
	record := NewRecord(strings.Repeat("x", 200))
	summary := record.ToSummary()

	assert.Len(t, summary.Request, summaryRequestLimit+3)
	assert.True(t, strings.HasSuffix(summary.Request, "..."))
	assert.Equal(t, record.ID, summary.ID)
}

func TestToSummaryTruncatesOnRuneBoundary(t *testing.T) {
	record := NewRecord(strings.Repeat("é", 100))
	summary := record.ToSummary()

	assert.True(t, utf8.ValidString(summary.Request))
	assert.Equal(t, strings.Repeat("é", summaryRequestLimit)+"...", summary.Request)

	// More bytes than the limit but fewer runes stays untouched.
	short := NewRecord(strings.Repeat("é", 60))
	assert.Equal(t, strings.Repeat("é", 60), short.ToSummary().Request)
}

func TestRecordJSONRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	record := NewRecord("build a skill for terraform modules")
	record.Phase = PhaseDiscovery
	record.Discovery = &DiscoveryRecord{
		Queries:       []string{"terraform module structure"},
		ClarifyRounds: 1,
		CompletedAt:   &now,
	}

	data, err := json.Marshal(record)
	require.NoError(t, err)

	var loaded Record
	require.NoError(t, json.Unmarshal(data, &loaded))

	assert.Equal(t, record.ID, loaded.ID)
	assert.Equal(t, PhaseDiscovery, loaded.Phase)
	require.NotNil(t, loaded.Discovery)
	assert.Equal(t, record.Discovery.Queries, loaded.Discovery.Queries)
	assert.Equal(t, 1, loaded.Discovery.ClarifyRounds)
}

func TestRecordPreservesUnknownFields(t *testing.T) {
	input := `{
		"id": "abc",
		"phase": "discovery",
		"request": "hello",
		"createdAt": "2026-01-02T03:04:05Z",
		"updatedAt": "2026-01-02T03:04:05Z",
		"futureFeature": {"nested": true},
		"anotherField": 42
	}`

	var record Record
	require.NoError(t, json.Unmarshal([]byte(input), &record))
	require.Len(t, record.Extra, 2)

	data, err := json.Marshal(record)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.JSONEq(t, `{"nested": true}`, string(raw["futureFeature"]))
	assert.Equal(t, "42", string(raw["anotherField"]))
	assert.Equal(t, `"abc"`, string(raw["id"]))
}

func TestRecordKnownFieldsWinOverStaleExtras(t *testing.T) {
	record := NewRecord("hello")
	record.Extra = map[string]json.RawMessage{
		"phase": json.RawMessage(`"stale-value"`),
		"other": json.RawMessage(`"kept"`),
	}

	data, err := json.Marshal(record)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, `"init"`, string(raw["phase"]))
	assert.Equal(t, `"kept"`, string(raw["other"]))
}

func TestGenerateIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateID()
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
