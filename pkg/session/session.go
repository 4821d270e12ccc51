// Package session defines the persisted state of one skill generation
// run: the root aggregate, the per-phase sub-records, and the store
// abstraction that checkpoints the aggregate after every transition.
package session

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/skillforge/skillforge/pkg/blueprint"
	"github.com/skillforge/skillforge/pkg/quality"
	"github.com/skillforge/skillforge/pkg/skillpack"
	"github.com/skillforge/skillforge/pkg/sufficiency"
)

// Phase enumerates the pipeline phases.
type Phase string

const (
	PhaseInit         Phase = "init"
	PhaseDiscovery    Phase = "discovery"
	PhaseClarify      Phase = "clarify"
	PhaseArchitecture Phase = "architecture"
	PhaseGeneration   Phase = "generation"
	PhaseValidation   Phase = "validation"
	PhaseRework       Phase = "rework"
	PhaseInstallation Phase = "installation"
	PhaseComplete     Phase = "complete"
)

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	switch p {
	case PhaseInit, PhaseDiscovery, PhaseClarify, PhaseArchitecture,
		PhaseGeneration, PhaseValidation, PhaseRework, PhaseInstallation, PhaseComplete:
		return true
	}
	return false
}

// Terminal reports whether p ends the session.
func (p Phase) Terminal() bool {
	return p == PhaseComplete
}

// DiscoveryRecord is the discovery phase's checkpoint.
type DiscoveryRecord struct {
	Queries       []string             `json:"queries,omitempty"`
	Findings      sufficiency.Findings `json:"findings"`
	Report        *sufficiency.Report  `json:"report,omitempty"`
	ClarifyRounds int                  `json:"clarifyRounds"`
	Questions     []string             `json:"questions,omitempty"`
	Answers       []string             `json:"answers,omitempty"`
	CompletedAt   *time.Time           `json:"completedAt,omitempty"`
}

// ArchitectureRecord is the architecture phase's checkpoint.
type ArchitectureRecord struct {
	Blueprint     *blueprint.Blueprint `json:"blueprint,omitempty"`
	Warnings      []string             `json:"warnings,omitempty"`
	AutoCorrected bool                 `json:"autoCorrected"`
	CompletedAt   *time.Time           `json:"completedAt,omitempty"`
}

// GenerationRecord is the generation phase's checkpoint. Artifacts are
// carried inline, so a crash mid-generation resumes with the files
// already produced.
type GenerationRecord struct {
	Attempt     int                  `json:"attempt"`
	Artifacts   []skillpack.Artifact `json:"artifacts,omitempty"`
	CompletedAt *time.Time           `json:"completedAt,omitempty"`
}

// Bundle returns the generated artifacts as a bundle.
func (g *GenerationRecord) Bundle() skillpack.Bundle {
	return skillpack.Bundle{Artifacts: g.Artifacts}
}

// ValidationRecord is the validation phase's checkpoint. Only the
// assessment is persisted; the gate verdict is always recomputed from
// it so a rework cycle can never act on a stale pass decision.
type ValidationRecord struct {
	Assessment  *quality.Assessment `json:"assessment,omitempty"`
	Attempt     int                 `json:"attempt"`
	CompletedAt *time.Time          `json:"completedAt,omitempty"`
}

// InstallationRecord is the installation phase's checkpoint.
type InstallationRecord struct {
	TargetDir   string     `json:"targetDir,omitempty"`
	Installed   []string   `json:"installed,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Record is the root session aggregate: the single source of truth for
// one run. It is owned by the orchestrator, mutated only through phase
// transitions, and checkpointed after every transition.
type Record struct {
	ID        string    `json:"id"`
	Phase     Phase     `json:"phase"`
	Request   string    `json:"request"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Discovery    *DiscoveryRecord    `json:"discovery,omitempty"`
	Architecture *ArchitectureRecord `json:"architecture,omitempty"`
	Generation   *GenerationRecord   `json:"generation,omitempty"`
	Validation   *ValidationRecord   `json:"validation,omitempty"`
	Installation *InstallationRecord `json:"installation,omitempty"`

	// Extra preserves fields written by newer versions of the tool so a
	// rewrite never drops them.
	Extra map[string]json.RawMessage `json:"-"`
}

// NewRecord creates a session for the given request, in the Init phase.
func NewRecord(request string) Record {
	now := time.Now()
	return Record{
		ID:        GenerateID(),
		Phase:     PhaseInit,
		Request:   request,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// GenerateID returns a fresh session identifier.
func GenerateID() string {
	return uuid.NewString()
}

// Touch bumps the record's update time. Callers do this before every
// checkpoint so listings sort by real activity.
func (r *Record) Touch() {
	r.UpdatedAt = time.Now()
}

// Summary is a compact view of a session for listings.
type Summary struct {
	ID        string    `json:"id"`
	Phase     Phase     `json:"phase"`
	Request   string    `json:"request"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

const summaryRequestLimit = 80

// truncateRequest shortens a request to the listing limit, cutting on
// a rune boundary so a multi-byte character is never split.
func truncateRequest(request string) string {
	if len(request) <= summaryRequestLimit {
		return request
	}
	runes := []rune(request)
	if len(runes) <= summaryRequestLimit {
		return request
	}
	return string(runes[:summaryRequestLimit]) + "..."
}

// ToSummary converts the record to its listing view.
func (r *Record) ToSummary() Summary {
	request := truncateRequest(strings.TrimSpace(r.Request))
	return Summary{
		ID:        r.ID,
		Phase:     r.Phase,
		Request:   request,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// knownFields are the JSON keys owned by this version of the record.
var knownFields = map[string]bool{
	"id": true, "phase": true, "request": true,
	"createdAt": true, "updatedAt": true,
	"discovery": true, "architecture": true, "generation": true,
	"validation": true, "installation": true,
}

// recordAlias avoids marshal recursion.
type recordAlias Record

// MarshalJSON writes the record with any preserved unknown fields
// merged back in. Known fields always win over stale extras.
func (r Record) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(recordAlias(r))
	if err != nil {
		return nil, err
	}
	if len(r.Extra) == 0 {
		return data, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for key, value := range r.Extra {
		if _, owned := merged[key]; !owned {
			merged[key] = value
		}
	}
	return json.Marshal(merged)
}

// UnmarshalJSON reads the record and captures unknown fields into
// Extra so they survive the next rewrite.
func (r *Record) UnmarshalJSON(data []byte) error {
	var alias recordAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return errors.Wrap(err, "failed to unmarshal session record")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "failed to scan session record fields")
	}

	extra := make(map[string]json.RawMessage)
	for key, value := range raw {
		if !knownFields[key] {
			extra[key] = value
		}
	}
	if len(extra) == 0 {
		extra = nil
	}

	*r = Record(alias)
	r.Extra = extra
	return nil
}
