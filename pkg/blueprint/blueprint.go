// Package blueprint models the validated plan of files, sections, and
// budgets for one skill generation run, and provides the pure validator
// the orchestrator consults before any content is generated.
package blueprint

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SkillType classifies what kind of skill is being generated. The type
// drives soft structural expectations, never hard failures.
type SkillType string

const (
	// TypeKnowledge is a reference-heavy skill explaining a domain.
	TypeKnowledge SkillType = "knowledge"
	// TypeWorkflow captures a repeatable multi-step process.
	TypeWorkflow SkillType = "workflow"
	// TypeAutomation wraps scripts that act on the user's behalf.
	TypeAutomation SkillType = "automation"
)

// FileKind distinguishes the planned artifact files.
type FileKind string

const (
	// KindSkill is the primary SKILL.md document, budgeted in lines.
	KindSkill FileKind = "skill"
	// KindReference is a supporting document, budgeted in tokens.
	KindReference FileKind = "reference"
	// KindScript is an executable helper.
	KindScript FileKind = "script"
)

// Section is one planned section of the primary document.
type Section struct {
	Name       string `yaml:"name"`
	LineBudget int    `yaml:"line_budget"`
	Required   bool   `yaml:"required,omitempty"`
}

// PlannedFile is one artifact the generation phase must produce.
type PlannedFile struct {
	Path        string   `yaml:"path"`
	Kind        FileKind `yaml:"kind"`
	TokenBudget int      `yaml:"token_budget,omitempty"`
	DependsOn   []string `yaml:"depends_on,omitempty"`
}

// Blueprint is the full generation plan. It is immutable once
// validated; callers that need to compress budgets build a new one.
type Blueprint struct {
	Name        string        `yaml:"name"`
	Type        SkillType     `yaml:"type"`
	Description string        `yaml:"description"`
	Sections    []Section     `yaml:"sections"`
	Files       []PlannedFile `yaml:"files"`

	// GenerationOrder lists every planned file path exactly once, in a
	// dependency-respecting order.
	GenerationOrder []string `yaml:"generation_order"`
}

// SkillLines is the summed line budget of the primary document.
func (b *Blueprint) SkillLines() int {
	var sum int
	for _, s := range b.Sections {
		sum += s.LineBudget
	}
	return sum
}

// ReferenceTokens is the summed token budget of all reference files.
func (b *Blueprint) ReferenceTokens() int {
	var sum int
	for _, f := range b.Files {
		if f.Kind == KindReference {
			sum += f.TokenBudget
		}
	}
	return sum
}

// Section returns the named section, if planned.
func (b *Blueprint) Section(name string) (Section, bool) {
	for _, s := range b.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

// File returns the planned file with the given path.
func (b *Blueprint) File(path string) (PlannedFile, bool) {
	for _, f := range b.Files {
		if f.Path == path {
			return f, true
		}
	}
	return PlannedFile{}, false
}

// Parse reads a blueprint from YAML.
func Parse(data []byte) (*Blueprint, error) {
	var bp Blueprint
	if err := yaml.Unmarshal(data, &bp); err != nil {
		return nil, errors.Wrap(err, "failed to parse blueprint yaml")
	}
	return &bp, nil
}

// Load reads a blueprint from a YAML file.
func Load(path string) (*Blueprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read blueprint file")
	}
	return Parse(data)
}

// Save writes the blueprint to a YAML file.
func (b *Blueprint) Save(path string) error {
	data, err := yaml.Marshal(b)
	if err != nil {
		return errors.Wrap(err, "failed to marshal blueprint")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write blueprint file")
	}
	return nil
}
