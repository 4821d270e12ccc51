package skillpack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillforge/skillforge/pkg/blueprint"
)

const sampleSkill = `---
name: git-release-helper
description: Guides a release through tagging and publication.
---

# Git Release Helper

## Overview

Release automation guidance.

## Workflow

1. Tag the release.
2. Publish.
`

func TestParseFrontmatter(t *testing.T) {
	fm, err := ParseFrontmatter(sampleSkill)
	require.NoError(t, err)
	assert.Equal(t, "git-release-helper", fm.Name)
	assert.Equal(t, "Guides a release through tagging and publication.", fm.Description)
}

func TestParseFrontmatterMissing(t *testing.T) {
	_, err := ParseFrontmatter("# No frontmatter here\n")
	assert.Error(t, err)
}

func TestParseFrontmatterIncomplete(t *testing.T) {
	_, err := ParseFrontmatter("---\nname: only-name\n---\nbody\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "description")
}

func TestSections(t *testing.T) {
	sections := Sections(sampleSkill)
	assert.Equal(t, []string{"overview", "workflow"}, sections)
}

func TestArtifactCounts(t *testing.T) {
	a := Artifact{Path: "SKILL.md", Kind: blueprint.KindSkill, Content: "one\ntwo\nthree"}
	assert.Equal(t, 3, a.Lines())
	assert.Equal(t, (len(a.Content)+3)/4, a.Tokens())

	empty := Artifact{}
	assert.Equal(t, 0, empty.Lines())
	assert.Equal(t, 0, empty.Tokens())
}

func TestBundleLookup(t *testing.T) {
	bundle := Bundle{Artifacts: []Artifact{
		{Path: "SKILL.md", Kind: blueprint.KindSkill, Content: sampleSkill},
		{Path: "references/notes.md", Kind: blueprint.KindReference, Content: "notes"},
	}}

	skill, ok := bundle.Skill()
	require.True(t, ok)
	assert.Equal(t, "SKILL.md", skill.Path)

	ref, ok := bundle.Get("references/notes.md")
	require.True(t, ok)
	assert.Equal(t, blueprint.KindReference, ref.Kind)

	_, ok = bundle.Get("missing")
	assert.False(t, ok)
}
