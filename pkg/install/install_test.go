package install

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillforge/skillforge/pkg/blueprint"
	"github.com/skillforge/skillforge/pkg/skillpack"
)

const testSkillContent = `---
name: git-workflows
description: Working with git branches and history.
---

## Overview

Branching basics.

## Workflow

1. Branch, commit, merge.
`

func testBundle() skillpack.Bundle {
	return skillpack.Bundle{Artifacts: []skillpack.Artifact{
		{Path: skillpack.SkillFileName, Kind: blueprint.KindSkill, Content: testSkillContent},
		{Path: "references/rebasing.md", Kind: blueprint.KindReference, Content: "# Rebasing\n"},
		{Path: "scripts/check.sh", Kind: blueprint.KindScript, Content: "#!/bin/sh\nexit 0\n"},
	}}
}

func TestInstall(t *testing.T) {
	baseDir := t.TempDir()
	installer, err := NewLocalInstaller(baseDir)
	require.NoError(t, err)

	receipt, err := installer.Install(context.Background(), testBundle())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(baseDir, "git-workflows"), receipt.TargetDir)
	assert.Len(t, receipt.Installed, 3)

	content, err := os.ReadFile(filepath.Join(receipt.TargetDir, skillpack.SkillFileName))
	require.NoError(t, err)
	assert.Equal(t, testSkillContent, string(content))

	_, err = os.Stat(filepath.Join(receipt.TargetDir, "references", "rebasing.md"))
	assert.NoError(t, err)
}

func TestInstallScriptIsExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}

	installer, err := NewLocalInstaller(t.TempDir())
	require.NoError(t, err)

	receipt, err := installer.Install(context.Background(), testBundle())
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(receipt.TargetDir, "scripts", "check.sh"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0111, "script should be executable")
}

func TestInstallRequiresSkillFile(t *testing.T) {
	installer, err := NewLocalInstaller(t.TempDir())
	require.NoError(t, err)

	bundle := skillpack.Bundle{Artifacts: []skillpack.Artifact{
		{Path: "references/only.md", Kind: blueprint.KindReference, Content: "x"},
	}}
	_, err = installer.Install(context.Background(), bundle)
	assert.Error(t, err)
}

func TestInstallRejectsInvalidFrontmatter(t *testing.T) {
	installer, err := NewLocalInstaller(t.TempDir())
	require.NoError(t, err)

	bundle := skillpack.Bundle{Artifacts: []skillpack.Artifact{
		{Path: skillpack.SkillFileName, Kind: blueprint.KindSkill, Content: "no frontmatter at all"},
	}}
	_, err = installer.Install(context.Background(), bundle)
	assert.Error(t, err)
}

func TestInstallRejectsEscapingPaths(t *testing.T) {
	baseDir := t.TempDir()
	installer, err := NewLocalInstaller(baseDir)
	require.NoError(t, err)

	bundle := testBundle()
	bundle.Artifacts = append(bundle.Artifacts, skillpack.Artifact{
		Path: "../outside.md", Kind: blueprint.KindReference, Content: "x",
	})
	_, err = installer.Install(context.Background(), bundle)
	require.Error(t, err)

	// Partial install was cleaned up.
	_, statErr := os.Stat(filepath.Join(baseDir, "git-workflows"))
	assert.True(t, os.IsNotExist(statErr))

	_, statErr = os.Stat(filepath.Join(baseDir, "outside.md"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestNewLocalInstallerRequiresBaseDir(t *testing.T) {
	_, err := NewLocalInstaller("")
	assert.Error(t, err)
}
