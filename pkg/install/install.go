// Package install writes a validated skill bundle to its target
// directory. Installation happens only after the quality gate passes;
// the installer itself re-checks nothing but the frontmatter it needs
// to name the destination.
package install

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/skillforge/skillforge/pkg/blueprint"
	"github.com/skillforge/skillforge/pkg/logger"
	"github.com/skillforge/skillforge/pkg/skillpack"
)

// Installer places a validated bundle at a target location and reports
// the files it wrote.
type Installer interface {
	Install(ctx context.Context, bundle skillpack.Bundle) (Receipt, error)
}

// Receipt describes a completed installation.
type Receipt struct {
	TargetDir string   `json:"targetDir"`
	Installed []string `json:"installed"`
}

// LocalInstaller copies bundles into a skills directory on disk,
// repo-local (./.skillforge/skills) or user-global
// (~/.skillforge/skills).
type LocalInstaller struct {
	baseDir string
}

// NewLocalInstaller creates an installer writing under baseDir.
func NewLocalInstaller(baseDir string) (*LocalInstaller, error) {
	if baseDir == "" {
		return nil, errors.New("install base directory is required")
	}
	return &LocalInstaller{baseDir: baseDir}, nil
}

// NewRepoInstaller installs into the repo-local skills directory.
func NewRepoInstaller() (*LocalInstaller, error) {
	return NewLocalInstaller(filepath.Join(".skillforge", "skills"))
}

// NewGlobalInstaller installs into the user-global skills directory.
func NewGlobalInstaller() (*LocalInstaller, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user home directory")
	}
	return NewLocalInstaller(filepath.Join(homeDir, ".skillforge", "skills"))
}

// Install writes every artifact under <baseDir>/<skill-name>/,
// verifying each file after writing it. A failed install removes the
// partially written skill directory so the target never holds a
// half-copied skill.
func (i *LocalInstaller) Install(ctx context.Context, bundle skillpack.Bundle) (Receipt, error) {
	skill, ok := bundle.Skill()
	if !ok {
		return Receipt{}, errors.New("bundle has no " + skillpack.SkillFileName)
	}

	fm, err := skillpack.ParseFrontmatter(skill.Content)
	if err != nil {
		return Receipt{}, errors.Wrap(err, "skill frontmatter is invalid")
	}

	targetDir := filepath.Join(i.baseDir, fm.Name)
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return Receipt{}, errors.Wrap(err, "failed to create skill directory")
	}

	receipt := Receipt{TargetDir: targetDir}
	for _, artifact := range bundle.Artifacts {
		path, err := i.write(targetDir, artifact)
		if err != nil {
			return Receipt{}, i.cleanup(ctx, targetDir, err)
		}
		receipt.Installed = append(receipt.Installed, path)
	}

	logger.G(ctx).WithField("skill", fm.Name).WithField("files", len(receipt.Installed)).
		Info("installed skill")
	return receipt, nil
}

func (i *LocalInstaller) write(targetDir string, artifact skillpack.Artifact) (string, error) {
	relPath := filepath.Clean(artifact.Path)
	if relPath == "." || strings.HasPrefix(relPath, "..") || filepath.IsAbs(relPath) {
		return "", errors.Errorf("artifact path %q escapes the skill directory", artifact.Path)
	}

	destPath := filepath.Join(targetDir, relPath)
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return "", errors.Wrapf(err, "failed to create directory for %s", relPath)
	}

	perm := os.FileMode(0644)
	if artifact.Kind == blueprint.KindScript {
		perm = 0755
	}
	if err := os.WriteFile(destPath, []byte(artifact.Content), perm); err != nil {
		return "", errors.Wrapf(err, "failed to write %s", relPath)
	}

	// Read back to confirm the copy is intact.
	written, err := os.ReadFile(destPath)
	if err != nil {
		return "", errors.Wrapf(err, "failed to verify %s", relPath)
	}
	if string(written) != artifact.Content {
		return "", errors.Errorf("verification failed for %s: content mismatch", relPath)
	}
	return destPath, nil
}

// cleanup removes the partial skill directory, folding any removal
// failure into the original error.
func (i *LocalInstaller) cleanup(ctx context.Context, targetDir string, installErr error) error {
	result := installErr
	if rmErr := os.RemoveAll(targetDir); rmErr != nil {
		logger.G(ctx).WithField("dir", targetDir).WithError(rmErr).Warn("failed to clean up partial install")
		result = multierror.Append(result, errors.Wrap(rmErr, "cleanup failed"))
	}
	return result
}
