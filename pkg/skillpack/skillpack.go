// Package skillpack models the generated skill bundle: the artifacts
// produced by the generation phase, line and token accounting against
// blueprint budgets, and SKILL.md frontmatter parsing.
package skillpack

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"

	"github.com/skillforge/skillforge/pkg/blueprint"
)

// SkillFileName is the canonical name of the primary document.
const SkillFileName = "SKILL.md"

// Artifact is one generated file, carried inline in the session record
// until installation writes it out.
type Artifact struct {
	Path    string             `json:"path"`
	Kind    blueprint.FileKind `json:"kind"`
	Content string             `json:"content"`
}

// Lines counts the artifact's content lines.
func (a Artifact) Lines() int {
	if a.Content == "" {
		return 0
	}
	return strings.Count(a.Content, "\n") + 1
}

// Tokens estimates the artifact's token count.
func (a Artifact) Tokens() int {
	return EstimateTokens(a.Content)
}

// EstimateTokens approximates token count as one token per four bytes of
// text, the usual ballpark for English prose and markdown.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// Bundle is the full set of generated artifacts for one run.
type Bundle struct {
	Artifacts []Artifact `json:"artifacts"`
}

// Get returns the artifact at the given path.
func (b Bundle) Get(path string) (Artifact, bool) {
	for _, a := range b.Artifacts {
		if a.Path == path {
			return a, true
		}
	}
	return Artifact{}, false
}

// Skill returns the primary document artifact.
func (b Bundle) Skill() (Artifact, bool) {
	for _, a := range b.Artifacts {
		if a.Kind == blueprint.KindSkill {
			return a, true
		}
	}
	return Artifact{}, false
}

// Frontmatter is the YAML header every generated SKILL.md must carry.
type Frontmatter struct {
	Name        string
	Description string
}

// ParseFrontmatter extracts the YAML frontmatter from a SKILL.md body.
func ParseFrontmatter(content string) (Frontmatter, error) {
	md := goldmark.New(goldmark.WithExtensions(meta.Meta))

	var buf bytes.Buffer
	pctx := parser.NewContext()
	if err := md.Convert([]byte(content), &buf, parser.WithContext(pctx)); err != nil {
		return Frontmatter{}, errors.Wrap(err, "failed to parse markdown")
	}

	metaData := meta.Get(pctx)
	if metaData == nil {
		return Frontmatter{}, errors.New("missing frontmatter")
	}

	fm := Frontmatter{}
	fm.Name, _ = metaData["name"].(string)
	fm.Description, _ = metaData["description"].(string)

	if fm.Name == "" {
		return Frontmatter{}, errors.New("skill name is required in frontmatter")
	}
	if fm.Description == "" {
		return Frontmatter{}, errors.New("skill description is required in frontmatter")
	}
	return fm, nil
}

// Sections lists the level-2 heading names of a markdown document,
// lowercased. The structural scorer compares these against the
// blueprint's planned sections.
func Sections(content string) []string {
	var names []string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "## ") {
			names = append(names, strings.ToLower(strings.TrimSpace(trimmed[3:])))
		}
	}
	return names
}
