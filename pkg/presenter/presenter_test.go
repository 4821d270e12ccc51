package presenter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func newTestPresenter() (*TerminalPresenter, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	p := NewWithOptions(&out, &errOut, ColorNever)
	return p, &out, &errOut
}

func TestErrorGoesToErrorOutput(t *testing.T) {
	p, out, errOut := newTestPresenter()

	p.Error(errors.New("boom"), "loading blueprint")

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "[ERROR] loading blueprint: boom")
}

func TestErrorNilIsNoop(t *testing.T) {
	p, _, errOut := newTestPresenter()
	p.Error(nil, "context")
	assert.Empty(t, errOut.String())
}

func TestQuietSuppressesNonErrors(t *testing.T) {
	p, out, errOut := newTestPresenter()
	p.SetQuiet(true)

	p.Success("done")
	p.Warning("careful")
	p.Info("fyi")
	p.Section("Results")
	p.Separator()
	assert.Empty(t, out.String())

	p.Error(errors.New("still shown"), "")
	assert.Contains(t, errOut.String(), "still shown")
}

func TestSectionUnderline(t *testing.T) {
	p, out, _ := newTestPresenter()
	p.Section("Discovery")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, "Discovery", lines[0])
	assert.Equal(t, strings.Repeat("-", len("Discovery")), lines[1])
}

func TestPromptReadsInput(t *testing.T) {
	p, out, _ := newTestPresenter()
	p.SetInput(strings.NewReader("yes\n"))

	answer := p.Prompt("Proceed anyway?", "yes", "no")

	assert.Equal(t, "yes", answer)
	assert.Contains(t, out.String(), "Proceed anyway? [yes/no]: ")
}
