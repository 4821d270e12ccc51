package quality

import (
	"fmt"
	"strings"
)

// GateStatus is the per-check outcome.
type GateStatus string

const (
	GatePass GateStatus = "pass"
	GateWarn GateStatus = "warn"
	GateFail GateStatus = "fail"
)

// Thresholds configures the gate. Hard thresholds are not bypassable;
// soft thresholds downgrade a failure to a warning surfaced to the
// operator.
type Thresholds struct {
	Overall        float64 // hard
	ContentQuality float64 // soft
	ExpertiseDepth float64 // soft
}

// DefaultThresholds returns the documented gate thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Overall:        7.0,
		ContentQuality: 6.0,
		ExpertiseDepth: 6.0,
	}
}

// Check is one gate's outcome.
type Check struct {
	Name    string     `json:"name"`
	Status  GateStatus `json:"status"`
	Hard    bool       `json:"hard"`
	Message string     `json:"message"`
}

// GateResult is the gate's verdict over an assessment. It is always
// recomputed from the latest assessment and never persisted, so a
// rework cycle can never act on a stale pass decision.
type GateResult struct {
	Passed       bool    `json:"passed"`
	Checks       []Check `json:"checks"`
	HardFailures int     `json:"hardFailures"`
	SoftFailures int     `json:"softFailures"`
	Message      string  `json:"message"`
}

// GateFailure is the recoverable error representing a failed gate. The
// orchestrator routes it to the Rework phase rather than aborting.
type GateFailure struct {
	Result GateResult
}

func (e *GateFailure) Error() string {
	return "quality gate failed: " + e.Result.Message
}

// ApplyGate restates the assessment's components against the configured
// thresholds. Hard gates: overall score, full spec compliance, budget
// compliance, and script correctness when scripts are present. Soft
// gates: content quality and expertise depth, which warn instead of
// fail.
func ApplyGate(a Assessment, th Thresholds) GateResult {
	var result GateResult

	add := func(c Check) {
		result.Checks = append(result.Checks, c)
		switch {
		case c.Status == GateFail && c.Hard:
			result.HardFailures++
		case c.Status == GateFail || c.Status == GateWarn:
			result.SoftFailures++
		}
	}

	if a.Overall >= th.Overall {
		add(Check{Name: "overall-score", Status: GatePass, Hard: true,
			Message: fmt.Sprintf("overall %.2f meets the %.1f threshold", a.Overall, th.Overall)})
	} else {
		add(Check{Name: "overall-score", Status: GateFail, Hard: true,
			Message: fmt.Sprintf("overall %.2f is below the %.1f threshold", a.Overall, th.Overall)})
	}

	if len(a.BlockingIssues) == 0 {
		add(Check{Name: "blocking-issues", Status: GatePass, Hard: true, Message: "no blocking issues"})
	} else {
		add(Check{Name: "blocking-issues", Status: GateFail, Hard: true,
			Message: fmt.Sprintf("%d blocking issue(s): %s", len(a.BlockingIssues), strings.Join(a.BlockingIssues, "; "))})
	}

	addComponentGate(add, a, ComponentSpecCompliance, 10.0, true,
		"specification compliance must be 100%")
	addComponentGate(add, a, ComponentBudget, 0, true,
		"budget compliance must pass")
	if _, present := a.Components[ComponentScripts]; present {
		addComponentGate(add, a, ComponentScripts, 0, true,
			"script checks must pass")
	}

	addSoftGate(add, a, ComponentContentQuality, th.ContentQuality)
	addSoftGate(add, a, ComponentExpertise, th.ExpertiseDepth)

	result.Passed = result.HardFailures == 0
	result.Message = summarize(result)
	return result
}

// addComponentGate adds a hard gate on a component: the component must
// have passed, and when minScore > 0 must also meet it.
func addComponentGate(add func(Check), a Assessment, name string, minScore float64, hard bool, rule string) {
	c, present := a.Components[name]
	if !present {
		add(Check{Name: name, Status: GateFail, Hard: hard,
			Message: fmt.Sprintf("component %q did not report a score", name)})
		return
	}
	if !c.Passed || c.Score < minScore {
		msg := rule
		if len(c.Errors) > 0 {
			msg = fmt.Sprintf("%s (%s)", msg, strings.Join(c.Errors, "; "))
		}
		add(Check{Name: name, Status: GateFail, Hard: hard, Message: msg})
		return
	}
	add(Check{Name: name, Status: GatePass, Hard: hard,
		Message: fmt.Sprintf("%s scored %.1f", name, c.Score)})
}

// addSoftGate warns, never fails, when a component scores below its
// threshold. The warning is surfaced to the operator explicitly.
func addSoftGate(add func(Check), a Assessment, name string, threshold float64) {
	c, present := a.Components[name]
	if !present {
		return
	}
	if c.Score < threshold {
		add(Check{Name: name, Status: GateWarn, Hard: false,
			Message: fmt.Sprintf("%s scored %.1f, below the advisory %.1f threshold", name, c.Score, threshold)})
		return
	}
	add(Check{Name: name, Status: GatePass, Hard: false,
		Message: fmt.Sprintf("%s scored %.1f", name, c.Score)})
}

func summarize(r GateResult) string {
	if r.HardFailures == 0 && r.SoftFailures == 0 {
		return "all gates passed"
	}
	if r.HardFailures == 0 {
		return fmt.Sprintf("passed with %d advisory warning(s)", r.SoftFailures)
	}
	var failed []string
	for _, c := range r.Checks {
		if c.Status == GateFail && c.Hard {
			failed = append(failed, c.Name)
		}
	}
	return fmt.Sprintf("%d hard gate(s) failed: %s", r.HardFailures, strings.Join(failed, ", "))
}
