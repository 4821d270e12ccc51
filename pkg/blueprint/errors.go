package blueprint

import (
	"strings"
)

// ValidationError carries the hard validation failures for a blueprint
// or an artifact. It is returned as data by Validate's callers; it is
// never used to unwind the orchestrator.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "blueprint validation failed"
	}
	msgs := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		msgs = append(msgs, issue.String())
	}
	return "blueprint validation failed: " + strings.Join(msgs, "; ")
}

// NewValidationError wraps validation issues into an error, or returns
// nil when there are none.
func NewValidationError(issues []Issue) error {
	if len(issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: issues}
}
