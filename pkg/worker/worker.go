// Package worker abstracts the language-model collaborator behind a
// single-method interface. The orchestrator never knows whether a
// worker is a hosted model, a rule engine, or a scripted stand-in used
// by tests.
package worker

import (
	"context"
)

// Request is one unit of delegated work: a system prompt establishing
// the role, the task prompt itself, and an output token ceiling.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
}

// Result carries the worker's output text and token accounting. The
// orchestration core consumes only the size; the text is forwarded
// unchanged to validation.
type Result struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
}

// Worker executes a single request.
type Worker interface {
	Execute(ctx context.Context, req Request) (Result, error)
}
