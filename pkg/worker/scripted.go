package worker

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// ScriptedWorker returns canned results in order. It stands in for a
// language model in tests and dry runs.
type ScriptedWorker struct {
	mu       sync.Mutex
	results  []Result
	next     int
	requests []Request
}

// NewScriptedWorker creates a worker that replies with the given
// results, one per request, in order.
func NewScriptedWorker(results ...Result) *ScriptedWorker {
	return &ScriptedWorker{results: results}
}

// Execute returns the next scripted result.
func (w *ScriptedWorker) Execute(_ context.Context, req Request) (Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.requests = append(w.requests, req)
	if w.next >= len(w.results) {
		return Result{}, errors.Errorf("scripted worker exhausted after %d requests", len(w.results))
	}
	res := w.results[w.next]
	w.next++
	if res.OutputTokens == 0 {
		res.OutputTokens = int64((len(res.Text) + 3) / 4)
	}
	return res, nil
}

// Requests returns the requests seen so far.
func (w *ScriptedWorker) Requests() []Request {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Request, len(w.requests))
	copy(out, w.requests)
	return out
}

// WorkerFunc adapts a function to the Worker interface.
type WorkerFunc func(ctx context.Context, req Request) (Result, error)

// Execute calls the wrapped function.
func (f WorkerFunc) Execute(ctx context.Context, req Request) (Result, error) {
	return f(ctx, req)
}
