package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptedWorkerReturnsInOrder(t *testing.T) {
	w := NewScriptedWorker(
		Result{Text: "first"},
		Result{Text: "second"},
	)

	ctx := context.Background()

	first, err := w.Execute(ctx, Request{Prompt: "one"})
	require.NoError(t, err)
	assert.Equal(t, "first", first.Text)

	second, err := w.Execute(ctx, Request{Prompt: "two"})
	require.NoError(t, err)
	assert.Equal(t, "second", second.Text)

	_, err = w.Execute(ctx, Request{Prompt: "three"})
	assert.Error(t, err)

	requests := w.Requests()
	require.Len(t, requests, 3)
	assert.Equal(t, "one", requests[0].Prompt)
}

func TestScriptedWorkerEstimatesTokens(t *testing.T) {
	w := NewScriptedWorker(Result{Text: "12345678"})

	res, err := w.Execute(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.OutputTokens)
}

func TestWorkerFunc(t *testing.T) {
	echo := WorkerFunc(func(_ context.Context, req Request) (Result, error) {
		return Result{Text: req.Prompt}, nil
	})

	res, err := echo.Execute(context.Background(), Request{Prompt: "ping"})
	require.NoError(t, err)
	assert.Equal(t, "ping", res.Text)
}
