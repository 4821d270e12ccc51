package worker

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/pkg/errors"

	"github.com/skillforge/skillforge/pkg/logger"
)

const defaultMaxTokens = 8192

// AnthropicWorker executes requests against Anthropic's Claude API.
type AnthropicWorker struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int
}

// AnthropicOption configures an AnthropicWorker.
type AnthropicOption func(*AnthropicWorker)

// WithModel overrides the default model.
func WithModel(model string) AnthropicOption {
	return func(w *AnthropicWorker) {
		if model != "" {
			w.model = anthropic.Model(model)
		}
	}
}

// WithMaxTokens overrides the default output token ceiling.
func WithMaxTokens(n int) AnthropicOption {
	return func(w *AnthropicWorker) {
		if n > 0 {
			w.maxTokens = n
		}
	}
}

// NewAnthropicWorker creates a worker backed by the Anthropic API. The
// API key is read from the environment by the SDK.
func NewAnthropicWorker(opts ...AnthropicOption) *AnthropicWorker {
	w := &AnthropicWorker{
		client:    anthropic.NewClient(),
		model:     anthropic.ModelClaude3_7SonnetLatest,
		maxTokens: defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Execute sends a single message and collects the text blocks of the
// response. Tool use is deliberately not offered; generation requests
// are prompt-in, text-out.
func (w *AnthropicWorker) Execute(ctx context.Context, req Request) (Result, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = w.maxTokens
	}

	params := anthropic.MessageNewParams{
		MaxTokens: int64(maxTokens),
		Model:     w.model,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	response, err := w.client.Messages.New(ctx, params)
	if err != nil {
		return Result{}, errors.Wrap(err, "anthropic request failed")
	}

	var text string
	for _, block := range response.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			text += tb.Text
		}
	}

	logger.G(ctx).WithFields(map[string]interface{}{
		"model":        w.model,
		"inputTokens":  response.Usage.InputTokens,
		"outputTokens": response.Usage.OutputTokens,
	}).Debug("worker request completed")

	return Result{
		Text:         text,
		InputTokens:  response.Usage.InputTokens,
		OutputTokens: response.Usage.OutputTokens,
	}, nil
}
