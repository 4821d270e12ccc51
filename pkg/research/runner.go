package research

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/skillforge/skillforge/pkg/logger"
)

const (
	defaultMaxConcurrent = 4
	defaultRetryAttempts = 3
	defaultRetryDelay    = 500 * time.Millisecond
)

// QueryError records a query that failed after all retries.
type QueryError struct {
	Query string
	Err   error
}

// Results carries everything the fan-out produced. Failed queries are
// reported alongside the findings of the ones that succeeded.
type Results struct {
	Findings []Finding
	Failed   []QueryError
}

// Runner fans research queries out to a provider and joins all of
// them before returning. Queries share no mutable state; each one
// retries independently.
type Runner struct {
	provider      Provider
	maxConcurrent int
	retryAttempts uint
	retryDelay    time.Duration
}

// Option configures a Runner.
type Option func(*Runner) error

// WithMaxConcurrent caps how many queries run at once.
func WithMaxConcurrent(n int) Option {
	return func(r *Runner) error {
		if n <= 0 {
			return errors.Errorf("max concurrent must be positive, got %d", n)
		}
		r.maxConcurrent = n
		return nil
	}
}

// WithRetry sets the per-query retry policy.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(r *Runner) error {
		if attempts == 0 {
			return errors.New("retry attempts must be at least 1")
		}
		r.retryAttempts = attempts
		r.retryDelay = delay
		return nil
	}
}

// NewRunner creates a query fan-out runner for the given provider.
func NewRunner(provider Provider, opts ...Option) (*Runner, error) {
	if provider == nil {
		return nil, errors.New("research provider is required")
	}
	runner := &Runner{
		provider:      provider,
		maxConcurrent: defaultMaxConcurrent,
		retryAttempts: defaultRetryAttempts,
		retryDelay:    defaultRetryDelay,
	}
	for _, opt := range opts {
		if err := opt(runner); err != nil {
			return nil, errors.Wrap(err, "invalid runner option")
		}
	}
	return runner, nil
}

// Run executes all queries and waits for every one of them. A query
// that fails after its retries is recorded in Results.Failed rather
// than aborting the others; Run returns an error only when the context
// is cancelled or every query failed.
func (r *Runner) Run(ctx context.Context, queries []string) (Results, error) {
	if len(queries) == 0 {
		return Results{}, errors.New("no research queries given")
	}

	findings := make([][]Finding, len(queries))
	failures := make([]error, len(queries))

	group := &errgroup.Group{}
	group.SetLimit(r.maxConcurrent)

	for i, query := range queries {
		i, query := i, query
		group.Go(func() error {
			result, err := r.search(ctx, query)
			if err != nil {
				logger.G(ctx).WithField("query", query).WithError(err).Warn("research query failed")
				failures[i] = err
				return nil
			}
			findings[i] = result
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return Results{}, err
	}
	if err := ctx.Err(); err != nil {
		return Results{}, errors.Wrap(err, "research cancelled")
	}

	var results Results
	for i, query := range queries {
		if failures[i] != nil {
			results.Failed = append(results.Failed, QueryError{Query: query, Err: failures[i]})
			continue
		}
		results.Findings = append(results.Findings, findings[i]...)
	}
	if len(results.Failed) == len(queries) {
		return results, errors.New("all research queries failed")
	}
	return results, nil
}

func (r *Runner) search(ctx context.Context, query string) ([]Finding, error) {
	var result []Finding
	err := retry.Do(
		func() error {
			var searchErr error
			result, searchErr = r.provider.Search(ctx, query)
			return searchErr
		},
		retry.Attempts(r.retryAttempts),
		retry.Delay(r.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "query %q failed after %d attempts", query, r.retryAttempts)
	}
	return result, nil
}
