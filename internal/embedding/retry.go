package embedding

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/kura/internal/models"
)

// RetryClient retries retryable provider errors (rate limits, server errors, timeouts)
// with exponential backoff. Other errors are returned after the first attempt.
type RetryClient struct {
	inner      Client
	maxRetries int
	interval   time.Duration
	logger     *zap.Logger
}

// RetryOption configures a RetryClient.
type RetryOption func(*RetryClient)

// WithRetryInterval sets the initial backoff interval.
func WithRetryInterval(d time.Duration) RetryOption {
	return func(r *RetryClient) { r.interval = d }
}

// WithRetryLogger sets a logger for retry attempts.
func WithRetryLogger(l *zap.Logger) RetryOption {
	return func(r *RetryClient) { r.logger = l }
}

// NewRetryClient wraps inner; maxRetries is the number of attempts after the first.
func NewRetryClient(inner Client, maxRetries int, opts ...RetryOption) *RetryClient {
	r := &RetryClient{
		inner:      inner,
		maxRetries: maxRetries,
		interval:   500 * time.Millisecond,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EmbedDocuments calls the inner client, retrying retryable failures.
func (r *RetryClient) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return retry(ctx, r, func() ([][]float32, error) {
		return r.inner.EmbedDocuments(ctx, texts)
	})
}

// EmbedQuery calls the inner client, retrying retryable failures.
func (r *RetryClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return retry(ctx, r, func() ([]float32, error) {
		return r.inner.EmbedQuery(ctx, text)
	})
}

// Close closes the inner client.
func (r *RetryClient) Close() error {
	return Close(r.inner)
}

func retry[T any](ctx context.Context, r *RetryClient, call func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.interval
	attempt := 0
	op := func() (T, error) {
		attempt++
		v, err := call()
		if err == nil {
			return v, nil
		}
		if !models.IsRetryable(err) {
			return v, backoff.Permanent(err)
		}
		r.logger.Warn("embedding request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", r.maxRetries),
			zap.Error(err))
		return v, err
	}
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(r.maxRetries+1)))
}
