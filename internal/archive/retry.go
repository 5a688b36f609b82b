package archive

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryConfig controls how archive operations are retried
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	Jitter        bool
}

// DefaultRetryConfig returns the retry policy used in production
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        true,
	}
}

// withRetry runs op, retrying retryable failures with exponential
// backoff until the attempt budget runs out or the context is done.
func withRetry(ctx context.Context, config *RetryConfig, op func(ctx context.Context) error) error {
	if config == nil {
		config = DefaultRetryConfig()
	}

	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := op(ctx)
		if err == nil {
			return nil
		}

		lastErr = err

		if attempt >= config.MaxAttempts || !IsRetryable(err) {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(config.delay(attempt)):
		}
	}

	return lastErr
}

func (c *RetryConfig) delay(attempt int) time.Duration {
	delay := float64(c.InitialDelay) * math.Pow(c.BackoffFactor, float64(attempt-1))

	if delay > float64(c.MaxDelay) {
		delay = float64(c.MaxDelay)
	}

	if c.Jitter {
		delay += rand.Float64() * 0.1 * delay
	}

	return time.Duration(delay)
}

// RetryingArchiver wraps an Archiver with the retry policy above.
type RetryingArchiver struct {
	archive Archiver
	config  *RetryConfig
}

// NewRetryingArchiver creates a new RetryingArchiver
func NewRetryingArchiver(archive Archiver, config *RetryConfig) *RetryingArchiver {
	if config == nil {
		config = DefaultRetryConfig()
	}
	return &RetryingArchiver{archive: archive, config: config}
}

// Store implements Archiver.Store with retries
func (r *RetryingArchiver) Store(ctx context.Context, key string, data []byte) error {
	return withRetry(ctx, r.config, func(ctx context.Context) error {
		return r.archive.Store(ctx, key, data)
	})
}

// Retrieve implements Archiver.Retrieve with retries
func (r *RetryingArchiver) Retrieve(ctx context.Context, key string) ([]byte, error) {
	var result []byte
	err := withRetry(ctx, r.config, func(ctx context.Context) error {
		data, err := r.archive.Retrieve(ctx, key)
		if err != nil {
			return err
		}
		result = data
		return nil
	})
	return result, err
}

// List implements Archiver.List with retries
func (r *RetryingArchiver) List(ctx context.Context, prefix string) ([]Snapshot, error) {
	var result []Snapshot
	err := withRetry(ctx, r.config, func(ctx context.Context) error {
		snapshots, err := r.archive.List(ctx, prefix)
		if err != nil {
			return err
		}
		result = snapshots
		return nil
	})
	return result, err
}

// Close implements Archiver.Close
func (r *RetryingArchiver) Close() error {
	return r.archive.Close()
}
