package llm

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryConfig controls the exponential-backoff loop around a retryable
// LLM call. Adapted from services/trace/context/retry.go's
// RetryConfig/calculateBackoff/nextBackoff shape, retyped for LLMEngine's
// narrower retry surface (auth/invalid-request errors are never retried
// here; only rate-limit/connection errors are, per spec.md §4.5).
type RetryConfig struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	BackoffFactor  float64
	JitterFraction float64
}

// DefaultRetryConfig mirrors the teacher's DefaultRetryConfig defaults.
func DefaultRetryConfig(maxRetries int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    maxRetries,
		BaseDelay:      time.Second,
		MaxDelay:       30 * time.Second,
		BackoffFactor:  2.0,
		JitterFraction: 0.2,
	}
}

// calculateBackoff computes delay = min(maxDelay, base*factor^attempt)
// with up to jitterFraction of random jitter added, per spec.md §4.5's
// exact formula.
func calculateBackoff(cfg RetryConfig, attempt int) time.Duration {
	raw := float64(cfg.BaseDelay) * math.Pow(cfg.BackoffFactor, float64(attempt))
	if raw > float64(cfg.MaxDelay) {
		raw = float64(cfg.MaxDelay)
	}
	jitter := raw * cfg.JitterFraction * rand.Float64()
	return time.Duration(raw + jitter)
}

// withRetry runs fn up to cfg.MaxAttempts times, retrying only when the
// returned error is retryable per IsRetryable, backing off between
// attempts, and honoring ctx cancellation at every suspension point.
func withRetry(ctx context.Context, cfg RetryConfig, fn func() (Response, error)) (Response, error) {
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Response{}, err
		}
		resp, err := fn()
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !IsRetryable(err) || attempt == cfg.MaxAttempts {
			return Response{}, err
		}
		delay := calculateBackoff(cfg, attempt)
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case <-time.After(delay):
		}
	}
	return Response{}, lastErr
}
