package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/use-agent/serpscout/metrics"
	"github.com/use-agent/serpscout/models"
)

// RetryPolicy bounds how often a failing attempt is repeated.
type RetryPolicy struct {
	MaxAttempts int
	BackoffBase time.Duration
	Jitter      time.Duration
}

// DefaultRetryPolicy is four attempts with a one second base and one
// second of jitter.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 4,
	BackoffBase: time.Second,
	Jitter:      time.Second,
}

// Backoff returns the deterministic part of the delay before attempt n
// (n >= 2): BackoffBase * 2^(n-2).
func (p RetryPolicy) Backoff(n int) time.Duration {
	if n < 2 {
		return 0
	}
	return p.BackoffBase << (n - 2)
}

// Delay returns Backoff(n) plus a uniform random jitter in [0, Jitter).
func (p RetryPolicy) Delay(n int) time.Duration {
	d := p.Backoff(n)
	if p.Jitter > 0 {
		d += rand.N(p.Jitter)
	}
	return d
}

// AttemptFunc performs attempt number attempt (1-based).
type AttemptFunc func(ctx context.Context, attempt int) Outcome

// WithRetry calls fn until it succeeds or MaxAttempts failures have been
// seen, sleeping Delay(n) before attempt n. A success is never retried.
// After the last failure that Outcome is returned unchanged. If ctx ends
// before a backoff sleep completes, the result is a timeout failure that
// keeps the last evidence path.
func WithRetry(ctx context.Context, policy RetryPolicy, sleeper Sleeper, fn AttemptFunc) Outcome {
	if sleeper == nil {
		sleeper = RealSleep
	}
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var last Outcome
	for n := 1; n <= attempts; n++ {
		if n > 1 {
			delay := policy.Delay(n)
			if err := sleeper.Sleep(ctx, delay); err != nil {
				return Failure(models.ReasonTimeout, last.DebugPath, err)
			}
		}

		last = fn(ctx, n)
		if last.OK {
			return last
		}
	}
	return last
}

// Retrying wraps p so that each Fetch runs under WithRetry with policy.
func Retrying(p Provider, policy RetryPolicy, sleeper Sleeper) Provider {
	return &retryingProvider{Provider: p, policy: policy, sleeper: sleeper}
}

type retryingProvider struct {
	Provider
	policy  RetryPolicy
	sleeper Sleeper
}

func (r *retryingProvider) Fetch(ctx context.Context, req *FetchRequest) Outcome {
	return WithRetry(ctx, r.policy, r.sleeper, func(ctx context.Context, attempt int) Outcome {
		start := time.Now()
		out := r.attempt(ctx, req)
		metrics.RecordAttempt(r.Name(), out.Label(), time.Since(start))

		if out.Failed() {
			if out.Reason.IsBlock() {
				metrics.RecordBlock(r.Name(), string(out.Reason))
			}
			slog.Info("attempt failed",
				"provider", r.Name(),
				"keyword", req.Keyword,
				"attempt", attempt,
				"maxAttempts", r.policy.MaxAttempts,
				"reason", out.Reason,
				"debugPath", out.DebugPath,
				"error", out.Err,
			)
		}
		return out
	})
}

// attempt runs one Fetch, turning a panic into an exception failure so the
// remaining attempts still run.
func (r *retryingProvider) attempt(ctx context.Context, req *FetchRequest) (out Outcome) {
	defer func() {
		if v := recover(); v != nil {
			out = Failure(models.ReasonException, "", fmt.Errorf("%s: panic: %v", r.Name(), v))
		}
	}()
	return r.Provider.Fetch(ctx, req)
}
