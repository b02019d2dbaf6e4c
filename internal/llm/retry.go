package llm

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// maxRetryAfter caps a server-supplied Retry-After hint.
const maxRetryAfter = 30 * time.Second

// RetryProvider re-sends calls that failed on the vendor's side: rate
// limits, outages and transport errors. Unusable output, rejected requests
// and cancelled contexts come back at once.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
}

// WithRetry wraps p. MaxAttempts below 1 means a single attempt.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	cfg.MaxAttempts = max(cfg.MaxAttempts, 1)
	return &RetryProvider{inner: p, config: cfg}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	var err error
	for attempt := range r.config.MaxAttempts {
		if attempt > 0 {
			if werr := sleep(ctx, r.delay(attempt-1, err)); werr != nil {
				return nil, werr
			}
		}
		var resp *Response
		resp, err = r.inner.Generate(ctx, req)
		if err == nil || !retryable(err) {
			return resp, err
		}
	}
	return nil, err
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

func retryable(err error) bool {
	var unavail *ErrProviderUnavailable
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case IsInvalidOutput(err):
		// Callers re-prompt with the validation error instead.
		return false
	case errors.As(err, &unavail):
		return !unavail.Permanent()
	}
	return true
}

// delay honours Retry-After on rate limits; otherwise it grows by
// Multiplier from InitialWait up to MaxWait with ±20% jitter.
func (r *RetryProvider) delay(attempt int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return min(rl.RetryAfter, maxRetryAfter)
	}

	wait := float64(r.config.InitialWait)
	for range attempt {
		wait *= r.config.Multiplier
	}
	wait = min(wait, float64(r.config.MaxWait))
	wait *= 0.8 + 0.4*rand.Float64()
	return time.Duration(max(wait, 0))
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
