package ai

import (
	"context"
	"math"
	"time"

	"golang.org/x/time/rate"
)

// NewLimiter returns a request limiter allowing rps calls per second, or nil
// (unlimited) when rps is not positive.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 || math.IsInf(rps, 1) || math.IsNaN(rps) {
		return nil
	}
	burst := int(math.Ceil(rps))
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// Acquire waits for the limiter and derives the per-call context. A nil
// limiter never blocks; a non-positive timeout leaves ctx without deadline.
func Acquire(ctx context.Context, limiter *rate.Limiter, timeout time.Duration) (context.Context, context.CancelFunc, error) {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, nil, err
		}
	}
	if timeout <= 0 {
		callCtx, cancel := context.WithCancel(ctx)
		return callCtx, cancel, nil
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	return callCtx, cancel, nil
}
