package bookapi

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// limiter paces outbound requests. Burst equals the rate.
type limiter struct {
	limiter *rate.Limiter
	name    string
}

// newLimiter returns nil for a non-positive rate, meaning unlimited
func newLimiter(name string, requestsPerSecond int) *limiter {
	if requestsPerSecond <= 0 {
		return nil
	}
	return &limiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
		name:    name,
	}
}

// Wait blocks until a request may proceed or ctx is done
func (l *limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait for %s: %w", l.name, err)
	}
	return nil
}
