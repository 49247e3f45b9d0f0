package ratelimit

import (
	"context"

	"golang.org/x/time/rate"

	"pulsedesk/pkg/errors"
)

// Limiter provides rate limiting for outbound API calls
type Limiter struct {
	limiter *rate.Limiter
	name    string
}

// NewLimiter creates a new rate limiter
// requestsPerMinute: maximum number of requests allowed per minute
func NewLimiter(name string, requestsPerMinute int) *Limiter {
	rps := float64(requestsPerMinute) / 60.0

	// Allow burst of 10% of per-minute limit
	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}

	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		name:    name,
	}
}

// Wait blocks until the rate limiter allows the request
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return errors.Wrapf(err, "rate limiter %s", l.name)
	}
	return nil
}

// Allow checks if a request is allowed without blocking
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}
