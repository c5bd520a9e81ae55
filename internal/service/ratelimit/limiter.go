package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter enforces a minimum interval between upstream requests. Burst is
// one, so two requests are never closer than 1/perSecond.
type Limiter struct {
	rl *rate.Limiter
}

// New returns a limiter allowing perSecond requests per second. A
// non-positive rate disables limiting.
func New(perSecond float64) *Limiter {
	if perSecond <= 0 {
		return &Limiter{rl: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Limiter{rl: rate.NewLimiter(rate.Limit(perSecond), 1)}
}

// Wait blocks until the next request may be issued.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.rl.Wait(ctx)
}

// Allow returns true if a request may be issued right now.
func (l *Limiter) Allow() bool {
	return l.rl.Allow()
}

// Interval is the enforced spacing between requests, 0 when unlimited.
func (l *Limiter) Interval() time.Duration {
	lim := l.rl.Limit()
	if lim == rate.Inf || lim <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / float64(lim))
}
