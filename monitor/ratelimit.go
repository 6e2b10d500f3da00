package monitor

import (
	"time"

	"golang.org/x/time/rate"
)

// SendLimiter enforces a minimum spacing between successive chat sends by
// this monitor. A send requested inside the cooldown is dropped outright,
// never queued: a fresh fetch cycle is worth more than a stale reply.
type SendLimiter struct {
	lim *rate.Limiter
}

// NewSendLimiter returns a limiter that accepts at most one send per
// cooldown. A non-positive cooldown disables limiting.
func NewSendLimiter(cooldown time.Duration) *SendLimiter {
	if cooldown <= 0 {
		return &SendLimiter{lim: rate.NewLimiter(rate.Inf, 1)}
	}
	return &SendLimiter{lim: rate.NewLimiter(rate.Every(cooldown), 1)}
}

// Allow reports whether a send may proceed now. The slot is consumed before
// any network I/O happens, so a slow send cannot be counted twice.
func (l *SendLimiter) Allow() bool {
	return l.lim.Allow()
}

// allowAt is Allow with an explicit clock, for tests.
func (l *SendLimiter) allowAt(t time.Time) bool {
	return l.lim.AllowN(t, 1)
}
