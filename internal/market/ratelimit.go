package market

import "golang.org/x/time/rate"

// limiter is a thin token-bucket wrapper per provider, grounded on the
// teacher's internal/net/ratelimit/limiter.go (there keyed per host; here one
// limiter per provider client since each client talks to exactly one host).
type limiter struct {
	l *rate.Limiter
}

func newLimiter(rps float64, burst int) *limiter {
	return &limiter{l: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Allow reports whether a request may proceed right now without blocking.
// Providers that are rate-limited are treated exactly like any other
// unavailable provider: the caller falls back.
func (l *limiter) Allow() bool {
	return l.l.Allow()
}
