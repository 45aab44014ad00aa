package admission

import "errors"

// ErrSaturated is returned by Acquire when the concurrency ceiling is
// already full (spec.md §7 "admission saturation" → 503-equivalent at the
// boundary).
var ErrSaturated = errors.New("admission: concurrency ceiling reached")

// Limiter is a non-blocking concurrency ceiling, grounded on the teacher's
// ClientPool semaphore (internal/infrastructure/httpclient/pool.go) — a
// buffered channel used as a counting semaphore — but refuses immediately
// instead of blocking on a full channel, since admission must reject over
// capacity rather than queue (spec.md §4.9 / invariant P12).
type Limiter struct {
	slots chan struct{}
}

func NewLimiter(ceiling int) *Limiter {
	return &Limiter{slots: make(chan struct{}, ceiling)}
}

// Acquire reserves a slot or returns ErrSaturated immediately if none are
// free. Release must be called exactly once per successful Acquire.
func (l *Limiter) Acquire() (release func(), err error) {
	select {
	case l.slots <- struct{}{}:
		return func() { <-l.slots }, nil
	default:
		return nil, ErrSaturated
	}
}

// InUse returns the number of slots currently held.
func (l *Limiter) InUse() int {
	return len(l.slots)
}

// Capacity returns the configured ceiling.
func (l *Limiter) Capacity() int {
	return cap(l.slots)
}
