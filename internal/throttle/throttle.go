// Package throttle spaces outbound provider calls so that every geocoding
// and routing request made by the process shares one minimum interval.
package throttle

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

// DefaultInterval is the minimum spacing between outbound provider calls.
const DefaultInterval = 350 * time.Millisecond

// Gate blocks callers until the shared interval since the previous admitted
// call has elapsed. It is safe for concurrent use and holds no lock while
// the caller waits or performs its request.
type Gate struct {
	limiter *rate.Limiter
	clock   clockwork.Clock
}

// Option configures a Gate.
type Option func(*Gate)

// WithClock overrides the time source, for tests.
func WithClock(c clockwork.Clock) Option {
	return func(g *Gate) { g.clock = c }
}

// NewGate returns a gate admitting one call per interval. A non-positive
// interval disables throttling.
func NewGate(interval time.Duration, opts ...Option) *Gate {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	g := &Gate{
		limiter: rate.NewLimiter(limit, 1),
		clock:   clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Wait reserves the next slot and sleeps until it opens. It returns the time
// spent waiting. If ctx ends first the slot is released for the next caller.
func (g *Gate) Wait(ctx context.Context) (time.Duration, error) {
	now := g.clock.Now()
	r := g.limiter.ReserveN(now, 1)
	if !r.OK() {
		return 0, errors.New("throttle: reservation exceeds burst")
	}
	delay := r.DelayFrom(now)
	if delay <= 0 {
		return 0, nil
	}

	select {
	case <-g.clock.After(delay):
		return delay, nil
	case <-ctx.Done():
		r.CancelAt(g.clock.Now())
		return g.clock.Since(now), ctx.Err()
	}
}
