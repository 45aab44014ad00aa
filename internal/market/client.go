package market

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/riskgate/internal/breaker"
)

// Transport funcs perform the actual provider call. Concrete wire protocols
// (Tradier/TwelveData/Alpaca-shaped or otherwise) are explicitly out of scope
// for this core (spec.md §9 Open Questions); callers supply their own
// transport, and tests supply fakes.
type OptionsTransport func(ctx context.Context, symbol string) (OptionsData, error)
type StatsTransport func(ctx context.Context, symbol string) (MarketStats, error)
type LiquidityTransport func(ctx context.Context, symbol string) (LiquidityData, error)

// clientBase is the shared deadline/rate-limit/circuit-breaker envelope
// around a single provider call, grounded on internal/net/client/wrap.go
// (deadline-wrapped transport) composed with internal/net/ratelimit and
// infra/breakers.
type clientBase struct {
	name    string
	timeout time.Duration
	limiter *limiter
	guard   *breaker.Guard
}

func newClientBase(name string, timeout time.Duration, rps float64, burst int, bcfg breaker.Config) clientBase {
	return clientBase{
		name:    name,
		timeout: timeout,
		limiter: newLimiter(rps, burst),
		guard:   breaker.New(name, bcfg),
	}
}

// call enforces the provider's own deadline (spec.md §4.2 "each client
// enforces its own deadline internally") regardless of the caller's context,
// then routes through the rate limiter and circuit breaker. Any failure along
// that path (limiter says no, breaker open, transport error, deadline miss)
// is reported back to the caller as ok=false so it can substitute a fallback;
// this call itself never returns an error.
func (c clientBase) call(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, bool) {
	if !c.limiter.Allow() {
		log.Debug().Str("provider", c.name).Msg("rate limited, using fallback")
		return nil, false
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.guard.Execute(func() (any, error) {
		return fn(callCtx)
	})
	if err != nil {
		log.Debug().Err(err).Str("provider", c.name).Msg("provider call failed, using fallback")
		return nil, false
	}
	return result, true
}

// Guard exposes the client's circuit breaker so the composition root can
// report its state in the health view without constructing a second,
// disconnected breaker for the same provider.
func (c clientBase) Guard() *breaker.Guard {
	return c.guard
}

// probe performs a cheap connectivity check through the same limiter and
// breaker as call. The health view does not call it; it reports breaker
// state only.
func (c clientBase) probe(ctx context.Context, fn func(ctx context.Context) error) bool {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	_, ok := c.call(callCtx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
	return ok
}
