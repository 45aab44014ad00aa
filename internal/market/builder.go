package market

import (
	"context"
	"sync"
	"time"
)

// Builder fans out to all three provider clients concurrently under one
// shared deadline and merges their returns into a MarketContext (C3,
// spec.md §4.3). Grounded on the fan-out-with-deadline pattern described in
// DESIGN NOTES §9 ("one explicit concurrency primitive that accepts N tasks
// and a deadline") — implemented here directly with goroutines and a
// WaitGroup rather than a generic helper, since there are exactly three fixed
// tasks (the builder holds a small fixed tuple, not a registry, per the same
// notes).
type Builder struct {
	Options   *OptionsClient
	Stats     *StatsClient
	Liquidity *LiquidityClient
}

func NewBuilder(options *OptionsClient, stats *StatsClient, liquidity *LiquidityClient) *Builder {
	return &Builder{Options: options, Stats: stats, Liquidity: liquidity}
}

// Build launches all three fetches concurrently and waits for the shared
// deadline. A provider whose fetch hasn't returned by the deadline is
// abandoned in place (its goroutine may still be running; any late result is
// discarded) and its slot is filled with that provider's fallback — the
// build itself can never fail (spec.md §4.3).
func (b *Builder) Build(ctx context.Context, symbol string, deadline time.Duration) MarketContext {
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	optionsCh := make(chan OptionsData, 1)
	statsCh := make(chan MarketStats, 1)
	liquidityCh := make(chan LiquidityData, 1)

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		optionsCh <- b.Options.Fetch(ctx, symbol)
	}()
	go func() {
		defer wg.Done()
		statsCh <- b.Stats.Fetch(ctx, symbol)
	}()
	go func() {
		defer wg.Done()
		liquidityCh <- b.Liquidity.Fetch(ctx, symbol)
	}()

	// Release the waiters once all three goroutines land (success or their
	// own internal fallback) without blocking this call past ctx's deadline.
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	result := MarketContext{
		Options:   OptionsFallback(),
		Stats:     StatsFallback(),
		Liquidity: LiquidityFallback(),
	}

	remaining := 3
	for remaining > 0 {
		select {
		case v := <-optionsCh:
			result.Options = v
			remaining--
		case v := <-statsCh:
			result.Stats = v
			remaining--
		case v := <-liquidityCh:
			result.Liquidity = v
			remaining--
		case <-ctx.Done():
			// Per-request deadline hit: whatever hasn't reported yet keeps
			// its fallback default already set above. The abandoned
			// goroutines may still deliver to their buffered channels later;
			// nothing reads them again, so they are simply garbage collected.
			return result
		case <-done:
			// All three landed strictly before ctx.Done(); drain whichever
			// channels still have a value queued (there may be a benign race
			// between done closing and the last channel send being observed
			// by this select).
			for remaining > 0 {
				select {
				case v := <-optionsCh:
					result.Options = v
					remaining--
				case v := <-statsCh:
					result.Stats = v
					remaining--
				case v := <-liquidityCh:
					result.Liquidity = v
					remaining--
				default:
					remaining = 0
				}
			}
			return result
		}
	}

	return result
}
