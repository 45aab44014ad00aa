package market

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sawpanic/riskgate/internal/breaker"
)

func noLimitBreaker() breaker.Config {
	return breaker.Config{ConsecutiveFailures: 1000, MinRequests: 1000000, FailureRatio: 1.0, OpenTimeout: time.Second}
}

func TestBuilderAllProvidersSucceed(t *testing.T) {
	oc := NewOptionsClient(50*time.Millisecond, 1000, 1000, noLimitBreaker(), func(ctx context.Context, symbol string) (OptionsData, error) {
		return OptionsData{PutCallRatio: 0.8, IVPercentile: 40, GammaBias: GammaNeutral}, nil
	})
	sc := NewStatsClient(50*time.Millisecond, 1000, 1000, noLimitBreaker(), func(ctx context.Context, symbol string) (MarketStats, error) {
		return MarketStats{ATR14: 1.2, RV20: 1.0, TrendSlope: 0.1}, nil
	})
	lc := NewLiquidityClient(50*time.Millisecond, 1000, 1000, noLimitBreaker(), func(ctx context.Context, symbol string) (LiquidityData, error) {
		return LiquidityData{SpreadBps: 8, DepthScore: 80, TradeVelocity: VelocityNormal}, nil
	})

	b := NewBuilder(oc, sc, lc)
	ctx := context.Background()
	mc := b.Build(ctx, "SPY", 200*time.Millisecond)

	assert.Equal(t, SourceAPI, mc.Options.DataSource)
	assert.Equal(t, SourceAPI, mc.Stats.DataSource)
	assert.Equal(t, SourceAPI, mc.Liquidity.DataSource)
	assert.Equal(t, 8.0, mc.Liquidity.SpreadBps)
}

func TestBuilderProviderErrorFallsBack(t *testing.T) {
	oc := NewOptionsClient(50*time.Millisecond, 1000, 1000, noLimitBreaker(), func(ctx context.Context, symbol string) (OptionsData, error) {
		return OptionsData{}, errors.New("boom")
	})
	sc := NewStatsClient(50*time.Millisecond, 1000, 1000, noLimitBreaker(), func(ctx context.Context, symbol string) (MarketStats, error) {
		return MarketStats{ATR14: 1.0, RV20: 1.0}, nil
	})
	lc := NewLiquidityClient(50*time.Millisecond, 1000, 1000, noLimitBreaker(), func(ctx context.Context, symbol string) (LiquidityData, error) {
		return LiquidityData{SpreadBps: 8, DepthScore: 80, TradeVelocity: VelocityNormal}, nil
	})

	b := NewBuilder(oc, sc, lc)
	mc := b.Build(context.Background(), "SPY", 200*time.Millisecond)

	assert.Equal(t, SourceFallback, mc.Options.DataSource)
	assert.Equal(t, GammaNeutral, mc.Options.GammaBias)
	assert.Equal(t, SourceAPI, mc.Liquidity.DataSource)
}

func TestBuilderDeadlineMissFallsBack(t *testing.T) {
	slow := func(ctx context.Context, symbol string) (LiquidityData, error) {
		select {
		case <-time.After(time.Second):
			return LiquidityData{SpreadBps: 1}, nil
		case <-ctx.Done():
			return LiquidityData{}, ctx.Err()
		}
	}
	oc := NewOptionsClient(500*time.Millisecond, 1000, 1000, noLimitBreaker(), func(ctx context.Context, symbol string) (OptionsData, error) {
		return OptionsData{PutCallRatio: 1}, nil
	})
	sc := NewStatsClient(500*time.Millisecond, 1000, 1000, noLimitBreaker(), func(ctx context.Context, symbol string) (MarketStats, error) {
		return MarketStats{ATR14: 1}, nil
	})
	lc := NewLiquidityClient(500*time.Millisecond, 1000, 1000, noLimitBreaker(), slow)

	b := NewBuilder(oc, sc, lc)
	mc := b.Build(context.Background(), "SPY", 30*time.Millisecond)

	assert.Equal(t, SourceFallback, mc.Liquidity.DataSource)
	assert.Equal(t, 999.0, mc.Liquidity.SpreadBps)
}
