package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/riskgate/internal/breaker"
	"github.com/sawpanic/riskgate/internal/candidate"
	"github.com/sawpanic/riskgate/internal/gates"
	"github.com/sawpanic/riskgate/internal/market"
	"github.com/sawpanic/riskgate/internal/store"
)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func newTestEngine(t *testing.T, options market.OptionsData, stats market.MarketStats, liquidity market.LiquidityData) *Engine {
	t.Helper()
	optClient := market.NewOptionsClient(50*time.Millisecond, 1000, 1000, noLimitBreakerCfg(), func(ctx context.Context, symbol string) (market.OptionsData, error) {
		return options, nil
	})
	statsClient := market.NewStatsClient(50*time.Millisecond, 1000, 1000, noLimitBreakerCfg(), func(ctx context.Context, symbol string) (market.MarketStats, error) {
		return stats, nil
	})
	liqClient := market.NewLiquidityClient(50*time.Millisecond, 1000, 1000, noLimitBreakerCfg(), func(ctx context.Context, symbol string) (market.LiquidityData, error) {
		return liquidity, nil
	})

	builder := market.NewBuilder(optClient, statsClient, liqClient)
	th := gates.Thresholds{MaxSpreadBps: 12.0, MaxVolatilityRatio: 2.0, MinPhaseAbs: 65}

	return New(builder, th, 200*time.Millisecond, store.NewTimeframeStore(), store.NewPhaseStore(), fixedClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func rawCandidate(signal string, aiScore float64, phase int, session string, symbol string) candidate.Raw {
	return candidate.Raw{
		Signal: &candidate.RawSignal{Type: signal, AIScore: aiScore, Symbol: symbol, Timestamp: nil},
		SatyPhase: &candidate.RawSatyPhase{Phase: phase},
		MarketSession: session,
	}
}

func TestDecideCleanApprove(t *testing.T) {
	e := newTestEngine(t,
		market.OptionsData{GammaBias: market.GammaNeutral},
		market.MarketStats{ATR14: 1.0, RV20: 1.0},
		market.LiquidityData{SpreadBps: 8},
	)

	out, err := e.Decide(context.Background(), rawCandidate("LONG", 7.5, 75, "OPEN", "SPY"))
	require.NoError(t, err)

	assert.Equal(t, Approve, out.Decision)
	require.NotNil(t, out.Direction)
	assert.Equal(t, candidate.SignalLong, *out.Direction)
	require.NotNil(t, out.Confidence)
	assert.Equal(t, 7.5, *out.Confidence)
	assert.Len(t, out.Gates.Passed, 5)
	assert.Empty(t, out.Gates.Failed)
	assert.Empty(t, out.Reasons)
	assert.Len(t, out.Audit.GateResults, 5)
}

func TestDecideBoostStacking(t *testing.T) {
	e := newTestEngine(t,
		market.OptionsData{GammaBias: market.GammaNeutral},
		market.MarketStats{ATR14: 1.0, RV20: 1.0},
		market.LiquidityData{SpreadBps: 3},
	)

	out, err := e.Decide(context.Background(), rawCandidate("LONG", 6.0, 85, "OPEN", "SPY"))
	require.NoError(t, err)

	assert.Equal(t, Approve, out.Decision)
	require.NotNil(t, out.Confidence)
	assert.InDelta(t, 6.8, *out.Confidence, 1e-9)
}

func TestDecideSpreadRejects(t *testing.T) {
	e := newTestEngine(t,
		market.OptionsData{GammaBias: market.GammaNeutral},
		market.MarketStats{ATR14: 1.0, RV20: 1.0},
		market.LiquidityData{SpreadBps: 15},
	)

	out, err := e.Decide(context.Background(), rawCandidate("LONG", 7.5, 75, "OPEN", "SPY"))
	require.NoError(t, err)

	assert.Equal(t, Reject, out.Decision)
	assert.Equal(t, []gates.Name{gates.NameSpread}, out.Gates.Failed)
	assert.Equal(t, []gates.Reason{gates.ReasonSpreadTooWide}, out.Reasons)
	assert.Nil(t, out.Direction)
	assert.Nil(t, out.Confidence)
}

func TestDecideMultiFailOrdered(t *testing.T) {
	e := newTestEngine(t,
		market.OptionsData{GammaBias: market.GammaNeutral},
		market.MarketStats{ATR14: 1.0, RV20: 1.0},
		market.LiquidityData{SpreadBps: 15},
	)

	out, err := e.Decide(context.Background(), rawCandidate("LONG", 7.5, 75, "AFTERHOURS", "SPY"))
	require.NoError(t, err)

	assert.Equal(t, []gates.Name{gates.NameSpread, gates.NameSession}, out.Gates.Failed)
	assert.Equal(t, []gates.Reason{gates.ReasonSpreadTooWide, gates.ReasonAfterhoursBlocked}, out.Reasons)
}

func TestDecideGammaHeadwind(t *testing.T) {
	e := newTestEngine(t,
		market.OptionsData{GammaBias: market.GammaNegative},
		market.MarketStats{ATR14: 1.0, RV20: 1.0},
		market.LiquidityData{SpreadBps: 8},
	)

	out, err := e.Decide(context.Background(), rawCandidate("LONG", 7.5, 75, "OPEN", "SPY"))
	require.NoError(t, err)

	assert.Equal(t, []gates.Reason{gates.ReasonGammaHeadwind}, out.Reasons)
}

func TestDecideNormalizationErrorBypassesEngine(t *testing.T) {
	e := newTestEngine(t, market.OptionsData{}, market.MarketStats{}, market.LiquidityData{})

	_, err := e.Decide(context.Background(), candidate.Raw{})
	require.Error(t, err)

	var verr *candidate.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestDecideAuditAlwaysFiveGateResultsInFixedOrder(t *testing.T) {
	e := newTestEngine(t,
		market.OptionsData{GammaBias: market.GammaNeutral},
		market.MarketStats{ATR14: 1.0, RV20: 1.0},
		market.LiquidityData{SpreadBps: 999},
	)

	out, err := e.Decide(context.Background(), rawCandidate("SHORT", 4.0, 30, "AFTERHOURS", "QQQ"))
	require.NoError(t, err)

	require.Len(t, out.Audit.GateResults, 5)
	names := make([]gates.Name, 5)
	for i, r := range out.Audit.GateResults {
		names[i] = r.Name
	}
	assert.Equal(t, []gates.Name{gates.NameSpread, gates.NameVolatility, gates.NameGamma, gates.NamePhase, gates.NameSession}, names)
}

func noLimitBreakerCfg() breaker.Config {
	return breaker.Config{ConsecutiveFailures: 1000, MinRequests: 1000, FailureRatio: 1.0, OpenTimeout: time.Second}
}

func TestDecideEnrichesAuditFromPriorTimeframeEntry(t *testing.T) {
	e := newTestEngine(t,
		market.OptionsData{GammaBias: market.GammaNeutral},
		market.MarketStats{ATR14: 1.0, RV20: 1.0},
		market.LiquidityData{SpreadBps: 8},
	)

	first, err := e.Decide(context.Background(), rawCandidate("LONG", 7.5, 75, "OPEN", "SPY"))
	require.NoError(t, err)
	assert.Nil(t, first.Audit.PriorTimeframeContext, "first decide on an empty slot sees no prior entry")

	second, err := e.Decide(context.Background(), rawCandidate("SHORT", 6.0, 80, "OPEN", "QQQ"))
	require.NoError(t, err)
	require.NotNil(t, second.Audit.PriorTimeframeContext, "second decide on the same default timeframe slot sees the first as prior")
	assert.Equal(t, "SPY", second.Audit.PriorTimeframeContext.Candidate.Symbol)

	// Enrichment never touches the gate/confidence outcome.
	assert.Equal(t, Approve, second.Decision)
	require.NotNil(t, second.Confidence)
}

func TestDecideIngestsAccompanyingPhaseUpdate(t *testing.T) {
	e := newTestEngine(t,
		market.OptionsData{GammaBias: market.GammaNeutral},
		market.MarketStats{ATR14: 1.0, RV20: 1.0},
		market.LiquidityData{SpreadBps: 8},
	)

	raw := rawCandidate("LONG", 7.5, 75, "OPEN", "SPY")
	raw.PhaseUpdate = &candidate.RawPhaseUpdate{TFRole: "entry", EventTF: "1H", Phase: 80, Confidence: 0.9}

	_, err := e.Decide(context.Background(), raw)
	require.NoError(t, err)

	stored, ok := e.phases.Get(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), store.PhaseKey{TFRole: "entry", EventTF: store.Event1H})
	require.True(t, ok)
	assert.Equal(t, 80, stored.Phase)
	assert.Equal(t, "SPY", stored.Symbol)
}

func TestDecideWithoutStoresSkipsIngestion(t *testing.T) {
	e := New(market.NewBuilder(
		market.NewOptionsClient(50*time.Millisecond, 1000, 1000, noLimitBreakerCfg(), func(ctx context.Context, symbol string) (market.OptionsData, error) {
			return market.OptionsData{GammaBias: market.GammaNeutral}, nil
		}),
		market.NewStatsClient(50*time.Millisecond, 1000, 1000, noLimitBreakerCfg(), func(ctx context.Context, symbol string) (market.MarketStats, error) {
			return market.MarketStats{ATR14: 1.0, RV20: 1.0}, nil
		}),
		market.NewLiquidityClient(50*time.Millisecond, 1000, 1000, noLimitBreakerCfg(), func(ctx context.Context, symbol string) (market.LiquidityData, error) {
			return market.LiquidityData{SpreadBps: 8}, nil
		}),
	), gates.Thresholds{MaxSpreadBps: 12.0, MaxVolatilityRatio: 2.0, MinPhaseAbs: 65}, 200*time.Millisecond, nil, nil, nil)

	out, err := e.Decide(context.Background(), rawCandidate("LONG", 7.5, 75, "OPEN", "SPY"))
	require.NoError(t, err)
	assert.Nil(t, out.Audit.PriorTimeframeContext)
}
