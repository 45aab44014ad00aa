package gates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/riskgate/internal/candidate"
	"github.com/sawpanic/riskgate/internal/market"
)

func defaultThresholds() Thresholds {
	return Thresholds{MaxSpreadBps: 12.0, MaxVolatilityRatio: 2.0, MinPhaseAbs: 65}
}

func cleanContext() market.MarketContext {
	return market.MarketContext{
		Options:   market.OptionsData{GammaBias: market.GammaNeutral},
		Stats:     market.MarketStats{ATR14: 1.0, RV20: 1.0},
		Liquidity: market.LiquidityData{SpreadBps: 8},
	}
}

func TestEvaluateAllPass(t *testing.T) {
	c := candidate.Candidate{SignalType: candidate.SignalLong, SatyPhase: 75, MarketSession: candidate.SessionOpen}
	res := Evaluate(c, cleanContext(), defaultThresholds())

	require.Len(t, res.Ordered, 5)
	assert.Len(t, res.Passed, 5)
	assert.Empty(t, res.Failed)
	assert.Equal(t, []Name{NameSpread, NameVolatility, NameGamma, NamePhase, NameSession}, namesOf(res.Ordered))
}

func namesOf(rs []GateResult) []Name {
	out := make([]Name, len(rs))
	for i, r := range rs {
		out[i] = r.Name
	}
	return out
}

func TestSpreadGateRejects(t *testing.T) {
	c := candidate.Candidate{SignalType: candidate.SignalLong, SatyPhase: 75, MarketSession: candidate.SessionOpen}
	ctx := cleanContext()
	ctx.Liquidity.SpreadBps = 15

	res := Evaluate(c, ctx, defaultThresholds())
	assert.Equal(t, []Name{NameSpread}, res.Failed)
	assert.Equal(t, ReasonSpreadTooWide, res.Ordered[0].Reason)
}

func TestMultiFailOrderPreserved(t *testing.T) {
	c := candidate.Candidate{SignalType: candidate.SignalLong, SatyPhase: 75, MarketSession: candidate.SessionAfterhours}
	ctx := cleanContext()
	ctx.Liquidity.SpreadBps = 15

	res := Evaluate(c, ctx, defaultThresholds())
	assert.Equal(t, []Name{NameSpread, NameSession}, res.Failed)
}

func TestGammaHeadwindLongNegative(t *testing.T) {
	c := candidate.Candidate{SignalType: candidate.SignalLong, SatyPhase: 75, MarketSession: candidate.SessionOpen}
	ctx := cleanContext()
	ctx.Options.GammaBias = market.GammaNegative

	res := Evaluate(c, ctx, defaultThresholds())
	assert.Equal(t, []Name{NameGamma}, res.Failed)
}

func TestGammaHeadwindShortPositive(t *testing.T) {
	c := candidate.Candidate{SignalType: candidate.SignalShort, SatyPhase: 75, MarketSession: candidate.SessionOpen}
	ctx := cleanContext()
	ctx.Options.GammaBias = market.GammaPositive

	res := Evaluate(c, ctx, defaultThresholds())
	assert.Equal(t, []Name{NameGamma}, res.Failed)
}

func TestGammaPassesOppositeDirection(t *testing.T) {
	c := candidate.Candidate{SignalType: candidate.SignalLong, SatyPhase: 75, MarketSession: candidate.SessionOpen}
	ctx := cleanContext()
	ctx.Options.GammaBias = market.GammaPositive

	res := Evaluate(c, ctx, defaultThresholds())
	assert.Empty(t, res.Failed)
}

func TestVolatilityNaNOperandsTreatedAsZero(t *testing.T) {
	c := candidate.Candidate{SignalType: candidate.SignalLong, SatyPhase: 75, MarketSession: candidate.SessionOpen}
	ctx := cleanContext()
	ctx.Stats.ATR14 = nan()
	ctx.Stats.RV20 = nan()

	res := Evaluate(c, ctx, defaultThresholds())
	assert.Empty(t, res.Failed) // rv=0 -> ratio defaults to 1.0, passes
}

func TestVolatilitySpike(t *testing.T) {
	c := candidate.Candidate{SignalType: candidate.SignalLong, SatyPhase: 75, MarketSession: candidate.SessionOpen}
	ctx := cleanContext()
	ctx.Stats.ATR14 = 3.0
	ctx.Stats.RV20 = 1.0

	res := Evaluate(c, ctx, defaultThresholds())
	assert.Equal(t, []Name{NameVolatility}, res.Failed)
}

func TestPhaseGateLowConfidence(t *testing.T) {
	c := candidate.Candidate{SignalType: candidate.SignalLong, SatyPhase: 40, MarketSession: candidate.SessionOpen}
	res := Evaluate(c, cleanContext(), defaultThresholds())
	assert.Equal(t, []Name{NamePhase}, res.Failed)
}

func TestSessionGateAfterhoursBlocked(t *testing.T) {
	c := candidate.Candidate{SignalType: candidate.SignalLong, SatyPhase: 75, MarketSession: candidate.SessionAfterhours}
	res := Evaluate(c, cleanContext(), defaultThresholds())
	assert.Equal(t, []Name{NameSession}, res.Failed)
	assert.Equal(t, ReasonAfterhoursBlocked, res.Ordered[4].Reason)
}

func nan() float64 {
	var zero float64
	return zero / zero
}
