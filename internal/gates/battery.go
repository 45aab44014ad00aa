// Package gates implements C6, the fixed-order battery of risk predicates run
// against a normalized candidate and its market context. Grounded on the
// teacher's internal/gates/entry.go GateCheck/EntryGateResult pattern
// (map of named checks with Value/Threshold/Description), adapted here to
// the spec's exact five gates, fixed order, and no-short-circuit evaluation.
package gates

import (
	"math"

	"github.com/sawpanic/riskgate/internal/candidate"
	"github.com/sawpanic/riskgate/internal/market"
)

// Name identifies one of the five fixed-order gates.
type Name string

const (
	NameSpread     Name = "SPREAD_GATE"
	NameVolatility Name = "VOLATILITY_GATE"
	NameGamma      Name = "GAMMA_GATE"
	NamePhase      Name = "PHASE_GATE"
	NameSession    Name = "SESSION_GATE"
)

// Reason is the canonical failure code attached to a failed GateResult.
type Reason string

const (
	ReasonSpreadTooWide      Reason = "SPREAD_TOO_WIDE"
	ReasonVolatilitySpike    Reason = "VOLATILITY_SPIKE"
	ReasonGammaHeadwind      Reason = "GAMMA_HEADWIND"
	ReasonPhaseConfidenceLow Reason = "PHASE_CONFIDENCE_LOW"
	ReasonAfterhoursBlocked  Reason = "AFTERHOURS_BLOCKED"
)

// GateResult is the outcome of one gate evaluation (spec.md §3 "GateResult").
// Reason is present iff Passed is false.
type GateResult struct {
	Name      Name    `json:"gate_name"`
	Passed    bool    `json:"passed"`
	Reason    Reason  `json:"reason,omitempty"`
	Value     float64 `json:"value,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
}

// Thresholds are the fixed numeric bounds the battery checks against. These
// come from frozen configuration (C10) rather than being hardcoded so an
// operator can retune them without a code change; defaults match spec.md §4.6.
type Thresholds struct {
	MaxSpreadBps       float64
	MaxVolatilityRatio float64
	MinPhaseAbs        float64
}

// Result is the full battery output for one decide call: the ordered list of
// all five GateResults (always length 5, spec.md invariant 2/P2) plus the
// passed/failed name partition.
type Result struct {
	Ordered []GateResult
	Passed  []Name
	Failed  []Name
}

// Evaluate runs all five gates in fixed order, unconditionally (no
// short-circuit — spec.md §4.6 "All five are always evaluated").
func Evaluate(c candidate.Candidate, ctx market.MarketContext, th Thresholds) Result {
	ordered := []GateResult{
		spreadGate(ctx, th),
		volatilityGate(ctx, th),
		gammaGate(c, ctx),
		phaseGate(c, th),
		sessionGate(c),
	}

	var passed, failed []Name
	for _, r := range ordered {
		if r.Passed {
			passed = append(passed, r.Name)
		} else {
			failed = append(failed, r.Name)
		}
	}

	return Result{Ordered: ordered, Passed: passed, Failed: failed}
}

func spreadGate(ctx market.MarketContext, th Thresholds) GateResult {
	spread := ctx.Liquidity.SpreadBps
	passed := spread <= th.MaxSpreadBps
	res := GateResult{Name: NameSpread, Passed: passed, Value: spread, Threshold: th.MaxSpreadBps}
	if !passed {
		res.Reason = ReasonSpreadTooWide
	}
	return res
}

func volatilityGate(ctx market.MarketContext, th Thresholds) GateResult {
	atr := nanToZero(ctx.Stats.ATR14)
	rv := nanToZero(ctx.Stats.RV20)

	ratio := 1.0
	if rv > 0 {
		ratio = atr / rv
	}

	passed := ratio <= th.MaxVolatilityRatio
	res := GateResult{Name: NameVolatility, Passed: passed, Value: ratio, Threshold: th.MaxVolatilityRatio}
	if !passed {
		res.Reason = ReasonVolatilitySpike
	}
	return res
}

func gammaGate(c candidate.Candidate, ctx market.MarketContext) GateResult {
	bias := ctx.Options.GammaBias
	fail := (c.SignalType == candidate.SignalLong && bias == market.GammaNegative) ||
		(c.SignalType == candidate.SignalShort && bias == market.GammaPositive)

	res := GateResult{Name: NameGamma, Passed: !fail}
	if fail {
		res.Reason = ReasonGammaHeadwind
	}
	return res
}

func phaseGate(c candidate.Candidate, th Thresholds) GateResult {
	abs := math.Abs(float64(c.SatyPhase))
	passed := abs >= th.MinPhaseAbs
	res := GateResult{Name: NamePhase, Passed: passed, Value: abs, Threshold: th.MinPhaseAbs}
	if !passed {
		res.Reason = ReasonPhaseConfidenceLow
	}
	return res
}

func sessionGate(c candidate.Candidate) GateResult {
	switch c.MarketSession {
	case candidate.SessionOpen, candidate.SessionMidday, candidate.SessionPowerHour:
		return GateResult{Name: NameSession, Passed: true}
	default:
		return GateResult{Name: NameSession, Passed: false, Reason: ReasonAfterhoursBlocked}
	}
}

func nanToZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
