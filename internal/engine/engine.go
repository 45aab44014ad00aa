// Package engine implements C8, the decision orchestrator that wires C1
// (normalize) through C3 (market context), C6 (gate battery) and C7
// (confidence) into a single deterministic verdict plus audit record.
// Grounded on the teacher's internal/gates/api.go GateOrchestrator: a thin
// composition type holding its collaborators, with a single evaluation
// entry point returning one aggregate result and a stable report.
package engine

import (
	"context"
	"time"

	"github.com/sawpanic/riskgate/internal/candidate"
	"github.com/sawpanic/riskgate/internal/confidence"
	"github.com/sawpanic/riskgate/internal/gates"
	"github.com/sawpanic/riskgate/internal/market"
	"github.com/sawpanic/riskgate/internal/store"
)

// EngineVersion is embedded in every DecisionOutput (spec.md §3). Bumped on
// any change to gate semantics, confidence formula, or audit shape.
const EngineVersion = "riskgate-1.0.0"

// Clock is injected so tests control wall-clock timestamps and elapsed time.
type Clock func() time.Time

// Engine orchestrates one decide call end to end (C8, spec.md §4.8).
type Engine struct {
	builder    *market.Builder
	thresholds gates.Thresholds
	deadline   time.Duration
	clock      Clock
	timeframes *store.TimeframeStore
	phases     *store.PhaseStore
}

func New(builder *market.Builder, thresholds gates.Thresholds, providerDeadline time.Duration, timeframes *store.TimeframeStore, phases *store.PhaseStore, clock Clock) *Engine {
	if clock == nil {
		clock = time.Now
	}
	return &Engine{
		builder:    builder,
		thresholds: thresholds,
		deadline:   providerDeadline,
		timeframes: timeframes,
		phases:     phases,
		clock:      clock,
	}
}

// Decide runs the full pipeline: normalize the raw payload, fetch market
// context under the provider deadline, run the gate battery unconditionally,
// assemble confidence on an all-pass result, and produce the audit record
// (spec.md §4.8 steps 1-7). A normalization failure is returned as-is
// (*candidate.ValidationError) and never reaches the gate battery.
//
// The TTL stores (C4) are written by this same call: the normalized candidate
// is ingested into its TimeframeStore slot, and an accompanying phase update
// (if present) is ingested into PhaseStore, per spec.md §2 ("written by the
// phase/signal ingest path and read by C8 when enriching a candidate with
// prior timeframe context"). Neither gates nor confidence are affected by
// this enrichment; it is attached to the audit record for observability.
func (e *Engine) Decide(ctx context.Context, raw candidate.Raw) (DecisionOutput, error) {
	start := e.clock()

	c, err := candidate.Normalize(raw, start)
	if err != nil {
		return DecisionOutput{}, err
	}

	mctx := e.builder.Build(ctx, c.Symbol, e.deadline)

	result := gates.Evaluate(c, mctx, e.thresholds)

	out := DecisionOutput{
		EngineVersion: EngineVersion,
		Gates:         GatesSummary{Passed: result.Passed, Failed: result.Failed},
	}

	if len(result.Failed) > 0 {
		out.Decision = Reject
		out.Reasons = reasonsInOrder(result.Ordered)
	} else {
		out.Decision = Approve
		direction := c.SignalType
		conf := confidence.Compute(c, mctx.Liquidity.SpreadBps)
		out.Direction = &direction
		out.Confidence = &conf
	}

	prior := e.ingestTimeframe(start, c)
	e.ingestPhase(start, c, raw.PhaseUpdate)

	out.Audit = buildAudit(c, mctx, result.Ordered, prior, start, e.clock())
	return out, nil
}

// ingestTimeframe reads the prior entry in c's TimeframeStore slot (for audit
// enrichment) and then writes c into that slot under its own quality.
func (e *Engine) ingestTimeframe(now time.Time, c candidate.Candidate) *store.StoredSignal {
	if e.timeframes == nil {
		return nil
	}

	tf := store.Timeframe(c.Timeframe)
	var prior *store.StoredSignal
	if existing, ok := e.timeframes.Get(now, tf); ok {
		p := existing
		prior = &p
	}

	e.timeframes.Put(now, tf, qualityFor(c.Quality), c, c.MarketSession)
	return prior
}

// ingestPhase writes an accompanying phase/regime event into PhaseStore, if
// the candidate's boundary payload carried one.
func (e *Engine) ingestPhase(now time.Time, c candidate.Candidate, update *candidate.RawPhaseUpdate) {
	if e.phases == nil || update == nil {
		return
	}

	key := store.PhaseKey{TFRole: update.TFRole, EventTF: store.EventTimeframe(update.EventTF)}
	var decayOverride time.Duration
	if update.TimeDecayMinutes > 0 {
		decayOverride = time.Duration(update.TimeDecayMinutes * float64(time.Minute))
	}

	e.phases.Put(now, key, update.Phase, update.Confidence, c.Symbol, update.RiskHints, decayOverride)
}

func qualityFor(q string) store.Quality {
	switch q {
	case "HIGH":
		return store.QualityHigh
	case "EXTREME":
		return store.QualityExtreme
	default:
		return store.QualityMedium
	}
}

func reasonsInOrder(ordered []gates.GateResult) []gates.Reason {
	var reasons []gates.Reason
	for _, r := range ordered {
		if !r.Passed {
			reasons = append(reasons, r.Reason)
		}
	}
	return reasons
}
