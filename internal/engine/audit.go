package engine

import (
	"time"

	"github.com/sawpanic/riskgate/internal/candidate"
	"github.com/sawpanic/riskgate/internal/gates"
	"github.com/sawpanic/riskgate/internal/market"
	"github.com/sawpanic/riskgate/internal/store"
)

// buildAudit assembles the immutable audit record for one decide call
// (spec.md §3 "AuditTrail", §4.8 step 6). The candidate and context are
// cloned so no later mutation of the caller's values can reach the record.
// prior is the TimeframeStore entry observed in this candidate's slot before
// this call's own Put, or nil if the slot was empty/expired.
func buildAudit(c candidate.Candidate, mctx market.MarketContext, gateResults []gates.GateResult, prior *store.StoredSignal, start, end time.Time) AuditTrail {
	return AuditTrail{
		Timestamp:             start.UTC(),
		Symbol:                c.Symbol,
		Session:               c.MarketSession,
		Candidate:             c.Clone(),
		Context:               mctx.Clone(),
		GateResults:           append([]gates.GateResult(nil), gateResults...),
		ProcessingTimeMs:      end.Sub(start).Milliseconds(),
		PriorTimeframeContext: prior,
	}
}
