package engine

import (
	"time"

	"github.com/sawpanic/riskgate/internal/candidate"
	"github.com/sawpanic/riskgate/internal/gates"
	"github.com/sawpanic/riskgate/internal/market"
	"github.com/sawpanic/riskgate/internal/store"
)

// Verdict is the engine's sole externally observable contract (spec.md §3
// "Decision Output"). Exactly one of (Direction, Confidence) or (Reasons) is
// populated, mirroring APPROVE/REJECT.
type Verdict string

const (
	Approve Verdict = "APPROVE"
	Reject  Verdict = "REJECT"
)

// GatesSummary is the passed/failed name partition attached to every
// DecisionOutput (spec.md invariant 1: their union is always all five names,
// their intersection always empty).
type GatesSummary struct {
	Passed []gates.Name `json:"passed"`
	Failed []gates.Name `json:"failed"`
}

// AuditTrail is the immutable record attached to every decision (spec.md §3
// "AuditTrail", §4.6 invariant 2: GateResults always length 5 in fixed order).
type AuditTrail struct {
	Timestamp        time.Time               `json:"timestamp"`
	Symbol           string                  `json:"symbol"`
	Session          candidate.MarketSession `json:"session"`
	Candidate        candidate.Candidate     `json:"candidate"`
	Context          market.MarketContext    `json:"context"`
	GateResults      []gates.GateResult      `json:"gate_results"`
	ProcessingTimeMs int64                   `json:"processing_time_ms"`
	// PriorTimeframeContext is the TimeframeStore entry this candidate's slot
	// held before this decide call wrote its own entry (spec.md §2: "the TTL
	// stores … are read by C8 when enriching a candidate with prior timeframe
	// context"). Nil when the slot was empty or expired.
	PriorTimeframeContext *store.StoredSignal `json:"prior_timeframe_context,omitempty"`
}

// DecisionOutput is C8's full return value (spec.md §3 "Decision Output").
// Direction and Confidence are pointers so their JSON presence matches
// invariant 3 exactly (present iff Decision == Approve) rather than relying
// on a zero value that could be mistaken for a real reading.
type DecisionOutput struct {
	Decision      Verdict               `json:"decision"`
	EngineVersion string                `json:"engine_version"`
	Gates         GatesSummary          `json:"gates"`
	Direction     *candidate.SignalType `json:"direction,omitempty"`
	Confidence    *float64              `json:"confidence,omitempty"`
	Reasons       []gates.Reason        `json:"reasons,omitempty"`
	Audit         AuditTrail            `json:"audit"`
}
