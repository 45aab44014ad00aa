package store

import (
	"sync/atomic"
	"time"
)

// PhaseKey identifies a phase slot by timeframe role and event timeframe
// (spec.md §3 "PhaseStore keyed by (tf_role, event_tf)").
type PhaseKey struct {
	TFRole  string
	EventTF EventTimeframe
}

// StoredPhase is a PhaseStore entry's payload.
type StoredPhase struct {
	Phase        int
	Confidence   float64
	Symbol       string
	RiskHints    map[string]string
	ReceivedAt   time.Time
	ExpiresAt    time.Time
	DecayMinutes float64
}

// PhaseStore holds the latest phase event per (tf_role, event_tf) slot.
// Phase updates carry no quality signal of their own (unlike signals), so
// every new update for a slot supersedes the prior one outright: this is
// modeled on the same quality-priority core as TimeframeStore by handing
// each Put a strictly increasing sequence number as its "quality", which
// always beats whatever came before (see DESIGN.md Open Question decisions).
type PhaseStore struct {
	core *core[PhaseKey, StoredPhase]
	seq  int64
}

func NewPhaseStore() *PhaseStore {
	return &PhaseStore{core: newCore[PhaseKey, StoredPhase]()}
}

// Put inserts a phase event, always superseding any current entry for the
// same slot. decayOverride is the phase's own time_decay_minutes if present
// (0 means "use the event-timeframe table").
func (s *PhaseStore) Put(now time.Time, key PhaseKey, phase int, confidence float64, symbol string, riskHints map[string]string, decayOverride time.Duration) StoredPhase {
	decay := PhaseDecay(key.EventTF, decayOverride)

	entry := StoredPhase{
		Phase:        phase,
		Confidence:   confidence,
		Symbol:       symbol,
		RiskHints:    riskHints,
		ReceivedAt:   now,
		ExpiresAt:    now.Add(decay),
		DecayMinutes: decay.Minutes(),
	}

	seq := atomic.AddInt64(&s.seq, 1)
	stored, _ := s.core.put(now, key, seq, entry, decay)
	return stored
}

func (s *PhaseStore) Get(now time.Time, key PhaseKey) (StoredPhase, bool) {
	return s.core.get(now, key)
}

func (s *PhaseStore) GetAllActive(now time.Time) map[PhaseKey]StoredPhase {
	return s.core.getAllActive(now)
}

func (s *PhaseStore) Sweep(now time.Time) int {
	return s.core.sweep(now)
}

func (s *PhaseStore) Remaining(now time.Time, key PhaseKey) time.Duration {
	return s.core.remaining(now, key)
}

func (s *PhaseStore) Clear() {
	s.core.clear()
}
