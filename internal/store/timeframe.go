package store

import (
	"time"

	"github.com/sawpanic/riskgate/internal/candidate"
)

// StoredSignal is a TimeframeStore entry's payload (spec.md §3).
type StoredSignal struct {
	Candidate       candidate.Candidate `json:"candidate"`
	ReceivedAt      time.Time           `json:"received_at"`
	ExpiresAt       time.Time           `json:"expires_at"`
	ValidityMinutes float64             `json:"validity_minutes"`
	// ValidityBreakdown is C5's diagnostic trace for ValidityMinutes (spec.md
	// §4.5), retained so it can be surfaced read-only via the health/metrics
	// view instead of being discarded at computation time.
	ValidityBreakdown Breakdown `json:"validity_breakdown"`
}

// TimeframeStore holds the latest signal per Timeframe slot, with
// quality-priority conflict resolution (spec.md §4.4).
type TimeframeStore struct {
	core *core[Timeframe, StoredSignal]
}

func NewTimeframeStore() *TimeframeStore {
	return &TimeframeStore{core: newCore[Timeframe, StoredSignal]()}
}

// Put inserts c under tf if the slot is vacant/expired or c's quality
// strictly exceeds the incumbent's. Returns the entry now stored in the slot
// (the new one if replaced, the incumbent if rejected) and whether the
// insert happened.
func (s *TimeframeStore) Put(now time.Time, tf Timeframe, quality Quality, c candidate.Candidate, session candidate.MarketSession) (StoredSignal, bool) {
	validityMin, breakdown := Calculate(tf, quality, session)
	validity := time.Duration(validityMin * float64(time.Minute))

	entry := StoredSignal{
		Candidate:         c,
		ReceivedAt:        now,
		ExpiresAt:         now.Add(validity),
		ValidityMinutes:   validityMin,
		ValidityBreakdown: breakdown,
	}

	stored, inserted := s.core.put(now, tf, int64(quality), entry, validity)
	return stored, inserted
}

func (s *TimeframeStore) Get(now time.Time, tf Timeframe) (StoredSignal, bool) {
	return s.core.get(now, tf)
}

func (s *TimeframeStore) GetAllActive(now time.Time) map[Timeframe]StoredSignal {
	return s.core.getAllActive(now)
}

func (s *TimeframeStore) Sweep(now time.Time) int {
	return s.core.sweep(now)
}

func (s *TimeframeStore) Remaining(now time.Time, tf Timeframe) time.Duration {
	return s.core.remaining(now, tf)
}

func (s *TimeframeStore) Clear() {
	s.core.clear()
}
