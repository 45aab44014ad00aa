package store

import (
	"time"

	"github.com/sawpanic/riskgate/internal/candidate"
)

// Quality is the conflict-resolution priority for stored signals (spec.md
// §4.4 "Quality priority"). Higher values win strictly; ties favor the
// incumbent.
type Quality int64

const (
	QualityMedium  Quality = 1
	QualityHigh    Quality = 2
	QualityExtreme Quality = 3
)

// Timeframe is one of the six admissible signal timeframes, in minutes.
type Timeframe int

const (
	TF3   Timeframe = 3
	TF5   Timeframe = 5
	TF15  Timeframe = 15
	TF30  Timeframe = 30
	TF60  Timeframe = 60
	TF240 Timeframe = 240
)

// ClampReason records which bound (if any) clipped the raw validity product.
type ClampReason string

const (
	ClampNone ClampReason = "none"
	ClampMin  ClampReason = "min"
	ClampMax  ClampReason = "max"
)

// Breakdown is the diagnostic trace behind a validity computation (C5,
// spec.md §4.5), surfaced read-only via the health/metrics view.
type Breakdown struct {
	BaseTF      float64     `json:"base_tf"`
	RoleMult    float64     `json:"role_mult"`
	QualityMult float64     `json:"quality_mult"`
	SessionMult float64     `json:"session_mult"`
	RawProduct  float64     `json:"raw_product"`
	ClampedTo   float64     `json:"clamped_to"`
	ClampReason ClampReason `json:"clamp_reason"`
}

// Calculate returns the validity window in minutes and its breakdown for a
// signal at the given timeframe, quality and market session (spec.md §4.4
// "Validity (signals)"). The result is always clamped to [baseTF, 720].
func Calculate(tf Timeframe, quality Quality, session candidate.MarketSession) (float64, Breakdown) {
	base := float64(tf)
	roleMult := roleMultiplier(tf)
	qualityMult := qualityMultiplier(quality)
	sessionMult := sessionMultiplier(session)

	raw := base * roleMult * qualityMult * sessionMult

	clamped := raw
	reason := ClampNone
	switch {
	case raw < base:
		clamped = base
		reason = ClampMin
	case raw > 720:
		clamped = 720
		reason = ClampMax
	}

	return clamped, Breakdown{
		BaseTF:      base,
		RoleMult:    roleMult,
		QualityMult: qualityMult,
		SessionMult: sessionMult,
		RawProduct:  raw,
		ClampedTo:   clamped,
		ClampReason: reason,
	}
}

func roleMultiplier(tf Timeframe) float64 {
	switch tf {
	case TF240:
		return 2.0
	case TF60:
		return 1.5
	default:
		return 1.0
	}
}

func qualityMultiplier(q Quality) float64 {
	switch q {
	case QualityExtreme:
		return 1.5
	case QualityHigh:
		return 1.0
	default:
		return 0.75
	}
}

func sessionMultiplier(s candidate.MarketSession) float64 {
	switch s {
	case candidate.SessionOpen:
		return 0.8
	case candidate.SessionMidday:
		return 1.0
	case candidate.SessionPowerHour:
		return 0.7
	case candidate.SessionAfterhours:
		return 0.5
	default:
		return 1.0
	}
}

// EventTimeframe identifies the phase event's own timeframe, used to look up
// its decay table entry (spec.md §4.4 "Decay (phases)").
type EventTimeframe string

const (
	Event4H  EventTimeframe = "4H"
	Event1H  EventTimeframe = "1H"
	Event30M EventTimeframe = "30M"
	Event15M EventTimeframe = "15M"
	Event5M  EventTimeframe = "5M"
	Event3M  EventTimeframe = "3M"
)

var phaseDecayTable = map[EventTimeframe]time.Duration{
	Event4H:  480 * time.Minute,
	Event1H:  240 * time.Minute,
	Event30M: 120 * time.Minute,
	Event15M: 60 * time.Minute,
	Event5M:  30 * time.Minute,
	Event3M:  15 * time.Minute,
}

// PhaseDecay returns the decay window for a phase event, honoring an
// explicit override if the phase carries its own time_decay_minutes
// (spec.md §4.4). A zero override means "no override provided".
func PhaseDecay(eventTF EventTimeframe, override time.Duration) time.Duration {
	if override > 0 {
		return override
	}
	if d, ok := phaseDecayTable[eventTF]; ok {
		return d
	}
	return 60 * time.Minute
}
