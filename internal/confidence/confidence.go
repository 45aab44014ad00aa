// Package confidence implements C7, the bounded confidence score computed
// from candidate fields once the gate battery has fully passed. Grounded on
// the teacher's scoring-weights pattern (internal/domain/scoring composite
// score assembly: base score plus additive boosts, single clamp at the end).
package confidence

import "github.com/sawpanic/riskgate/internal/candidate"

const (
	phaseBoostThreshold  = 80.0
	phaseBoost           = 0.5
	spreadBoostThreshold = 5.0
	spreadBoost          = 0.3

	minConfidence = 0.0
	maxConfidence = 10.0
)

// Compute returns the assembled confidence for a candidate that has passed
// every gate, given the spread in bps that fed the spread gate (spec.md
// §4.7). The result is clamped once, after all additive terms.
func Compute(c candidate.Candidate, spreadBps float64) float64 {
	score := c.AIScore

	if absInt(c.SatyPhase) >= int(phaseBoostThreshold) {
		score += phaseBoost
	}
	if spreadBps <= spreadBoostThreshold {
		score += spreadBoost
	}

	switch {
	case score < minConfidence:
		return minConfidence
	case score > maxConfidence:
		return maxConfidence
	default:
		return score
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
