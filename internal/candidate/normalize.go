package candidate

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// RawSignal mirrors the upstream `signal` object before normalization. Fields
// are typed `any` on purpose: values may arrive from an ad-hoc JSON adapter as
// strings, floats, or the wrong type entirely, and C1's job is to detect that
// before the engine ever sees a Candidate.
type RawSignal struct {
	Type      any `json:"type"`
	AIScore   any `json:"ai_score"`
	Symbol    any `json:"symbol"`
	Timestamp any `json:"timestamp,omitempty"`
	// Timeframe and Quality are the signal's TimeframeStore coordinates
	// (spec.md §4.4): which of the six admissible slots it occupies and its
	// conflict-resolution priority. Both default rather than reject on
	// absence or wrong shape, matching the rest of C1's optional fields.
	Timeframe any `json:"timeframe,omitempty"`
	Quality   any `json:"quality,omitempty"`
}

type RawSatyPhase struct {
	Phase any `json:"phase"`
}

// RawPhaseUpdate mirrors the upstream regime/phase event that populates
// PhaseStore (spec.md §6.1 item 2), carried alongside (not instead of) the
// signal's own embedded satyPhase gate input.
type RawPhaseUpdate struct {
	TFRole           string            `json:"tf_role"`
	EventTF          string            `json:"event_tf"`
	Phase            int               `json:"phase"`
	Confidence       float64           `json:"confidence,omitempty"`
	RiskHints        map[string]string `json:"risk_hints,omitempty"`
	TimeDecayMinutes float64           `json:"time_decay_minutes,omitempty"`
}

// Raw is the full pre-normalization input crossing the boundary (spec.md §6.1).
type Raw struct {
	Signal        *RawSignal      `json:"signal"`
	SatyPhase     *RawSatyPhase   `json:"satyPhase,omitempty"`
	MarketSession any             `json:"marketSession,omitempty"`
	PhaseUpdate   *RawPhaseUpdate `json:"phaseUpdate,omitempty"`
}

// Normalize converts raw into a well-typed Candidate, clamping out-of-range
// numeric fields and defaulting absent optional fields, per the table in
// spec.md §4.1. now is the wall clock used when Timestamp is absent.
func Normalize(raw Raw, now time.Time) (Candidate, error) {
	if raw.Signal == nil {
		return Candidate{}, &ValidationError{Code: CodeMissingField, Field: "signal", Message: "signal object is required"}
	}

	sigType, err := normalizeSignalType(raw.Signal.Type)
	if err != nil {
		return Candidate{}, err
	}

	symbol, err := normalizeSymbol(raw.Signal.Symbol)
	if err != nil {
		return Candidate{}, err
	}

	aiScore, err := normalizeAIScore(raw.Signal.AIScore)
	if err != nil {
		return Candidate{}, err
	}

	ts, err := normalizeTimestamp(raw.Signal.Timestamp, now)
	if err != nil {
		return Candidate{}, err
	}

	phase, err := normalizePhase(raw.SatyPhase)
	if err != nil {
		return Candidate{}, err
	}

	session, err := normalizeSession(raw.MarketSession)
	if err != nil {
		return Candidate{}, err
	}

	return Candidate{
		SignalType:    sigType,
		AIScore:       aiScore,
		SatyPhase:     phase,
		MarketSession: session,
		Symbol:        symbol,
		Timestamp:     ts,
		Timeframe:     normalizeTimeframe(raw.Signal.Timeframe),
		Quality:       normalizeQuality(raw.Signal.Quality),
	}, nil
}

// normalizeTimeframe defaults to the 15-minute slot on absence or an
// unrecognized value, rather than rejecting (spec.md §4.4 admits only six
// slots; anything else has no TimeframeStore home).
func normalizeTimeframe(v any) int {
	f, ok := asFloat(v)
	if !ok {
		return 15
	}
	switch tf := int(math.Round(f)); tf {
	case 3, 5, 15, 30, 60, 240:
		return tf
	default:
		return 15
	}
}

// normalizeQuality defaults to MEDIUM, the lowest conflict-resolution
// priority, on absence or an unrecognized value.
func normalizeQuality(v any) string {
	s, ok := v.(string)
	if !ok {
		return "MEDIUM"
	}
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "HIGH":
		return "HIGH"
	case "EXTREME":
		return "EXTREME"
	default:
		return "MEDIUM"
	}
}

func normalizeSignalType(v any) (SignalType, error) {
	if v == nil {
		return "", &ValidationError{Code: CodeMissingField, Field: "signal.type", Message: "required"}
	}
	s, ok := v.(string)
	if !ok {
		return "", &ValidationError{Code: CodeInvalidType, Field: "signal.type", Message: "must be a string"}
	}
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(SignalLong):
		return SignalLong, nil
	case string(SignalShort):
		return SignalShort, nil
	default:
		return "", &ValidationError{Code: CodeInvalidEnumValue, Field: "signal.type", Message: fmt.Sprintf("unknown signal type %q", s)}
	}
}

func normalizeSymbol(v any) (string, error) {
	if v == nil {
		return "", &ValidationError{Code: CodeMissingField, Field: "signal.symbol", Message: "required"}
	}
	s, ok := v.(string)
	if !ok {
		return "", &ValidationError{Code: CodeInvalidType, Field: "signal.symbol", Message: "must be a string"}
	}
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", &ValidationError{Code: CodeMissingField, Field: "signal.symbol", Message: "must not be empty"}
	}
	return s, nil
}

func normalizeAIScore(v any) (float64, error) {
	if v == nil {
		return 0, &ValidationError{Code: CodeMissingField, Field: "signal.ai_score", Message: "required"}
	}
	f, ok := asFloat(v)
	if !ok {
		return 0, &ValidationError{Code: CodeInvalidType, Field: "signal.ai_score", Message: "must be a number"}
	}
	return clampScore(f), nil
}

func clampScore(f float64) float64 {
	switch {
	case math.IsNaN(f):
		return 0
	case math.IsInf(f, 1):
		return 10.5
	case math.IsInf(f, -1):
		return 0
	case f < 0:
		return 0
	case f > 10.5:
		return 10.5
	default:
		return f
	}
}

func normalizeTimestamp(v any, now time.Time) (time.Time, error) {
	if v == nil {
		return now, nil
	}
	switch t := v.(type) {
	case float64:
		if t <= 0 {
			return now, nil
		}
		return time.UnixMilli(int64(t)), nil
	case int64:
		if t <= 0 {
			return now, nil
		}
		return time.UnixMilli(t), nil
	default:
		// Wrong shape defaults to now rather than rejecting, per spec.md §4.1.
		return now, nil
	}
}

func normalizePhase(raw *RawSatyPhase) (int, error) {
	if raw == nil || raw.Phase == nil {
		return 0, nil
	}
	f, ok := asFloat(raw.Phase)
	if !ok {
		return 0, nil // wrong shape defaults to 0 per spec.md §4.1
	}
	return clampPhase(f), nil
}

func clampPhase(f float64) int {
	if math.IsNaN(f) {
		return 0
	}
	i := int(math.Round(f))
	if i < -100 {
		return -100
	}
	if i > 100 {
		return 100
	}
	return i
}

func normalizeSession(v any) (MarketSession, error) {
	if v == nil {
		return SessionOpen, nil
	}
	s, ok := v.(string)
	if !ok {
		return SessionOpen, nil
	}
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(SessionOpen):
		return SessionOpen, nil
	case string(SessionMidday):
		return SessionMidday, nil
	case string(SessionPowerHour):
		return SessionPowerHour, nil
	case string(SessionAfterhours):
		return SessionAfterhours, nil
	default:
		return SessionOpen, nil
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
