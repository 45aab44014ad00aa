package admission

import (
	"sort"
	"time"

	"github.com/sawpanic/riskgate/internal/store"
)

// Status is the coarse health verdict for the overall system or one provider
// (spec.md §4.9 "Thresholds: health degrades when..."; §6 "Health view").
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// ProviderStatus is one entry of the health view's `providers` list
// (spec.md §6: `{name, status, response_time_ms, last_checked}`).
type ProviderStatus struct {
	Name           string    `json:"name"`
	Status         Status    `json:"status"`
	ResponseTimeMs float64   `json:"response_time_ms"`
	LastChecked    time.Time `json:"last_checked"`
	breakerOpen    bool
}

// Performance is the health view's `performance` sub-object.
type Performance struct {
	Healthy bool     `json:"healthy"`
	Issues  []string `json:"issues"`
}

// HealthView is the boundary-facing health payload, bit-exact on spec.md §6:
// `{status, providers, performance, uptime_ms, engine_version}`. Grounded on
// the teacher's HealthStatus (cmd_health.go), trimmed to this engine's actual
// tracked dimensions.
type HealthView struct {
	Status        Status           `json:"status"`
	Providers     []ProviderStatus `json:"providers"`
	Performance   Performance      `json:"performance"`
	UptimeMs      int64            `json:"uptime_ms"`
	EngineVersion string           `json:"engine_version"`
}

// LatencyView is the metrics view's `latency` sub-object (spec.md §6).
type LatencyView struct {
	Average float64 `json:"average"`
	P50     float64 `json:"p50"`
	P95     float64 `json:"p95"`
	P99     float64 `json:"p99"`
}

// ThroughputView is the metrics view's `throughput` sub-object.
type ThroughputView struct {
	TotalRequests  int64   `json:"total_requests"`
	RequestsPerSec float64 `json:"requests_per_second"`
	PeakRPS        float64 `json:"peak_rps"`
	Concurrent     int64   `json:"concurrent"`
	MaxConcurrent  int     `json:"max_concurrent"`
}

// ValidityEntry is one active TimeframeStore slot's C5 breakdown, keyed by
// its timeframe (SPEC_FULL §4, C5: the breakdown is exposed read-only via
// the health/metrics view).
type ValidityEntry struct {
	Timeframe       int             `json:"timeframe"`
	ValidityMinutes float64         `json:"validity_minutes"`
	Breakdown       store.Breakdown `json:"breakdown"`
}

// MetricsView is the boundary-facing metrics payload, bit-exact on spec.md
// §6: `{latency, throughput, decision_engine, errors}`, additively extended
// with `validity` (SPEC_FULL §4, C5) for C5's diagnostic trace.
type MetricsView struct {
	Latency        LatencyView    `json:"latency"`
	Throughput     ThroughputView `json:"throughput"`
	DecisionEngine struct {
		AverageLatencyMs float64 `json:"average_latency_ms"`
	} `json:"decision_engine"`
	Errors struct {
		ErrorRate float64 `json:"error_rate"`
	} `json:"errors"`
	Validity []ValidityEntry `json:"validity,omitempty"`
}

// HealthThresholds holds the bounds for the degraded determination.
// BuildHealthView reads only MaxErrorRate; WebhookLatencyTarget is carried
// but not consulted, so latency never degrades the health status.
type HealthThresholds struct {
	WebhookLatencyTarget time.Duration
	MaxErrorRate         float64
}

// BuildHealthView assembles the health payload from one Envelope snapshot and
// a set of provider breaker/latency probes. Any open breaker makes the status
// unhealthy; otherwise an error rate above th.MaxErrorRate makes it degraded.
// Latency is not checked.
func BuildHealthView(providers []ProviderStatus, uptime time.Duration, errorRate float64, th HealthThresholds, engineVersion string) HealthView {
	status := StatusHealthy
	var issues []string

	for _, p := range providers {
		if p.breakerOpen {
			status = StatusUnhealthy
			issues = append(issues, p.Name+" breaker open")
		}
	}

	if status != StatusUnhealthy && errorRate > th.MaxErrorRate {
		status = StatusDegraded
		issues = append(issues, "decide error rate above threshold")
	}

	return HealthView{
		Status:        status,
		Providers:     providers,
		Performance:   Performance{Healthy: len(issues) == 0, Issues: issues},
		UptimeMs:      uptime.Milliseconds(),
		EngineVersion: engineVersion,
	}
}

// NewProviderStatus derives one provider's health entry from its breaker
// state and last-observed latency.
func NewProviderStatus(name string, breakerOpen bool, responseTimeMs float64, lastChecked time.Time) ProviderStatus {
	status := StatusHealthy
	if breakerOpen {
		status = StatusUnhealthy
	}
	return ProviderStatus{Name: name, Status: status, ResponseTimeMs: responseTimeMs, LastChecked: lastChecked, breakerOpen: breakerOpen}
}

// BuildMetricsView assembles the metrics payload from a latency snapshot and
// request counters (spec.md §6 "Metrics view"). active is the current set of
// live TimeframeStore entries, surfaced as C5 validity breakdowns (SPEC_FULL
// §4, C5); pass nil to omit the field.
func BuildMetricsView(lat LatencyMetrics, totalRequests int64, requestsPerSec, peakRPS float64, concurrent int64, maxConcurrent int, errorRate float64, active map[store.Timeframe]store.StoredSignal) MetricsView {
	avg := lat.P50 // rolling histogram exposes percentiles only; average is approximated by the median per spec.md's "average" not being separately defined
	view := MetricsView{
		Latency: LatencyView{Average: avg, P50: lat.P50, P95: lat.P95, P99: lat.P99},
		Throughput: ThroughputView{
			TotalRequests:  totalRequests,
			RequestsPerSec: requestsPerSec,
			PeakRPS:        peakRPS,
			Concurrent:     concurrent,
			MaxConcurrent:  maxConcurrent,
		},
	}
	view.DecisionEngine.AverageLatencyMs = avg
	view.Errors.ErrorRate = errorRate

	for tf, signal := range active {
		view.Validity = append(view.Validity, ValidityEntry{
			Timeframe:       int(tf),
			ValidityMinutes: signal.ValidityMinutes,
			Breakdown:       signal.ValidityBreakdown,
		})
	}
	sort.Slice(view.Validity, func(i, j int) bool { return view.Validity[i].Timeframe < view.Validity[j].Timeframe })

	return view
}
