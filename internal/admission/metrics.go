package admission

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every Prometheus collector the envelope exports, grounded on
// the teacher's MetricsRegistry (internal/interfaces/http/metrics.go): typed
// fields per collector, constructed once and registered together. A private
// registry is used (rather than the global default) so multiple Engines can
// coexist in tests without a MustRegister panic on duplicate names.
type Metrics struct {
	Registry *prometheus.Registry

	InFlight      prometheus.Gauge
	PeakInFlight  prometheus.Gauge
	Completed     prometheus.Counter
	Rejected      *prometheus.CounterVec
	DecisionTotal *prometheus.CounterVec
	GateFailures  *prometheus.CounterVec
	Latency       *prometheus.HistogramVec
	ErrorRate     prometheus.Gauge
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "riskgate_inflight_decisions",
			Help: "Number of decide calls currently in flight.",
		}),
		PeakInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "riskgate_peak_inflight_decisions",
			Help: "Highest observed number of concurrent decide calls.",
		}),
		Completed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "riskgate_decisions_completed_total",
			Help: "Total number of decide calls that completed.",
		}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "riskgate_admission_rejected_total",
			Help: "Total number of decide calls refused at the admission ceiling.",
		}, []string{"reason"}),
		DecisionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "riskgate_decisions_total",
			Help: "Total decisions by verdict.",
		}, []string{"decision"}),
		GateFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "riskgate_gate_failures_total",
			Help: "Total gate failures by gate name.",
		}, []string{"gate"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "riskgate_decide_latency_ms",
			Help:    "End-to-end decide call latency in milliseconds.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}, []string{}),
		ErrorRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "riskgate_provider_error_rate",
			Help: "Rolling provider error rate (fallback fraction).",
		}),
	}

	reg.MustRegister(m.InFlight, m.PeakInFlight, m.Completed, m.Rejected,
		m.DecisionTotal, m.GateFailures, m.Latency, m.ErrorRate)

	return m
}

// RecordDecision increments DecisionTotal for the verdict and GateFailures
// for each gate that failed. Called once per completed decide call, from the
// same composition-root call site that wraps Decide in Envelope.Admit.
func (m *Metrics) RecordDecision(decision string, failedGates []string) {
	if m == nil {
		return
	}
	m.DecisionTotal.WithLabelValues(decision).Inc()
	for _, gate := range failedGates {
		m.GateFailures.WithLabelValues(gate).Inc()
	}
}
