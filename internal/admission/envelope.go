package admission

import (
	"sync"
	"sync/atomic"
	"time"
)

// Envelope wires the concurrency limiter, latency histogram, suspicious
// tracker and Prometheus metrics into the single object the HTTP layer and
// engine share per spec.md §4.9 "Performance/Admission Envelope".
type Envelope struct {
	limiter    *Limiter
	latency    *Histogram
	suspicious *SuspiciousTracker
	metrics    *Metrics

	inFlight  int64
	peak      int64
	completed int64
	failures  int64
	total     int64
}

func NewEnvelope(ceiling int, latencySampleSize int, suspiciousThreshold int, suspiciousWindow time.Duration, metrics *Metrics) *Envelope {
	return &Envelope{
		limiter:    NewLimiter(ceiling),
		latency:    NewHistogram(latencySampleSize),
		suspicious: NewSuspiciousTracker(suspiciousThreshold, suspiciousWindow),
		metrics:    metrics,
	}
}

// Admit reserves a concurrency slot for the duration of fn, recording
// latency and in-flight/peak bookkeeping around the call. Returns
// ErrSaturated without calling fn if the ceiling is already full
// (spec.md invariant P12).
func (e *Envelope) Admit(fn func() error) error {
	release, err := e.limiter.Acquire()
	if err != nil {
		if e.metrics != nil {
			e.metrics.Rejected.WithLabelValues("ceiling").Inc()
		}
		return err
	}
	defer release()

	inFlight := atomic.AddInt64(&e.inFlight, 1)
	defer atomic.AddInt64(&e.inFlight, -1)
	bumpPeak(&e.peak, inFlight)
	if e.metrics != nil {
		e.metrics.InFlight.Set(float64(inFlight))
		e.metrics.PeakInFlight.Set(float64(atomic.LoadInt64(&e.peak)))
	}

	start := time.Now()
	callErr := fn()
	elapsed := time.Since(start)

	e.latency.Record(elapsed)
	atomic.AddInt64(&e.total, 1)
	if callErr != nil {
		atomic.AddInt64(&e.failures, 1)
	} else {
		atomic.AddInt64(&e.completed, 1)
		if e.metrics != nil {
			e.metrics.Completed.Inc()
		}
	}
	if e.metrics != nil {
		e.metrics.Latency.WithLabelValues().Observe(float64(elapsed.Milliseconds()))
	}

	return callErr
}

// RecordAnomaly registers a boundary-layer anomaly for source and reports
// whether that source is now flagged as suspicious.
func (e *Envelope) RecordAnomaly(now time.Time, source string) bool {
	return e.suspicious.Record(now, source)
}

// ErrorRate returns the fraction of all admitted calls whose fn returned an
// error, counted since the Envelope was created (not over a rolling window).
func (e *Envelope) ErrorRate() float64 {
	total := atomic.LoadInt64(&e.total)
	if total == 0 {
		return 0
	}
	return float64(atomic.LoadInt64(&e.failures)) / float64(total)
}

func (e *Envelope) LatencySnapshot() LatencyMetrics {
	return e.latency.Metrics()
}

func (e *Envelope) InFlight() int64 {
	return atomic.LoadInt64(&e.inFlight)
}

func (e *Envelope) Peak() int64 {
	return atomic.LoadInt64(&e.peak)
}

func (e *Envelope) Completed() int64 {
	return atomic.LoadInt64(&e.completed)
}

// Capacity returns the configured concurrency ceiling.
func (e *Envelope) Capacity() int {
	return e.limiter.Capacity()
}

var peakMu sync.Mutex

func bumpPeak(peak *int64, candidate int64) {
	peakMu.Lock()
	defer peakMu.Unlock()
	if candidate > atomic.LoadInt64(peak) {
		atomic.StoreInt64(peak, candidate)
	}
}
