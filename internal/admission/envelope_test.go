package admission

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/riskgate/internal/candidate"
	"github.com/sawpanic/riskgate/internal/store"
)

func TestLimiterRefusesAboveCeiling(t *testing.T) {
	l := NewLimiter(2)

	release1, err := l.Acquire()
	require.NoError(t, err)
	release2, err := l.Acquire()
	require.NoError(t, err)

	_, err = l.Acquire()
	assert.ErrorIs(t, err, ErrSaturated)

	release1()
	_, err = l.Acquire()
	assert.NoError(t, err)

	release2()
}

func TestEnvelopeAdmitRejectsAboveCeiling(t *testing.T) {
	e := NewEnvelope(1, 100, 10, time.Minute, NewMetrics())

	block := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = e.Admit(func() error {
			<-block
			return nil
		})
	}()

	// Give the goroutine a moment to acquire the single slot.
	for e.InFlight() == 0 {
		time.Sleep(time.Millisecond)
	}

	err := e.Admit(func() error { return nil })
	assert.ErrorIs(t, err, ErrSaturated)

	close(block)
	wg.Wait()
}

func TestEnvelopeErrorRate(t *testing.T) {
	e := NewEnvelope(10, 100, 10, time.Minute, NewMetrics())

	_ = e.Admit(func() error { return nil })
	_ = e.Admit(func() error { return errors.New("boom") })

	assert.InDelta(t, 0.5, e.ErrorRate(), 1e-9)
}

func TestHistogramPercentiles(t *testing.T) {
	h := NewHistogram(10)
	for _, ms := range []int{10, 20, 30, 40, 50} {
		h.Record(time.Duration(ms) * time.Millisecond)
	}

	assert.Equal(t, 5, h.Count())
	assert.InDelta(t, 30, h.P50(), 1)
}

func TestSuspiciousTrackerFlagsAtThreshold(t *testing.T) {
	now := time.Now()
	s := NewSuspiciousTracker(10, time.Minute)

	var flagged bool
	for i := 0; i < 10; i++ {
		flagged = s.Record(now, "1.2.3.4")
	}
	assert.True(t, flagged)
}

func TestSuspiciousTrackerWindowExpiry(t *testing.T) {
	now := time.Now()
	s := NewSuspiciousTracker(3, time.Minute)

	s.Record(now, "1.2.3.4")
	s.Record(now, "1.2.3.4")
	assert.Equal(t, 2, s.Count(now, "1.2.3.4"))

	later := now.Add(2 * time.Minute)
	assert.Equal(t, 0, s.Count(later, "1.2.3.4"))
}

func TestBuildHealthViewDegradesOnErrorRate(t *testing.T) {
	th := HealthThresholds{WebhookLatencyTarget: 250 * time.Millisecond, MaxErrorRate: 0.05}
	providers := []ProviderStatus{NewProviderStatus("options", false, 50, time.Now())}

	view := BuildHealthView(providers, time.Minute, 0.10, th, "riskgate-1.0.0")
	assert.Equal(t, StatusDegraded, view.Status)
	assert.False(t, view.Performance.Healthy)
}

func TestBuildHealthViewUnhealthyOnOpenBreaker(t *testing.T) {
	th := HealthThresholds{WebhookLatencyTarget: 250 * time.Millisecond, MaxErrorRate: 0.05}
	providers := []ProviderStatus{NewProviderStatus("options", true, 50, time.Now())}

	view := BuildHealthView(providers, time.Minute, 0, th, "riskgate-1.0.0")
	assert.Equal(t, StatusUnhealthy, view.Status)
}

func TestBuildHealthViewHealthy(t *testing.T) {
	th := HealthThresholds{WebhookLatencyTarget: 250 * time.Millisecond, MaxErrorRate: 0.05}
	providers := []ProviderStatus{NewProviderStatus("options", false, 10, time.Now())}

	view := BuildHealthView(providers, time.Minute, 0.0, th, "riskgate-1.0.0")
	assert.Equal(t, StatusHealthy, view.Status)
	assert.True(t, view.Performance.Healthy)
}

func TestBuildMetricsView(t *testing.T) {
	lat := LatencyMetrics{P50: 10, P95: 20, P99: 30, Count: 5}
	view := BuildMetricsView(lat, 100, 5.0, 12.0, 3, 200, 0.01, nil)

	assert.Equal(t, 10.0, view.Latency.Average)
	assert.Equal(t, int64(100), view.Throughput.TotalRequests)
	assert.Equal(t, 0.01, view.Errors.ErrorRate)
	assert.Empty(t, view.Validity)
}

func TestBuildMetricsViewSurfacesValidityBreakdown(t *testing.T) {
	lat := LatencyMetrics{P50: 10, P95: 20, P99: 30, Count: 5}
	_, breakdown := store.Calculate(store.TF15, store.QualityHigh, candidate.SessionOpen)
	active := map[store.Timeframe]store.StoredSignal{
		store.TF15: {ValidityMinutes: 15, ValidityBreakdown: breakdown},
	}

	view := BuildMetricsView(lat, 100, 5.0, 12.0, 3, 200, 0.01, active)

	require.Len(t, view.Validity, 1)
	assert.Equal(t, 15, view.Validity[0].Timeframe)
	assert.Equal(t, breakdown, view.Validity[0].Breakdown)
}
