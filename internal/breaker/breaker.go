// Package breaker wraps sony/gobreaker per named provider, grounded on the
// teacher's infra/breakers/breakers.go (a thin gobreaker wrapper) and
// internal/net/circuit/circuit.go (a Manager holding one breaker per
// provider, with aggregate health reporting).
package breaker

import (
	"fmt"
	"time"

	"github.com/sony/gobreaker"
)

// Config mirrors the thresholds the teacher hard-codes in infra/breakers:
// open after N consecutive failures or once failure ratio exceeds a bound
// over a minimum sample, half-open after a cooldown.
type Config struct {
	ConsecutiveFailures int
	MinRequests         uint32
	FailureRatio        float64
	OpenTimeout         time.Duration
}

// Guard wraps a single provider's circuit breaker.
type Guard struct {
	name string
	cb   *gobreaker.CircuitBreaker
}

// New constructs a Guard for one provider.
func New(name string, cfg Config) *Guard {
	settings := gobreaker.Settings{
		Name:     name,
		Interval: 60 * time.Second,
		Timeout:  cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if int(counts.ConsecutiveFailures) >= cfg.ConsecutiveFailures {
				return true
			}
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) > cfg.FailureRatio
		},
	}
	return &Guard{name: name, cb: gobreaker.NewCircuitBreaker(settings)}
}

// Execute runs fn through the breaker. A tripped breaker returns
// gobreaker.ErrOpenState without invoking fn, which callers in internal/market
// treat identically to any other provider failure: fall back.
func (g *Guard) Execute(fn func() (any, error)) (any, error) {
	return g.cb.Execute(fn)
}

func (g *Guard) State() gobreaker.State { return g.cb.State() }

func (g *Guard) Name() string { return g.name }

// Manager keeps one Guard per named provider and aggregates their state for
// the health view (C9), grounded on circuit.Manager's AddProvider/GetBreaker/
// IsHealthy trio.
type Manager struct {
	guards map[string]*Guard
}

func NewManager() *Manager {
	return &Manager{guards: make(map[string]*Guard)}
}

func (m *Manager) Register(name string, cfg Config) *Guard {
	g := New(name, cfg)
	m.guards[name] = g
	return g
}

// Add registers an already-constructed Guard, used when a collaborator
// (e.g. a market client) owns the breaker's lifecycle and the Manager only
// needs a read-only reference for aggregate health reporting.
func (m *Manager) Add(g *Guard) {
	m.guards[g.Name()] = g
}

func (m *Manager) Get(name string) (*Guard, bool) {
	g, ok := m.guards[name]
	return g, ok
}

// UnhealthyProviders lists providers whose breaker is not closed.
func (m *Manager) UnhealthyProviders() []string {
	var unhealthy []string
	for name, g := range m.guards {
		if g.State() != gobreaker.StateClosed {
			unhealthy = append(unhealthy, fmt.Sprintf("%s (%s)", name, g.State()))
		}
	}
	return unhealthy
}
