package config

import (
	"errors"
	"sync"
)

// ErrConfigImmutable is returned by any mutator called on a Frozen config.
var ErrConfigImmutable = errors.New("config: immutable after freeze")

// Frozen wraps a validated Raw config behind read-only accessors. Go has no
// language-level deep-freeze, so this facade plays the role the teacher's
// target language would get from structural immutability: every field is
// copied out through a getter, never handed out by reference, and the single
// mutator panics once frozen. Grounded on DESIGN NOTES §9 "Deep-frozen
// configuration ... wrap the record in a facade that panics on any mutating
// access".
type Frozen struct {
	mu     sync.Mutex
	frozen bool
	raw    Raw
}

// NewFrozen validates and locks in cfg. Intended to be called exactly once by
// the composition root.
func NewFrozen(cfg Raw) (*Frozen, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	f := &Frozen{raw: cfg}
	f.freeze()
	return f, nil
}

func (f *Frozen) freeze() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frozen = true
}

// MustMutate exists only to demonstrate and enforce the immutability
// invariant (spec.md invariant 6, P11): any attempt to mutate a Frozen config
// after construction panics with ErrConfigImmutable instead of silently
// succeeding.
func (f *Frozen) MustMutate(func(*Raw)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.frozen {
		panic(ErrConfigImmutable)
	}
}

func (f *Frozen) Server() ServerConfig         { return f.raw.Server }
func (f *Frozen) Providers() ProvidersConfig   { return f.raw.Providers }
func (f *Frozen) Gates() GatesConfig           { return f.raw.Gates }
func (f *Frozen) Validity() ValidityConfig     { return f.raw.Validity }
func (f *Frozen) Admission() AdmissionConfig   { return f.raw.Admission }
func (f *Frozen) LogLevel() string             { return f.raw.LogLevel }
