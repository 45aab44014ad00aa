// Package config loads the process-wide Frozen configuration (C10): thresholds,
// timeouts, provider endpoints, fallback constants and performance targets.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Raw is the on-disk / env-sourced shape before validation and freezing.
type Raw struct {
	Server     ServerConfig     `yaml:"server"`
	Providers  ProvidersConfig  `yaml:"providers"`
	Gates      GatesConfig      `yaml:"gates"`
	Validity   ValidityConfig   `yaml:"validity"`
	Admission  AdmissionConfig  `yaml:"admission"`
	LogLevel   string           `yaml:"log_level"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type ProviderEndpoint struct {
	Name      string        `yaml:"name"`
	BaseURL   string        `yaml:"base_url"`
	APIKey    string        `yaml:"api_key"`
	Timeout   time.Duration `yaml:"timeout"`
	RPS       float64       `yaml:"rps"`
	Burst     int           `yaml:"burst"`
	Breaker   BreakerConfig `yaml:"breaker"`
}

type BreakerConfig struct {
	ConsecutiveFailures int           `yaml:"consecutive_failures"`
	MinRequests         uint32        `yaml:"min_requests"`
	FailureRatio        float64       `yaml:"failure_ratio"`
	OpenTimeout         time.Duration `yaml:"open_timeout"`
}

type ProvidersConfig struct {
	Options   ProviderEndpoint `yaml:"options"`
	Stats     ProviderEndpoint `yaml:"stats"`
	Liquidity ProviderEndpoint `yaml:"liquidity"`
}

// GatesConfig carries the fixed thresholds from spec.md §4.6. They are
// compiled-in constants conceptually, but are still routed through config so
// operators can retune without a rebuild — the gate *order* and *identities*
// never change, only the numeric thresholds.
type GatesConfig struct {
	MaxSpreadBps      float64 `yaml:"max_spread_bps"`
	MaxVolatilityRatio float64 `yaml:"max_volatility_ratio"`
	MinPhaseAbs       int     `yaml:"min_phase_abs"`
}

type ValidityConfig struct {
	MinMinutes int `yaml:"min_minutes"`
	MaxMinutes int `yaml:"max_minutes"`
}

type AdmissionConfig struct {
	MaxConcurrent        int           `yaml:"max_concurrent"`
	RequestDeadline      time.Duration `yaml:"request_deadline"`
	ProviderDeadline     time.Duration `yaml:"provider_deadline"`
	LatencySampleSize    int           `yaml:"latency_sample_size"`
	WebhookLatencyTarget time.Duration `yaml:"webhook_latency_target"`
	MaxErrorRate         float64       `yaml:"max_error_rate"`
	SuspiciousThreshold  int           `yaml:"suspicious_threshold"`
	SuspiciousWindow     time.Duration `yaml:"suspicious_window"`
}

// Default returns the compiled-in baseline before any YAML/env overlay.
func Default() Raw {
	return Raw{
		Server: ServerConfig{Port: 8080},
		Providers: ProvidersConfig{
			Options: ProviderEndpoint{
				Name: "options", BaseURL: "https://example-options.invalid",
				Timeout: 600 * time.Millisecond, RPS: 5, Burst: 5,
				Breaker: BreakerConfig{ConsecutiveFailures: 3, MinRequests: 20, FailureRatio: 0.05, OpenTimeout: 60 * time.Second},
			},
			Stats: ProviderEndpoint{
				Name: "stats", BaseURL: "https://example-stats.invalid",
				Timeout: 600 * time.Millisecond, RPS: 5, Burst: 5,
				Breaker: BreakerConfig{ConsecutiveFailures: 3, MinRequests: 20, FailureRatio: 0.05, OpenTimeout: 60 * time.Second},
			},
			Liquidity: ProviderEndpoint{
				Name: "liquidity", BaseURL: "https://example-liquidity.invalid",
				Timeout: 600 * time.Millisecond, RPS: 5, Burst: 5,
				Breaker: BreakerConfig{ConsecutiveFailures: 3, MinRequests: 20, FailureRatio: 0.05, OpenTimeout: 60 * time.Second},
			},
		},
		Gates: GatesConfig{
			MaxSpreadBps:       12.0,
			MaxVolatilityRatio: 2.0,
			MinPhaseAbs:        65,
		},
		Validity: ValidityConfig{
			MinMinutes: 0, // overridden per timeframe at call time (base_tf)
			MaxMinutes: 720,
		},
		Admission: AdmissionConfig{
			MaxConcurrent:        200,
			RequestDeadline:      1000 * time.Millisecond,
			ProviderDeadline:     600 * time.Millisecond,
			LatencySampleSize:    1000,
			WebhookLatencyTarget: 250 * time.Millisecond,
			MaxErrorRate:         0.05,
			SuspiciousThreshold:  10,
			SuspiciousWindow:     10 * time.Minute,
		},
		LogLevel: "info",
	}
}

// Load reads an optional YAML file at path (skipped if empty or missing),
// overlays environment variables, validates, and returns the raw config ready
// to be frozen. Mirrors the teacher's LoadProvidersConfig/Validate split in
// internal/config/providers.go.
func Load(path string) (Raw, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Raw{}, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Raw{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Raw{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Raw) {
	if v := os.Getenv("RISKGATE_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("RISKGATE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	overlayProvider(&cfg.Providers.Options, "RISKGATE_OPTIONS")
	overlayProvider(&cfg.Providers.Stats, "RISKGATE_STATS")
	overlayProvider(&cfg.Providers.Liquidity, "RISKGATE_LIQUIDITY")
}

func overlayProvider(p *ProviderEndpoint, prefix string) {
	if v := os.Getenv(prefix + "_BASE_URL"); v != "" {
		p.BaseURL = v
	}
	if v := os.Getenv(prefix + "_API_KEY"); v != "" {
		p.APIKey = v
	}
}

// Validate enforces URL syntax, port range and required keys, matching the
// teacher's ProvidersConfig.Validate.
func (r Raw) Validate() error {
	if r.Server.Port <= 0 || r.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", r.Server.Port)
	}
	for _, p := range []ProviderEndpoint{r.Providers.Options, r.Providers.Stats, r.Providers.Liquidity} {
		if p.Name == "" {
			return fmt.Errorf("provider name must not be empty")
		}
		if _, err := url.ParseRequestURI(p.BaseURL); err != nil {
			return fmt.Errorf("provider %s base_url invalid: %w", p.Name, err)
		}
		if p.Timeout <= 0 {
			return fmt.Errorf("provider %s timeout must be positive", p.Name)
		}
	}
	if r.Admission.MaxConcurrent <= 0 {
		return fmt.Errorf("admission.max_concurrent must be positive")
	}
	if r.Admission.RequestDeadline <= 0 {
		return fmt.Errorf("admission.request_deadline must be positive")
	}
	if r.Validity.MaxMinutes <= 0 {
		return fmt.Errorf("validity.max_minutes must be positive")
	}
	return nil
}

// MaskSecret replaces all but the first four characters of a sensitive value,
// used whenever provider API keys cross into a log line.
func MaskSecret(s string) string {
	if len(s) <= 4 {
		if s == "" {
			return ""
		}
		return "****"
	}
	return s[:4] + "****"
}
