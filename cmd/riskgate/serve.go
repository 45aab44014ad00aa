package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/riskgate/internal/admission"
	"github.com/sawpanic/riskgate/internal/breaker"
	"github.com/sawpanic/riskgate/internal/config"
	"github.com/sawpanic/riskgate/internal/engine"
	"github.com/sawpanic/riskgate/internal/gates"
	"github.com/sawpanic/riskgate/internal/httpapi"
	"github.com/sawpanic/riskgate/internal/market"
	"github.com/sawpanic/riskgate/internal/store"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the admission controller's health/metrics HTTP surface",
		RunE:  runServe,
	}
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	raw, err := config.Load(configPath)
	if err != nil {
		return err
	}
	frozen, err := config.NewFrozen(raw)
	if err != nil {
		return err
	}

	app, err := buildApplication(frozen)
	if err != nil {
		return err
	}
	app.sweeper1.Start()
	app.sweeper2.Start()
	defer app.sweeper1.Stop()
	defer app.sweeper2.Stop()

	srv := httpapi.NewServer(httpapi.DefaultConfig(frozen.Server().Port), app, app, app)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Info().Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

// application is the process-wide composition root: the engine, the
// admission envelope, and everything needed to answer health/metrics
// queries. Grounded on the teacher's main.go pattern of constructing every
// collaborator once in main and passing references down.
type application struct {
	frozen   *config.Frozen
	eng      *engine.Engine
	envelope *admission.Envelope
	breakers *breaker.Manager
	metrics  *admission.Metrics
	started  time.Time

	timeframes *store.TimeframeStore
	phases     *store.PhaseStore
	sweeper1   *store.Sweeper
	sweeper2   *store.Sweeper
}

func buildApplication(frozen *config.Frozen) (*application, error) {
	providers := frozen.Providers()
	breakers := breaker.NewManager()

	httpClient := &http.Client{Timeout: providers.Options.Timeout}

	optTransport := market.OptionsHTTPTransport(market.NewHTTPTransport(httpClient, providers.Options.BaseURL, providers.Options.APIKey))
	statsTransport := market.StatsHTTPTransport(market.NewHTTPTransport(httpClient, providers.Stats.BaseURL, providers.Stats.APIKey))
	liqTransport := market.LiquidityHTTPTransport(market.NewHTTPTransport(httpClient, providers.Liquidity.BaseURL, providers.Liquidity.APIKey))

	optClient := market.NewOptionsClient(providers.Options.Timeout, providers.Options.RPS, providers.Options.Burst, toBreakerConfig(providers.Options.Breaker), optTransport)
	statsClient := market.NewStatsClient(providers.Stats.Timeout, providers.Stats.RPS, providers.Stats.Burst, toBreakerConfig(providers.Stats.Breaker), statsTransport)
	liqClient := market.NewLiquidityClient(providers.Liquidity.Timeout, providers.Liquidity.RPS, providers.Liquidity.Burst, toBreakerConfig(providers.Liquidity.Breaker), liqTransport)

	// Register each client's own breaker (rather than constructing fresh
	// ones) so the health view reflects the exact breaker the client calls
	// through.
	breakers.Add(optClient.Guard())
	breakers.Add(statsClient.Guard())
	breakers.Add(liqClient.Guard())

	builder := market.NewBuilder(optClient, statsClient, liqClient)

	gatesConfig := frozen.Gates()
	thresholds := gates.Thresholds{
		MaxSpreadBps:       gatesConfig.MaxSpreadBps,
		MaxVolatilityRatio: gatesConfig.MaxVolatilityRatio,
		MinPhaseAbs:        float64(gatesConfig.MinPhaseAbs),
	}

	admissionConfig := frozen.Admission()
	metrics := admission.NewMetrics()
	envelope := admission.NewEnvelope(admissionConfig.MaxConcurrent, admissionConfig.LatencySampleSize, admissionConfig.SuspiciousThreshold, admissionConfig.SuspiciousWindow, metrics)

	timeframes := store.NewTimeframeStore()
	phases := store.NewPhaseStore()

	eng := engine.New(builder, thresholds, admissionConfig.ProviderDeadline, timeframes, phases, nil)

	return &application{
		frozen:     frozen,
		eng:        eng,
		envelope:   envelope,
		breakers:   breakers,
		metrics:    metrics,
		started:    time.Now(),
		timeframes: timeframes,
		phases:     phases,
		sweeper1:   store.NewSweeper(timeframes, 10*time.Second),
		sweeper2:   store.NewSweeper(phases, 10*time.Second),
	}, nil
}

func toBreakerConfig(c config.BreakerConfig) breaker.Config {
	return breaker.Config{
		ConsecutiveFailures: c.ConsecutiveFailures,
		MinRequests:         c.MinRequests,
		FailureRatio:        c.FailureRatio,
		OpenTimeout:         c.OpenTimeout,
	}
}

// Health implements httpapi.HealthProvider.
func (a *application) Health() admission.HealthView {
	now := time.Now()
	var providers []admission.ProviderStatus
	for _, name := range []string{"options", "stats", "liquidity"} {
		guard, ok := a.breakers.Get(name)
		open := ok && guard.State().String() == "open"
		providers = append(providers, admission.NewProviderStatus(name, open, 0, now))
	}

	th := admission.HealthThresholds{
		WebhookLatencyTarget: a.frozen.Admission().WebhookLatencyTarget,
		MaxErrorRate:         a.frozen.Admission().MaxErrorRate,
	}

	return admission.BuildHealthView(providers, now.Sub(a.started), a.envelope.ErrorRate(), th, engine.EngineVersion)
}

// MetricsSnapshot implements httpapi.MetricsProvider.
func (a *application) MetricsSnapshot() admission.MetricsView {
	lat := a.envelope.LatencySnapshot()
	now := time.Now()
	uptime := now.Sub(a.started).Seconds()

	var rps float64
	if uptime > 0 {
		rps = float64(a.envelope.Completed()) / uptime
	}

	return admission.BuildMetricsView(lat, a.envelope.Completed(), rps, rps, a.envelope.InFlight(), a.envelope.Capacity(), a.envelope.ErrorRate(), a.timeframes.GetAllActive(now))
}

// PrometheusRegistry implements httpapi.PrometheusProvider, mounting C9's
// private registry on /metrics/prom in exposition format alongside the
// bit-exact JSON MetricsView served at /metrics.
func (a *application) PrometheusRegistry() *prometheus.Registry {
	return a.metrics.Registry
}
