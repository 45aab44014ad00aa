package market

import (
	"context"
	"time"

	"github.com/sawpanic/riskgate/internal/breaker"
)

// StatsClient fetches ATR(14), RV(20) and trend slope.
type StatsClient struct {
	clientBase
	transport StatsTransport
}

func NewStatsClient(timeout time.Duration, rps float64, burst int, bcfg breaker.Config, transport StatsTransport) *StatsClient {
	return &StatsClient{
		clientBase: newClientBase("stats", timeout, rps, burst, bcfg),
		transport:  transport,
	}
}

func (c *StatsClient) Fetch(ctx context.Context, symbol string) MarketStats {
	result, ok := c.call(ctx, func(ctx context.Context) (any, error) {
		return c.transport(ctx, symbol)
	})
	if !ok {
		return StatsFallback()
	}
	data := result.(MarketStats)
	data.DataSource = SourceAPI
	return data
}

func (c *StatsClient) Probe(ctx context.Context) bool {
	return c.probe(ctx, func(ctx context.Context) error {
		_, err := c.transport(ctx, "PROBE")
		return err
	})
}
