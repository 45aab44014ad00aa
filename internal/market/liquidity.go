package market

import (
	"context"
	"time"

	"github.com/sawpanic/riskgate/internal/breaker"
)

// LiquidityClient fetches spread, depth score, and trade velocity.
type LiquidityClient struct {
	clientBase
	transport LiquidityTransport
}

func NewLiquidityClient(timeout time.Duration, rps float64, burst int, bcfg breaker.Config, transport LiquidityTransport) *LiquidityClient {
	return &LiquidityClient{
		clientBase: newClientBase("liquidity", timeout, rps, burst, bcfg),
		transport:  transport,
	}
}

func (c *LiquidityClient) Fetch(ctx context.Context, symbol string) LiquidityData {
	result, ok := c.call(ctx, func(ctx context.Context) (any, error) {
		return c.transport(ctx, symbol)
	})
	if !ok {
		return LiquidityFallback()
	}
	data := result.(LiquidityData)
	data.DataSource = SourceAPI
	return data
}

func (c *LiquidityClient) Probe(ctx context.Context) bool {
	return c.probe(ctx, func(ctx context.Context) error {
		_, err := c.transport(ctx, "PROBE")
		return err
	})
}
