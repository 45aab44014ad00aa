package market

import (
	"context"
	"time"

	"github.com/sawpanic/riskgate/internal/breaker"
)

// OptionsClient fetches put/call ratio, IV percentile, and gamma bias.
type OptionsClient struct {
	clientBase
	transport OptionsTransport
}

func NewOptionsClient(timeout time.Duration, rps float64, burst int, bcfg breaker.Config, transport OptionsTransport) *OptionsClient {
	return &OptionsClient{
		clientBase: newClientBase("options", timeout, rps, burst, bcfg),
		transport:  transport,
	}
}

// Fetch returns live data on success or the conservative fallback on any
// failure (spec.md §4.2, §6). Never returns an error.
func (c *OptionsClient) Fetch(ctx context.Context, symbol string) OptionsData {
	result, ok := c.call(ctx, func(ctx context.Context) (any, error) {
		return c.transport(ctx, symbol)
	})
	if !ok {
		return OptionsFallback()
	}
	data := result.(OptionsData)
	data.DataSource = SourceAPI
	return data
}

func (c *OptionsClient) Probe(ctx context.Context) bool {
	return c.probe(ctx, func(ctx context.Context) error {
		_, err := c.transport(ctx, "PROBE")
		return err
	})
}
