package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// HTTPTransport is a small JSON-over-HTTP client shared by the three
// provider transports below, grounded on the teacher's DeFiLlamaProvider
// (internal/providers/defi/defillama_provider.go): a *http.Client plus a
// base URL and API key, one GET request per call, json.Decode the body.
type HTTPTransport struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

func NewHTTPTransport(client *http.Client, baseURL, apiKey string) HTTPTransport {
	return HTTPTransport{client: client, baseURL: baseURL, apiKey: apiKey}
}

func (t HTTPTransport) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+path, nil)
	if err != nil {
		return err
	}
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("provider returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// OptionsHTTPTransport adapts HTTPTransport to OptionsTransport.
func OptionsHTTPTransport(t HTTPTransport) OptionsTransport {
	return func(ctx context.Context, symbol string) (OptionsData, error) {
		var out OptionsData
		err := t.get(ctx, "/options?symbol="+symbol, &out)
		return out, err
	}
}

// StatsHTTPTransport adapts HTTPTransport to StatsTransport.
func StatsHTTPTransport(t HTTPTransport) StatsTransport {
	return func(ctx context.Context, symbol string) (MarketStats, error) {
		var out MarketStats
		err := t.get(ctx, "/stats?symbol="+symbol, &out)
		return out, err
	}
}

// LiquidityHTTPTransport adapts HTTPTransport to LiquidityTransport.
func LiquidityHTTPTransport(t HTTPTransport) LiquidityTransport {
	return func(ctx context.Context, symbol string) (LiquidityData, error) {
		var out LiquidityData
		err := t.get(ctx, "/liquidity?symbol="+symbol, &out)
		return out, err
	}
}
