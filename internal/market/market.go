// Package market implements the price source over a chart REST endpoint.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"trading-signal-bot/internal/lib/sl"
	"trading-signal-bot/types"
)

// Client fetches the current price from the configured endpoint. When the
// URL carries a %s verb the requested symbol is substituted in; otherwise
// the endpoint is assumed to quote a single instrument.
type Client struct {
	apiURL     string
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(apiURL string, log *slog.Logger) *Client {
	return &Client{
		apiURL: apiURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

func (c *Client) PriceOf(ctx context.Context, symbol string) (float64, error) {
	url := c.apiURL
	if strings.Contains(url, "%s") {
		url = fmt.Sprintf(url, symbol)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", types.ErrMarketUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("price request failed", "symbol", symbol, sl.Err(err))
		return 0, fmt.Errorf("%w: %v", types.ErrMarketUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("price endpoint returned error", "symbol", symbol, "status", resp.StatusCode)
		return 0, fmt.Errorf("%w: status %d", types.ErrMarketUnavailable, resp.StatusCode)
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("%w: %v", types.ErrMarketUnavailable, err)
	}

	for _, field := range []string{"price", "last", "close"} {
		if v, ok := toFloat(payload[field]); ok && v > 0 {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: no price field in response", types.ErrMarketUnavailable)
}

// Some endpoints quote numbers as strings.
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
