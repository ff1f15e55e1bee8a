// Package market fetches stock quotes from the Alpha Vantage API.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/neondatabase-labs/neon-azure-secure-ai-agent-data-access/config"
	"github.com/neondatabase-labs/neon-azure-secure-ai-agent-data-access/services/providers"
	"go.uber.org/zap"
)

const providerName = "alphavantage"

// NoQuoteSentinel is returned when the API answers with an empty quote object.
const NoQuoteSentinel = "No stock data found."

// Client calls the Alpha Vantage GLOBAL_QUOTE endpoint. One GET per call,
// no retries.
type Client struct {
	config     config.AlphaVantageConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new Alpha Vantage client
func NewClient(cfg config.AlphaVantageConfig, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.alphavantage.co"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// globalQuoteResponse mirrors the GLOBAL_QUOTE payload shape.
type globalQuoteResponse struct {
	GlobalQuote map[string]string `json:"Global Quote"`
}

// GlobalQuote fetches the latest quote for symbol and renders it as
// "key: value" lines, sorted by key. An empty quote object yields
// NoQuoteSentinel rather than an error.
func (c *Client) GlobalQuote(ctx context.Context, symbol string) (string, error) {
	endpoint := fmt.Sprintf("%s/query?function=GLOBAL_QUOTE&symbol=%s&apikey=%s",
		c.config.BaseURL, url.QueryEscape(symbol), url.QueryEscape(c.config.APIKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", providers.NewAPIError(providerName, "REQUEST_ERROR", "failed to build request", 0, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", providers.NewAPIError(providerName, "HTTP_ERROR", "request failed", 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", providers.NewAPIError(providerName, "READ_ERROR", "failed to read response", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", providers.NewAPIError(providerName, "API_ERROR",
			fmt.Sprintf("failed to fetch stock data: %d", resp.StatusCode), resp.StatusCode, nil)
	}

	var quote globalQuoteResponse
	if err := json.Unmarshal(body, &quote); err != nil {
		return "", providers.NewAPIError(providerName, "UNMARSHAL_ERROR", "failed to unmarshal response", resp.StatusCode, err)
	}

	if len(quote.GlobalQuote) == 0 {
		c.logger.Warn("empty quote payload", zap.String("symbol", symbol))
		return NoQuoteSentinel, nil
	}

	keys := make([]string, 0, len(quote.GlobalQuote))
	for k := range quote.GlobalQuote {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", k, quote.GlobalQuote[k]))
	}

	c.logger.Debug("fetched stock quote",
		zap.String("symbol", symbol),
		zap.Int("fields", len(lines)))

	return strings.Join(lines, "\n"), nil
}
