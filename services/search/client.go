// Package search queries the Serper web-search API.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/neondatabase-labs/neon-azure-secure-ai-agent-data-access/config"
	"github.com/neondatabase-labs/neon-azure-secure-ai-agent-data-access/services/providers"
	"go.uber.org/zap"
)

const providerName = "serper"

// NoResultsSentinel is returned when the search yields no organic results.
const NoResultsSentinel = "No relevant search results found."

// maxResults caps how many organic results are rendered.
const maxResults = 3

// Client calls the Serper search endpoint. One POST per call, no retries.
type Client struct {
	config     config.SerperConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new Serper client
func NewClient(cfg config.SerperConfig, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://google.serper.dev"
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

type searchRequest struct {
	Query string `json:"q"`
}

type searchResponse struct {
	Organic []organicResult `json:"organic"`
}

type organicResult struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// Search runs a web search and renders the top organic results as
// "Title - Link" lines.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	payload, err := json.Marshal(searchRequest{Query: query})
	if err != nil {
		return "", providers.NewAPIError(providerName, "MARSHAL_ERROR", "failed to marshal request", 0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return "", providers.NewAPIError(providerName, "REQUEST_ERROR", "failed to build request", 0, err)
	}
	req.Header.Set("X-API-KEY", c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

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
			fmt.Sprintf("search error: %s", strings.TrimSpace(string(body))), resp.StatusCode, nil)
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", providers.NewAPIError(providerName, "UNMARSHAL_ERROR", "failed to unmarshal response", resp.StatusCode, err)
	}

	if len(result.Organic) == 0 {
		c.logger.Warn("no organic results", zap.String("query", query))
		return NoResultsSentinel, nil
	}

	limit := maxResults
	if len(result.Organic) < limit {
		limit = len(result.Organic)
	}
	lines := make([]string, 0, limit)
	for _, r := range result.Organic[:limit] {
		lines = append(lines, fmt.Sprintf("%s - %s", r.Title, r.Link))
	}

	c.logger.Debug("search completed",
		zap.String("query", query),
		zap.Int("results", limit))

	return strings.Join(lines, "\n"), nil
}
