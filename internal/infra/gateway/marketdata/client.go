// Package marketdata fetches current quotes from an external price API.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/foliotrack/foliotrack/pkg/logger"
)

// Client talks to the quote API over HTTP
type Client struct {
	client *resty.Client
	logger *logger.Logger
}

// Config holds connection settings for the quote API
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NewClient creates a quote API client
func NewClient(cfg Config, log *logger.Logger) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Accept", "application/json")

	if cfg.APIKey != "" {
		client.SetHeader("X-Api-Key", cfg.APIKey)
	}

	return &Client{
		client: client,
		logger: log.WithField("component", "marketdata"),
	}
}

// quoteResponse mirrors the quote API payload
type quoteResponse struct {
	Quotes []struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	} `json:"quotes"`
}

// Quotes returns the current price per ticker. Tickers the API does not know
// are absent from the result; individual bad entries are skipped.
func (c *Client) Quotes(ctx context.Context, tickers []string) (map[string]decimal.Decimal, error) {
	if len(tickers) == 0 {
		return map[string]decimal.Decimal{}, nil
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("symbols", strings.Join(tickers, ",")).
		Get("/quotes")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quotes: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("quote API returned status %d", resp.StatusCode())
	}

	var payload quoteResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("failed to decode quote response: %w", err)
	}

	result := make(map[string]decimal.Decimal, len(payload.Quotes))
	for _, q := range payload.Quotes {
		price, err := decimal.NewFromString(q.Price)
		if err != nil {
			c.logger.Warn("skipping unparseable quote", "symbol", q.Symbol, "price", q.Price)
			continue
		}
		result[strings.ToUpper(q.Symbol)] = price
	}

	return result, nil
}
