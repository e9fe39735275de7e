package fmp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ErrRateLimited is returned when the API answers 429.
var ErrRateLimited = errors.New("rate limited")

// ErrUnauthorized is returned for 401/403 answers, usually a bad key.
var ErrUnauthorized = errors.New("unauthorized")

// Quote is one element of the /v3/quote response.
type Quote struct {
	Symbol            string   `json:"symbol"`
	Name              string   `json:"name"`
	Price             *float64 `json:"price"`
	ChangesPercentage *float64 `json:"changesPercentage"`
	Change            *float64 `json:"change"`
	DayLow            *float64 `json:"dayLow"`
	DayHigh           *float64 `json:"dayHigh"`
	Open              *float64 `json:"open"`
	PreviousClose     *float64 `json:"previousClose"`
	MarketCap         *float64 `json:"marketCap"`
	Volume            *float64 `json:"volume"`
	Timestamp         *int64   `json:"timestamp"`
}

// SearchHit is one element of the /v3/search response.
type SearchHit struct {
	Symbol            string `json:"symbol"`
	Name              string `json:"name"`
	Currency          string `json:"currency"`
	StockExchange     string `json:"stockExchange"`
	ExchangeShortName string `json:"exchangeShortName"`
}

// GetQuotes retrieves quotes for several symbols in one request.
func (c *Client) GetQuotes(ctx context.Context, symbols []string, opts ...ClientOption) ([]Quote, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols")
	}
	var override = &Client{
		baseURL:     c.baseURL,
		httpClient:  c.httpClient,
		header:      c.header.Clone(),
		query:       c.query,
		key:         c.key,
		keyInHeader: c.keyInHeader,
	}
	for _, opt := range opts {
		opt(override)
	}

	escaped := make([]string, len(symbols))
	for i, s := range symbols {
		escaped[i] = url.PathEscape(strings.ToUpper(strings.TrimSpace(s)))
	}
	query := maps.Clone(override.query)
	header := override.header.Clone()
	override.authorize(query, header)
	u := fmt.Sprintf("%s/v3/quote/%s?%s", override.baseURL, strings.Join(escaped, ","), query.Encode())

	var quotes []Quote
	if err := override.getJSON(ctx, u, header, &quotes); err != nil {
		return nil, err
	}
	return quotes, nil
}

// Search retrieves ticker matches for a free-text query.
func (c *Client) Search(ctx context.Context, q string, limit int, opts ...ClientOption) ([]SearchHit, error) {
	var override = &Client{
		baseURL:     c.baseURL,
		httpClient:  c.httpClient,
		header:      c.header.Clone(),
		query:       c.query,
		key:         c.key,
		keyInHeader: c.keyInHeader,
	}
	for _, opt := range opts {
		opt(override)
	}

	query := maps.Clone(override.query)
	header := override.header.Clone()
	override.authorize(query, header)
	query.Set("query", q)
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	u := fmt.Sprintf("%s/v3/search?%s", override.baseURL, query.Encode())

	var hits []SearchHit
	if err := override.getJSON(ctx, u, header, &hits); err != nil {
		return nil, err
	}
	return hits, nil
}

func (c *Client) getJSON(ctx context.Context, u string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header = header
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		break

	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized

	case http.StatusTooManyRequests:
		return ErrRateLimited

	default:
		return fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	// Errors come back as 200 with an object instead of the usual array:
	// {"Error Message": "Limit Reach ..."}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '{' {
		var apiErr map[string]any
		if err := json.Unmarshal(trimmed, &apiErr); err != nil {
			return fmt.Errorf("decoding error object: %w", err)
		}
		if msg, ok := apiErr["Error Message"].(string); ok {
			if strings.Contains(strings.ToLower(msg), "limit") {
				return fmt.Errorf("%w: %s", ErrRateLimited, msg)
			}
			return fmt.Errorf("api error: %s", msg)
		}
		return fmt.Errorf("unexpected object response")
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
