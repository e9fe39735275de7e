package fmp

import (
	"net/http"
	"net/url"
)

const baseURL = "https://financialmodelingprep.com/api"

// demoKey is FMP's public key. It only serves a handful of large caps.
const demoKey = "demo"

// keyParam is both the query parameter and the header FMP reads the key from.
const keyParam = "apikey"

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=fmp_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a client for the Financial Modeling Prep API.
type Client struct {
	// baseURL is the base URL for the API.
	baseURL string
	// httpClient is the HTTP client.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
	// query contains additional query parameters to be sent with each request.
	query url.Values
	// key is the API key.
	key string
	// keyInHeader sends the key as a header instead of a query parameter,
	// keeping it out of access logs and proxy URLs.
	keyInHeader bool
}

// ClientOption is a configuration option for the client.
type ClientOption func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) ClientOption {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// WithAPIKey replaces the API key. Empty keeps the current one.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		if key != "" {
			c.key = key
		}
	}
}

// WithKeyInHeader sends the API key in the apikey header.
func WithKeyInHeader() ClientOption {
	return func(c *Client) {
		c.keyInHeader = true
	}
}

// NewClient creates a new Financial Modeling Prep client. An empty key falls
// back to the demo key.
func NewClient(key string, options ...ClientOption) (*Client, error) {
	var client = &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
		query:      url.Values{},
		key:        demoKey,
	}
	WithAPIKey(key)(client)
	for _, option := range options {
		option(client)
	}
	return client, nil
}

// authorize places the key on either the query or the header of a request.
func (c *Client) authorize(query url.Values, header http.Header) {
	if c.keyInHeader {
		query.Del(keyParam)
		header.Set(keyParam, c.key)
		return
	}
	query.Set(keyParam, c.key)
}
