// Package yahoo reads quotes from the public chart endpoint and symbol
// matches from the search endpoint.
package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"quotegateway/internal/httpx"
	"quotegateway/internal/provider"
	"quotegateway/internal/reference"
)

// Config controls the Yahoo provider behavior.
type Config struct {
	Name        string
	BaseURL     string // default https://query1.finance.yahoo.com
	Range       string // chart range; must cover the previous session
	Interval    string
	SearchLimit int
}

// Provider fetches one chart per symbol; the upstream has no batch quote
// endpoint that works without a session cookie.
type Provider struct {
	cfg    Config
	client *httpx.Client
	now    func() time.Time
}

func New(cfg Config, hc *httpx.Client) *Provider {
	if cfg.Name == "" {
		cfg.Name = "Yahoo"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://query1.finance.yahoo.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Range == "" {
		cfg.Range = "5d"
	}
	if cfg.Interval == "" {
		cfg.Interval = "1d"
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 10
	}
	return &Provider{cfg: cfg, client: hc, now: time.Now}
}

func (p *Provider) Name() string { return p.cfg.Name }

// Fetch returns a quote for each symbol the chart endpoint could price. It
// fails only when none could be priced.
func (p *Provider) Fetch(ctx context.Context, symbols []string) ([]provider.Quote, error) {
	out := make([]provider.Quote, 0, len(symbols))
	var lastErr error
	for _, s := range symbols {
		q, err := p.fetchOne(ctx, s)
		if err != nil {
			lastErr = provider.WithProvider(p.cfg.Name, err)
			continue
		}
		out = append(out, q)
	}
	if len(out) == 0 {
		if lastErr == nil {
			lastErr = provider.NewError(p.cfg.Name, provider.ErrNoData, "no symbols requested", nil)
		}
		return nil, lastErr
	}
	return out, nil
}

func (p *Provider) fetchOne(ctx context.Context, symbol string) (provider.Quote, error) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	q := url.Values{}
	q.Set("range", p.cfg.Range)
	q.Set("interval", p.cfg.Interval)
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", p.cfg.BaseURL, url.PathEscape(sym), q.Encode())

	var body chartResponse
	if err := p.client.GetJSON(ctx, u, &body); err != nil {
		return provider.Quote{}, err
	}
	if body.Chart.Error != nil {
		return provider.Quote{}, provider.NewError(p.cfg.Name, provider.ErrNoData,
			fmt.Sprintf("%s: %s", body.Chart.Error.Code, body.Chart.Error.Description), nil)
	}
	if len(body.Chart.Result) == 0 {
		return provider.Quote{}, provider.NewError(p.cfg.Name, provider.ErrNoData, "empty chart result for "+sym, nil)
	}
	return parseChart(sym, body.Chart.Result[0], p.cfg.Name, p.now().UTC())
}

// parseChart prefers the meta block and falls back to the close series:
// price is the last close, previous close the one before it.
func parseChart(sym string, r chartResult, source string, now time.Time) (provider.Quote, error) {
	var closes []float64
	if len(r.Indicators.Quote) > 0 {
		for _, c := range r.Indicators.Quote[0].Close {
			if c != nil {
				closes = append(closes, *c)
			}
		}
	}

	price := deref(r.Meta.RegularMarketPrice)
	if price <= 0 && len(closes) > 0 {
		price = closes[len(closes)-1]
	}

	var prev *float64
	switch {
	case r.Meta.PreviousClose != nil && *r.Meta.PreviousClose > 0:
		prev = r.Meta.PreviousClose
	case len(closes) >= 2:
		prev = provider.Float(closes[len(closes)-2])
	case r.Meta.ChartPreviousClose != nil && *r.Meta.ChartPreviousClose > 0:
		// close before the chart range; only right for a one-day range
		prev = r.Meta.ChartPreviousClose
	}

	name := r.Meta.LongName
	if name == "" {
		name = r.Meta.ShortName
	}
	if name == "" {
		name = reference.Name(sym)
	}

	ts := now
	if r.Meta.RegularMarketTime > 0 {
		ts = time.Unix(r.Meta.RegularMarketTime, 0).UTC()
	}

	q, err := provider.Normalize(provider.Fields{
		Symbol:        sym,
		Name:          name,
		Sector:        reference.Sector(sym),
		Source:        source,
		Price:         price,
		PreviousClose: prev,
		Volume:        r.Meta.RegularMarketVolume,
		MarketCap:     r.Meta.MarketCap,
		High:          r.Meta.RegularMarketDayHigh,
		Low:           r.Meta.RegularMarketDayLow,
		Open:          r.Meta.RegularMarketOpen,
		ReceivedAt:    ts,
	})
	if err != nil {
		return provider.Quote{}, provider.WithProvider(source, err)
	}
	return q, nil
}

// Search asks the upstream for symbol matches. Scores are rescaled so the
// best match reads 1.0000.
func (p *Provider) Search(ctx context.Context, query string) ([]provider.SearchResult, error) {
	q := url.Values{}
	q.Set("q", strings.TrimSpace(query))
	q.Set("quotesCount", fmt.Sprintf("%d", p.cfg.SearchLimit))
	q.Set("newsCount", "0")
	u := fmt.Sprintf("%s/v1/finance/search?%s", p.cfg.BaseURL, q.Encode())

	var body searchResponse
	if err := p.client.GetJSON(ctx, u, &body); err != nil {
		return nil, provider.WithProvider(p.cfg.Name, err)
	}

	top := 0.0
	for _, m := range body.Quotes {
		if m.Score > top {
			top = m.Score
		}
	}
	out := make([]provider.SearchResult, 0, len(body.Quotes))
	for _, m := range body.Quotes {
		if m.Symbol == "" {
			continue
		}
		if len(out) >= p.cfg.SearchLimit {
			break
		}
		name := m.LongName
		if name == "" {
			name = m.ShortName
		}
		score := "1.0000"
		if top > 0 {
			score = fmt.Sprintf("%.4f", m.Score/top)
		}
		r := provider.NewSearchResult(m.Symbol, name, score)
		if m.TypeDisp != "" {
			r.Type = m.TypeDisp
		}
		out = append(out, r)
	}
	return out, nil
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol               string   `json:"symbol"`
		LongName             string   `json:"longName"`
		ShortName            string   `json:"shortName"`
		RegularMarketPrice   *float64 `json:"regularMarketPrice"`
		PreviousClose        *float64 `json:"previousClose"`
		ChartPreviousClose   *float64 `json:"chartPreviousClose"`
		RegularMarketVolume  int64    `json:"regularMarketVolume"`
		RegularMarketDayHigh *float64 `json:"regularMarketDayHigh"`
		RegularMarketDayLow  *float64 `json:"regularMarketDayLow"`
		RegularMarketOpen    *float64 `json:"regularMarketOpen"`
		RegularMarketTime    int64    `json:"regularMarketTime"`
		MarketCap            *float64 `json:"marketCap"`
	} `json:"meta"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

type searchResponse struct {
	Quotes []struct {
		Symbol    string  `json:"symbol"`
		ShortName string  `json:"shortname"`
		LongName  string  `json:"longname"`
		QuoteType string  `json:"quoteType"`
		TypeDisp  string  `json:"typeDisp"`
		Score     float64 `json:"score"`
	} `json:"quotes"`
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
