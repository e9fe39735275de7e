package provider

import (
	"context"
	"time"
)

// Quote is the normalized shape returned by all providers and the fallback
// synthesizer. Build it with Normalize so price, change and percent agree.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	Volume        int64     `json:"volume"`
	MarketCap     *float64  `json:"marketCap,omitempty"`
	Sector        string    `json:"sector"`
	High          *float64  `json:"high,omitempty"`
	Low           *float64  `json:"low,omitempty"`
	Open          *float64  `json:"open,omitempty"`
	PreviousClose *float64  `json:"previousClose,omitempty"`
	Source        string    `json:"source"`
	ReceivedAt    time.Time `json:"receivedAt"`
}

// Clone returns a copy of q that shares no memory with it.
func (q Quote) Clone() Quote {
	q.MarketCap = clonePtr(q.MarketCap)
	q.High = clonePtr(q.High)
	q.Low = clonePtr(q.Low)
	q.Open = clonePtr(q.Open)
	q.PreviousClose = clonePtr(q.PreviousClose)
	return q
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// SearchResult is a display-oriented symbol match.
type SearchResult struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Region      string `json:"region"`
	MarketOpen  string `json:"marketOpen"`
	MarketClose string `json:"marketClose"`
	Timezone    string `json:"timezone"`
	Currency    string `json:"currency"`
	MatchScore  string `json:"matchScore"`
}

// Provider resolves symbols to quotes. Symbols it cannot resolve are simply
// absent from the result; an error means the whole call failed.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, symbols []string) ([]Quote, error)
}

// BatchProvider is a Provider whose upstream answers many symbols in one call.
type BatchProvider interface {
	Provider
	SupportsBatch() bool
}

// Searcher looks up symbols matching a free-text query.
type Searcher interface {
	Name() string
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// IsBatch reports whether p prefers one call for many symbols.
func IsBatch(p Provider) bool {
	bp, ok := p.(BatchProvider)
	return ok && bp.SupportsBatch()
}

// US equity defaults shared by every search source.
const (
	DefaultType        = "Equity"
	DefaultRegion      = "United States"
	DefaultMarketOpen  = "09:30"
	DefaultMarketClose = "16:00"
	DefaultTimezone    = "UTC-04"
	DefaultCurrency    = "USD"
)

// NewSearchResult fills the US equity defaults around symbol and name.
func NewSearchResult(symbol, name, score string) SearchResult {
	if score == "" {
		score = "1.0000"
	}
	return SearchResult{
		Symbol:      symbol,
		Name:        name,
		Type:        DefaultType,
		Region:      DefaultRegion,
		MarketOpen:  DefaultMarketOpen,
		MarketClose: DefaultMarketClose,
		Timezone:    DefaultTimezone,
		Currency:    DefaultCurrency,
		MatchScore:  score,
	}
}
