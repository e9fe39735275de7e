// Package fmpadapter turns Financial Modeling Prep responses into normalized
// quotes and search results.
package fmpadapter

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"quotegateway/internal/provider"
	"quotegateway/internal/provider/fmp"
	"quotegateway/internal/reference"
)

type Config struct {
	Name string // display name, default: FMP
	// MaxItemsPerRequest splits large symbol lists into several quote calls.
	// 0 or negative means one call.
	MaxItemsPerRequest int
	// MaxConcurrency limits concurrent calls when splitting. Defaults to 1.
	MaxConcurrency int
	SearchLimit    int
}

type Adapter struct {
	cfg    Config
	client *fmp.Client
	now    func() time.Time
}

func New(cfg Config, client *fmp.Client) *Adapter {
	if cfg.Name == "" {
		cfg.Name = "FMP"
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 1
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 10
	}
	return &Adapter{cfg: cfg, client: client, now: time.Now}
}

func (a *Adapter) Name() string { return a.cfg.Name }

// SupportsBatch is true: the quote endpoint takes a comma-separated list.
func (a *Adapter) SupportsBatch() bool { return true }

func (a *Adapter) Fetch(ctx context.Context, symbols []string) ([]provider.Quote, error) {
	uniq := make([]string, 0, len(symbols))
	seen := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		uniq = append(uniq, s)
	}
	if len(uniq) == 0 {
		return nil, provider.NewError(a.cfg.Name, provider.ErrNoData, "no symbols requested", nil)
	}

	var (
		mu       sync.Mutex
		raw      = make(map[string]fmp.Quote, len(uniq))
		firstErr error
	)
	doBatch := func(keys []string) {
		qs, err := a.client.GetQuotes(ctx, keys)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return
		}
		for _, q := range qs {
			raw[strings.ToUpper(q.Symbol)] = q
		}
	}

	batches := chunkStrings(uniq, a.cfg.MaxItemsPerRequest)
	if len(batches) == 1 {
		doBatch(batches[0])
	} else {
		sem := make(chan struct{}, a.cfg.MaxConcurrency)
		var wg sync.WaitGroup
		for _, b := range batches {
			wg.Add(1)
			go func() {
				defer wg.Done()
				select {
				case sem <- struct{}{}:
					defer func() { <-sem }()
				case <-ctx.Done():
					mu.Lock()
					if firstErr == nil {
						firstErr = ctx.Err()
					}
					mu.Unlock()
					return
				}
				doBatch(b)
			}()
		}
		wg.Wait()
	}

	now := a.now().UTC()
	out := make([]provider.Quote, 0, len(uniq))
	var lastErr error
	for _, sym := range uniq {
		r, ok := raw[sym]
		if !ok {
			continue
		}
		q, err := a.toQuote(sym, r, now)
		if err != nil {
			lastErr = err
			continue
		}
		out = append(out, q)
	}
	if len(out) > 0 {
		return out, nil
	}
	switch {
	case firstErr != nil:
		return nil, a.wrap(firstErr)
	case lastErr != nil:
		return nil, lastErr
	default:
		return nil, provider.NewError(a.cfg.Name, provider.ErrNoData, "no quotes returned", nil)
	}
}

func (a *Adapter) toQuote(sym string, r fmp.Quote, now time.Time) (provider.Quote, error) {
	if r.Price == nil {
		return provider.Quote{}, provider.NewError(a.cfg.Name, provider.ErrNoPrice, "missing price for "+sym, nil)
	}
	name := strings.TrimSpace(r.Name)
	if name == "" {
		name = reference.Name(sym)
	}
	ts := now
	if r.Timestamp != nil && *r.Timestamp > 0 {
		ts = time.Unix(*r.Timestamp, 0).UTC()
	}
	var vol int64
	if r.Volume != nil && *r.Volume > 0 {
		vol = int64(*r.Volume)
	}
	q, err := provider.Normalize(provider.Fields{
		Symbol:        sym,
		Name:          name,
		Sector:        reference.Sector(sym),
		Source:        a.cfg.Name,
		Price:         *r.Price,
		PreviousClose: r.PreviousClose,
		Change:        r.Change,
		Volume:        vol,
		MarketCap:     r.MarketCap,
		High:          r.DayHigh,
		Low:           r.DayLow,
		Open:          r.Open,
		ReceivedAt:    ts,
	})
	if err != nil {
		return provider.Quote{}, provider.WithProvider(a.cfg.Name, err)
	}
	return q, nil
}

// Search maps the ticker search endpoint. Hits keep the upstream order and
// get a linearly decreasing score.
func (a *Adapter) Search(ctx context.Context, query string) ([]provider.SearchResult, error) {
	hits, err := a.client.Search(ctx, strings.TrimSpace(query), a.cfg.SearchLimit)
	if err != nil {
		return nil, a.wrap(err)
	}
	out := make([]provider.SearchResult, 0, len(hits))
	for _, h := range hits {
		if h.Symbol == "" {
			continue
		}
		name := h.Name
		if name == "" {
			name = h.Symbol
		}
		score := 1 - float64(len(out))/float64(max(len(hits), 1))
		r := provider.NewSearchResult(h.Symbol, name, formatScore(score))
		if h.Currency != "" {
			r.Currency = h.Currency
		}
		out = append(out, r)
		if len(out) == a.cfg.SearchLimit {
			break
		}
	}
	return out, nil
}

func (a *Adapter) wrap(err error) error {
	switch {
	case errors.Is(err, fmp.ErrRateLimited):
		return provider.NewError(a.cfg.Name, provider.ErrStatus, "rate limited", err)
	case errors.Is(err, fmp.ErrUnauthorized):
		return provider.NewError(a.cfg.Name, provider.ErrConfig, "api key rejected", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return provider.NewError(a.cfg.Name, provider.ErrTransport, "request aborted", err)
	case strings.Contains(err.Error(), "decoding"):
		return provider.NewError(a.cfg.Name, provider.ErrDecode, "bad response", err)
	case strings.Contains(err.Error(), "performing request"):
		return provider.NewError(a.cfg.Name, provider.ErrTransport, "request failed", err)
	default:
		return provider.NewError(a.cfg.Name, provider.ErrStatus, "request failed", err)
	}
}

func formatScore(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }

func chunkStrings(in []string, size int) [][]string {
	if size <= 0 || len(in) <= size {
		return [][]string{in}
	}
	out := make([][]string, 0, (len(in)+size-1)/size)
	for i := 0; i < len(in); i += size {
		j := min(i+size, len(in))
		out = append(out, in[i:j])
	}
	return out
}
