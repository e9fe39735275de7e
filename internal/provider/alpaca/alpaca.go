// Package alpaca prices symbols from Alpaca market data snapshots.
package alpaca

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"quotegateway/internal/provider"
	"quotegateway/internal/reference"
)

// SnapshotClient is the slice of *marketdata.Client the provider needs.
type SnapshotClient interface {
	GetSnapshots(symbols []string, req marketdata.GetSnapshotRequest) (map[string]*marketdata.Snapshot, error)
}

type Config struct {
	Name      string
	APIKey    string
	APISecret string
	BaseURL   string // default data.alpaca.markets
	Feed      string // iex (free) or sip
}

type Provider struct {
	cfg    Config
	client SnapshotClient
	now    func() time.Time
}

// New builds a provider on the official client.
func New(cfg Config) *Provider {
	return NewWithClient(cfg, marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
		BaseURL:   cfg.BaseURL,
	}))
}

func NewWithClient(cfg Config, c SnapshotClient) *Provider {
	if cfg.Name == "" {
		cfg.Name = "Alpaca"
	}
	if cfg.Feed == "" {
		cfg.Feed = marketdata.IEX
	}
	return &Provider{cfg: cfg, client: c, now: time.Now}
}

func (p *Provider) Name() string { return p.cfg.Name }

// SupportsBatch is true: one snapshot call covers every symbol.
func (p *Provider) SupportsBatch() bool { return true }

type snapshotResult struct {
	snaps map[string]*marketdata.Snapshot
	err   error
}

func (p *Provider) Fetch(ctx context.Context, symbols []string) ([]provider.Quote, error) {
	syms := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			syms = append(syms, s)
		}
	}
	if len(syms) == 0 {
		return nil, provider.NewError(p.cfg.Name, provider.ErrNoData, "no symbols requested", nil)
	}

	// The client call takes no context; abandon it when ctx ends.
	done := make(chan snapshotResult, 1)
	go func() {
		snaps, err := p.client.GetSnapshots(syms, marketdata.GetSnapshotRequest{Feed: p.cfg.Feed})
		done <- snapshotResult{snaps: snaps, err: err}
	}()

	var res snapshotResult
	select {
	case <-ctx.Done():
		return nil, provider.NewError(p.cfg.Name, provider.ErrTransport, "request aborted", ctx.Err())
	case res = <-done:
	}
	if res.err != nil {
		return nil, provider.NewError(p.cfg.Name, provider.ErrTransport, "get snapshots", res.err)
	}

	out := make([]provider.Quote, 0, len(syms))
	var lastErr error
	for _, sym := range syms {
		snap := res.snaps[sym]
		if snap == nil {
			continue
		}
		q, err := p.toQuote(sym, snap)
		if err != nil {
			lastErr = err
			continue
		}
		out = append(out, q)
	}
	if len(out) == 0 {
		if lastErr == nil {
			lastErr = provider.NewError(p.cfg.Name, provider.ErrNoData, fmt.Sprintf("no snapshots for %v", syms), nil)
		}
		return nil, lastErr
	}
	return out, nil
}

func (p *Provider) toQuote(sym string, s *marketdata.Snapshot) (provider.Quote, error) {
	f := provider.Fields{
		Symbol:     sym,
		Name:       reference.Name(sym),
		Sector:     reference.Sector(sym),
		Source:     p.cfg.Name,
		ReceivedAt: p.now().UTC(),
	}
	if t := s.LatestTrade; t != nil && t.Price > 0 {
		f.Price = t.Price
		if !t.Timestamp.IsZero() {
			f.ReceivedAt = t.Timestamp.UTC()
		}
	}
	if b := s.DailyBar; b != nil {
		if f.Price <= 0 {
			f.Price = b.Close
		}
		f.High = provider.Float(b.High)
		f.Low = provider.Float(b.Low)
		f.Open = provider.Float(b.Open)
		f.Volume = int64(b.Volume)
	}
	if b := s.PrevDailyBar; b != nil {
		f.PreviousClose = provider.Float(b.Close)
	}
	q, err := provider.Normalize(f)
	if err != nil {
		return provider.Quote{}, provider.WithProvider(p.cfg.Name, err)
	}
	return q, nil
}
