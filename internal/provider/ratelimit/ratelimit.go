package ratelimit

import (
	"context"
	"time"

	"quotegateway/internal/provider"
)

// Provider gates a quote provider behind a limiter.
type Provider struct {
	P provider.Provider
	L Limiter
}

func (p *Provider) Name() string { return p.P.Name() }

func (p *Provider) Fetch(ctx context.Context, symbols []string) ([]provider.Quote, error) {
	if p.L != nil {
		if err := p.L.Wait(ctx); err != nil {
			return nil, provider.NewError(p.P.Name(), provider.ErrTransport, "rate limit wait", err)
		}
	}
	return p.P.Fetch(ctx, symbols)
}

// SupportsBatch forwards the wrapped provider's batch capability.
func (p *Provider) SupportsBatch() bool { return provider.IsBatch(p.P) }

// Searcher gates a search source behind a limiter. Share the limiter with the
// matching Provider when both hit the same upstream budget.
type Searcher struct {
	S provider.Searcher
	L Limiter
}

func (s *Searcher) Name() string { return s.S.Name() }

func (s *Searcher) Search(ctx context.Context, query string) ([]provider.SearchResult, error) {
	if s.L != nil {
		if err := s.L.Wait(ctx); err != nil {
			return nil, provider.NewError(s.S.Name(), provider.ErrTransport, "rate limit wait", err)
		}
	}
	return s.S.Search(ctx, query)
}

// FromBudget picks a limiter: a token bucket when rpm > 0, otherwise a
// minimum interval when minInterval > 0, otherwise nil (unlimited).
func FromBudget(rpm, burst int, minInterval time.Duration) Limiter {
	switch {
	case rpm > 0:
		return PerMinute(rpm, burst)
	case minInterval > 0:
		return &MinInterval{Interval: minInterval}
	default:
		return nil
	}
}

// Wrap applies l to p and s. Nil limiters leave them untouched; a nil s stays nil.
func Wrap(p provider.Provider, s provider.Searcher, l Limiter) (provider.Provider, provider.Searcher) {
	if l == nil {
		return p, s
	}
	var wp provider.Provider
	if p != nil {
		wp = &Provider{P: p, L: l}
	}
	var ws provider.Searcher
	if s != nil {
		ws = &Searcher{S: s, L: l}
	}
	return wp, ws
}
