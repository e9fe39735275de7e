// Package gateway answers quote, search and market-status questions for the
// rest of the application. It never fails: when every provider is down it
// serves a synthesized quote.
package gateway

//go:generate mockgen -package=gateway_test -destination=mock_provider_test.go -source=../provider/provider.go

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"quotegateway/internal/aggregate"
	"quotegateway/internal/cache"
	"quotegateway/internal/fallback"
	"quotegateway/internal/logger"
	"quotegateway/internal/metrics"
	"quotegateway/internal/provider"
	"quotegateway/internal/reference"
)

// TrendingSymbols is the fixed watchlist behind TrendingStocks.
var TrendingSymbols = []string{"AAPL", "MSFT", "GOOGL", "TSLA", "DIS", "NFLX", "AMZN", "META"}

// Polling cadence suggested to callers.
const (
	OpenRefreshInterval   = 30 * time.Second
	ClosedRefreshInterval = 5 * time.Minute
)

// SharedCache is a cache tier shared between processes, such as *cache.Redis.
type SharedCache interface {
	Load(ctx context.Context, symbol string) (cache.Entry, bool, error)
	Store(ctx context.Context, symbol string, e cache.Entry) error
}

type Gateway struct {
	providers []provider.Provider
	searchers []provider.Searcher
	cache     *cache.Quotes
	shared    SharedCache
	synth     *fallback.Synthesizer
	log       logrus.FieldLogger

	now            func() time.Time
	loc            *time.Location
	openHour       int
	closeHour      int
	cacheTTL       time.Duration
	attemptTimeout time.Duration
	pageSize       int
	searchLimit    int
	concurrency    int

	group singleflight.Group
}

type Option func(*Gateway)

// WithProviders sets the quote sources, tried in the given order.
func WithProviders(ps ...provider.Provider) Option {
	return func(g *Gateway) { g.providers = append(g.providers, ps...) }
}

// WithSearchers sets the search sources, tried in the given order.
func WithSearchers(ss ...provider.Searcher) Option {
	return func(g *Gateway) { g.searchers = append(g.searchers, ss...) }
}

// WithCache uses c instead of a private cache.
func WithCache(c *cache.Quotes) Option { return func(g *Gateway) { g.cache = c } }

func WithCacheTTL(ttl time.Duration) Option { return func(g *Gateway) { g.cacheTTL = ttl } }

func WithSharedCache(s SharedCache) Option { return func(g *Gateway) { g.shared = s } }

func WithSynthesizer(s *fallback.Synthesizer) Option { return func(g *Gateway) { g.synth = s } }

func WithClock(now func() time.Time) Option { return func(g *Gateway) { g.now = now } }

// WithLocation sets the zone market hours are read in.
func WithLocation(loc *time.Location) Option { return func(g *Gateway) { g.loc = loc } }

// WithMarketHours sets the open interval [open, close) in whole hours.
func WithMarketHours(open, close int) Option {
	return func(g *Gateway) { g.openHour, g.closeHour = open, close }
}

// WithAttemptTimeout bounds each provider call.
func WithAttemptTimeout(d time.Duration) Option { return func(g *Gateway) { g.attemptTimeout = d } }

// WithPageSizes sets the blank-query page and the search result cap.
func WithPageSizes(page, search int) Option {
	return func(g *Gateway) { g.pageSize, g.searchLimit = page, search }
}

// WithConcurrency caps per-symbol lookups running at once in batch calls.
func WithConcurrency(n int) Option { return func(g *Gateway) { g.concurrency = n } }

func WithLogger(l logrus.FieldLogger) Option { return func(g *Gateway) { g.log = l } }

func New(opts ...Option) *Gateway {
	g := &Gateway{
		now:            time.Now,
		loc:            time.Local,
		openHour:       9,
		closeHour:      16,
		cacheTTL:       cache.DefaultTTL,
		attemptTimeout: 5 * time.Second,
		pageSize:       12,
		searchLimit:    10,
		concurrency:    8,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.cache == nil {
		g.cache = cache.New(g.cacheTTL)
		g.cache.Now = g.now
	}
	if g.synth == nil {
		g.synth = fallback.New(fallback.WithClock(g.now))
	}
	if g.log == nil {
		g.log = logger.GetLogger()
	}
	if g.loc == nil {
		g.loc = time.Local
	}
	return g
}

// ProviderNames lists the configured quote sources in priority order.
func (g *Gateway) ProviderNames() []string {
	out := make([]string, len(g.providers))
	for i, p := range g.providers {
		out[i] = p.Name()
	}
	return out
}

// GetQuote returns a fresh cached quote, else the first provider's answer,
// else a synthesized one. Concurrent misses for one symbol share a fetch.
// If ctx ends first, the last cached quote (or an uncached synthesized one)
// is returned while the fetch carries on and fills the cache.
func (g *Gateway) GetQuote(ctx context.Context, symbol string) provider.Quote {
	sym := normalize(symbol)
	if sym == "" {
		metrics.FallbackQuotes.Inc()
		return g.synth.Quote(symbol)
	}
	if q, ok := g.cache.Fresh(sym); ok {
		metrics.CacheHits.WithLabelValues("local").Inc()
		return q
	}
	ch := g.group.DoChan(sym, func() (any, error) {
		return g.resolve(ctx, sym), nil
	})
	select {
	case r := <-ch:
		// The result is shared by every caller of the flight.
		return r.Val.(provider.Quote).Clone()
	case <-ctx.Done():
		g.log.WithField("symbol", sym).WithError(ctx.Err()).Debug("caller gave up before the fetch finished")
		return g.stale(sym, sym)
	}
}

// stale returns the cached quote for sym whatever its age, else a synthesized
// quote for in that is not cached.
func (g *Gateway) stale(sym, in string) provider.Quote {
	if sym != "" {
		if e, ok := g.cache.Get(sym); ok {
			return e.Quote
		}
	}
	metrics.FallbackQuotes.Inc()
	return g.synth.Quote(in)
}

func (g *Gateway) resolve(ctx context.Context, sym string) provider.Quote {
	// A caller going away must not abort a fetch other callers wait on.
	ctx = context.WithoutCancel(ctx)

	if q, ok := g.cache.Fresh(sym); ok {
		metrics.CacheHits.WithLabelValues("local").Inc()
		return q
	}
	if q, ok := g.loadShared(ctx, sym); ok {
		metrics.CacheHits.WithLabelValues("shared").Inc()
		return q
	}
	metrics.CacheMisses.Inc()

	for _, p := range g.providers {
		q, err := g.attempt(ctx, p, sym)
		if err != nil {
			g.log.WithFields(logrus.Fields{"symbol": sym, "provider": p.Name()}).
				WithError(err).Warn("provider failed")
			continue
		}
		return g.store(ctx, sym, q)
	}

	q := g.synth.Quote(sym)
	metrics.FallbackQuotes.Inc()
	g.log.WithField("symbol", sym).Info("all providers failed, serving synthesized quote")
	g.cache.Put(sym, q)
	return q
}

func (g *Gateway) attempt(ctx context.Context, p provider.Provider, sym string) (provider.Quote, error) {
	qs, err := g.fetch(ctx, p, []string{sym})
	if err != nil {
		return provider.Quote{}, err
	}
	if q, ok := aggregate.BySymbol(qs)[sym]; ok && q.Price > 0 {
		return q, nil
	}
	return provider.Quote{}, provider.NewError(p.Name(), provider.ErrNoData, "no quote for "+sym, nil)
}

// fetch runs one timed provider call and records exactly one outcome for it:
// error, empty when no requested symbol came back with a price, else ok.
func (g *Gateway) fetch(ctx context.Context, p provider.Provider, syms []string) ([]provider.Quote, error) {
	actx, cancel := context.WithTimeout(ctx, g.attemptTimeout)
	defer cancel()

	start := time.Now()
	qs, err := p.Fetch(actx, syms)
	metrics.ProviderLatency.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProviderAttempts.WithLabelValues(p.Name(), metrics.OutcomeError).Inc()
		return nil, err
	}
	outcome := metrics.OutcomeEmpty
	if usable(syms, qs) {
		outcome = metrics.OutcomeOK
	}
	metrics.ProviderAttempts.WithLabelValues(p.Name(), outcome).Inc()
	return qs, nil
}

func usable(syms []string, qs []provider.Quote) bool {
	by := aggregate.BySymbol(qs)
	for _, s := range syms {
		if q, ok := by[s]; ok && q.Price > 0 {
			return true
		}
	}
	return false
}

func (g *Gateway) loadShared(ctx context.Context, sym string) (provider.Quote, bool) {
	if g.shared == nil {
		return provider.Quote{}, false
	}
	sctx, cancel := context.WithTimeout(ctx, g.attemptTimeout)
	defer cancel()

	e, ok, err := g.shared.Load(sctx, sym)
	if err != nil {
		g.log.WithField("symbol", sym).WithError(err).Warn("shared cache load failed")
		return provider.Quote{}, false
	}
	if !ok || !e.Fresh(g.now(), g.cache.TTL) {
		return provider.Quote{}, false
	}
	g.cache.PutEntry(sym, e)
	return e.Quote, true
}

// store fills missing labels from reference data, then caches the quote
// locally and in the shared tier. It returns the quote as stored.
func (g *Gateway) store(ctx context.Context, sym string, q provider.Quote) provider.Quote {
	if q.Name == "" {
		q.Name = reference.Name(sym)
	}
	if q.Sector == "" {
		q.Sector = reference.Sector(sym)
	}
	e := cache.Entry{Quote: q, StoredAt: g.now()}
	g.cache.PutEntry(sym, e)
	if g.shared == nil || q.Source == fallback.Source {
		return q
	}
	sctx, cancel := context.WithTimeout(ctx, g.attemptTimeout)
	defer cancel()
	if err := g.shared.Store(sctx, sym, e); err != nil {
		g.log.WithField("symbol", sym).WithError(err).Warn("shared cache store failed")
	}
	return q
}

// GetMultipleQuotes returns one quote per input symbol, in input order.
// Cached symbols are served directly, the rest go to the first batch-capable
// provider in one call, and whatever it leaves unresolved is looked up one
// symbol at a time. If ctx ends during the batch call, the remaining symbols
// are answered from the cache or synthesized.
func (g *Gateway) GetMultipleQuotes(ctx context.Context, symbols []string) []provider.Quote {
	out := make([]provider.Quote, len(symbols))
	pending := make(map[string][]int)
	var order []string

	for i, s := range symbols {
		sym := normalize(s)
		if sym != "" {
			if q, ok := g.cache.Fresh(sym); ok {
				metrics.CacheHits.WithLabelValues("local").Inc()
				out[i] = q
				continue
			}
		}
		if _, ok := pending[sym]; !ok {
			order = append(order, sym)
		}
		pending[sym] = append(pending[sym], i)
	}

	if bp := g.batchProvider(); bp != nil && len(order) > 0 {
		done := make(chan map[string]provider.Quote, 1)
		go func() { done <- g.fillFromBatch(ctx, bp, order) }()

		select {
		case got := <-done:
			rest := order[:0:0]
			for _, sym := range order {
				q, ok := got[sym]
				if !ok {
					rest = append(rest, sym)
					continue
				}
				for _, i := range pending[sym] {
					out[i] = q.Clone()
				}
			}
			order = rest
		case <-ctx.Done():
			for _, sym := range order {
				for _, i := range pending[sym] {
					out[i] = g.stale(sym, symbols[i])
				}
			}
			return out
		}
	}

	var eg errgroup.Group
	eg.SetLimit(max(g.concurrency, 1))
	for _, sym := range order {
		idx := pending[sym]
		eg.Go(func() error {
			// Blank symbols keep the caller's spelling for the synthesized name.
			in := sym
			if in == "" {
				in = symbols[idx[0]]
			}
			q := g.GetQuote(ctx, in)
			for n, i := range idx {
				if n > 0 {
					q = q.Clone()
				}
				out[i] = q
			}
			return nil
		})
	}
	_ = eg.Wait()
	return out
}

// fillFromBatch resolves what it can with one batched call, caches it and
// returns the quotes it stored by symbol.
func (g *Gateway) fillFromBatch(ctx context.Context, bp provider.Provider, order []string) map[string]provider.Quote {
	ctx = context.WithoutCancel(ctx)
	want := make([]string, 0, len(order))
	for _, sym := range order {
		if sym != "" {
			want = append(want, sym)
		}
	}
	if len(want) == 0 {
		return nil
	}

	qs, err := g.fetch(ctx, bp, want)
	if err != nil {
		g.log.WithFields(logrus.Fields{"provider": bp.Name(), "symbols": len(want)}).
			WithError(err).Warn("batch fetch failed, falling back to single lookups")
		return nil
	}
	got := aggregate.BySymbol(qs)
	g.log.WithFields(logrus.Fields{"resolved": len(got), "requested": len(want), "sources": aggregate.Sources(qs)}).
		Debug("batch fetch")

	stored := make(map[string]provider.Quote, len(want))
	for _, sym := range want {
		q, ok := got[sym]
		if !ok || q.Price <= 0 {
			continue
		}
		stored[sym] = g.store(ctx, sym, q)
	}
	return stored
}

func (g *Gateway) batchProvider() provider.Provider {
	for _, p := range g.providers {
		if provider.IsBatch(p) {
			return p
		}
	}
	return nil
}

// SearchStocks returns the first page of the reference list for a blank
// query, else the first upstream answer with results, else local matches.
func (g *Gateway) SearchStocks(ctx context.Context, query string) []provider.SearchResult {
	q := strings.TrimSpace(query)
	if q == "" {
		all := reference.All()
		return reference.SearchResults(all[:min(g.pageSize, len(all))])
	}

	for _, s := range g.searchers {
		rs, err := g.search(ctx, s, q)
		if err != nil {
			g.log.WithFields(logrus.Fields{"query": q, "provider": s.Name()}).
				WithError(err).Warn("search failed")
			continue
		}
		if len(rs) == 0 {
			continue
		}
		return rs[:min(g.searchLimit, len(rs))]
	}

	metrics.SearchFallbacks.Inc()
	return reference.SearchResults(reference.Match(q, g.searchLimit))
}

func (g *Gateway) search(ctx context.Context, s provider.Searcher, q string) ([]provider.SearchResult, error) {
	sctx, cancel := context.WithTimeout(ctx, g.attemptTimeout)
	defer cancel()
	return s.Search(sctx, q)
}

// IsMarketOpen reports whether now falls on a weekday within market hours.
// Holidays and half days are not modeled.
func (g *Gateway) IsMarketOpen() bool {
	t := g.now().In(g.loc)
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	h := t.Hour()
	return h >= g.openHour && h < g.closeHour
}

// RefreshInterval is how often a caller should poll for new quotes.
func (g *Gateway) RefreshInterval() time.Duration {
	if g.IsMarketOpen() {
		return OpenRefreshInterval
	}
	return ClosedRefreshInterval
}

func (g *Gateway) GetStockDescription(symbol string) string {
	return reference.Description(symbol)
}

func (g *Gateway) TrendingStocks(ctx context.Context) []provider.Quote {
	return g.GetMultipleQuotes(ctx, TrendingSymbols)
}

// StocksBySector quotes every reference stock in sector.
func (g *Gateway) StocksBySector(ctx context.Context, sector string) []provider.Quote {
	return g.GetMultipleQuotes(ctx, reference.Symbols(reference.BySector(sector)))
}

func (g *Gateway) AllStocks() []reference.Stock { return reference.All() }

func normalize(symbol string) string { return strings.ToUpper(strings.TrimSpace(symbol)) }
