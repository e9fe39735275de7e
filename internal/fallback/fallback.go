// Package fallback synthesizes plausible quotes when every live source
// has failed, so callers always get something to display.
package fallback

import (
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"quotegateway/internal/provider"
	"quotegateway/internal/reference"
)

// Source is the Quote.Source value of synthesized quotes.
const Source = "fallback"

// basePrices anchors the featured universe near recent real closes.
var basePrices = map[string]float64{
	"AAPL": 229.87, "MSFT": 417.46, "GOOGL": 165.39, "META": 563.33,
	"NVDA": 124.92, "AMZN": 186.51, "TSLA": 238.77, "F": 10.98,
	"GM": 48.25, "DIS": 94.69, "NFLX": 701.02, "WMT": 80.14,
	"KO": 69.88, "PEP": 169.74, "MCD": 291.05, "SBUX": 95.67,
	"NKE": 79.63, "JPM": 214.32, "BAC": 40.12, "JNJ": 160.08,
	"PFE": 28.94, "XOM": 117.83, "BA": 155.26, "PG": 170.31,
	"UL": 63.95,
}

// Bounds for synthesized values.
const (
	anchoredMaxMove = 0.02
	genericMaxMove  = 0.03
	genericMinPrice = 20.0
	genericMaxPrice = 320.0
	minVolume       = 1_000_000
	maxVolume       = 50_000_000
)

// Synthesizer builds fallback quotes. It is safe for concurrent use.
type Synthesizer struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithRand replaces the random source, mostly for tests.
func WithRand(r *rand.Rand) Option {
	return func(s *Synthesizer) { s.rnd = r }
}

// WithClock sets the timestamp source for ReceivedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Synthesizer) { s.now = now }
}

// New creates a Synthesizer seeded from the wall clock.
func New(opts ...Option) *Synthesizer {
	seed := uint64(time.Now().UnixNano())
	s := &Synthesizer{
		rnd: rand.New(rand.NewPCG(seed, seed>>1|1)),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BasePrice returns the curated anchor price for symbol, if any.
func BasePrice(symbol string) (float64, bool) {
	p, ok := basePrices[strings.ToUpper(strings.TrimSpace(symbol))]
	return p, ok
}

// Quote synthesizes a quote for symbol. Price, change and percent are
// always mutually consistent; volume is random within a plausible range.
func (s *Synthesizer) Quote(symbol string) provider.Quote {
	sym := strings.ToUpper(strings.TrimSpace(symbol))

	s.mu.Lock()
	prev, anchored := basePrices[sym]
	maxMove := anchoredMaxMove
	if !anchored {
		prev = genericMinPrice + s.rnd.Float64()*(genericMaxPrice-genericMinPrice)
		maxMove = genericMaxMove
	}
	move := (s.rnd.Float64()*2 - 1) * maxMove
	volume := minVolume + s.rnd.Int64N(maxVolume-minVolume)
	s.mu.Unlock()

	name := reference.Name(sym)
	if sym == "" {
		name = "Unknown"
	}
	q, err := provider.Normalize(provider.Fields{
		Symbol:        sym,
		Name:          name,
		Sector:        reference.Sector(sym),
		Source:        Source,
		Price:         prev * (1 + move),
		PreviousClose: provider.Float(prev),
		Volume:        volume,
		ReceivedAt:    s.now().UTC(),
	})
	if err != nil {
		// prev is at least genericMinPrice and move is bounded, so this only
		// happens on a broken random source.
		q, _ = provider.Normalize(provider.Fields{
			Symbol: sym, Name: name, Sector: reference.Sector(sym), Source: Source,
			Price: genericMinPrice, Volume: volume, ReceivedAt: s.now().UTC(),
		})
	}
	return q
}
