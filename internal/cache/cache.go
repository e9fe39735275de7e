package cache

import (
	"strings"
	"sync"
	"time"

	"quotegateway/internal/provider"
)

// DefaultTTL is how long a stored quote is served without a refetch.
const DefaultTTL = 60 * time.Second

// Entry is a quote with the time it was stored.
type Entry struct {
	Quote    provider.Quote `json:"quote"`
	StoredAt time.Time      `json:"stored_at"`
}

// Fresh reports whether the entry is younger than ttl at now.
func (e Entry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.StoredAt) < ttl
}

// Quotes keeps the latest quote per symbol for the process lifetime.
// Quotes are copied on the way in and out, so callers may modify what they get.
// Entries are never evicted; staleness alone decides reuse. The key space is
// bounded by the symbols callers ask for.
type Quotes struct {
	TTL time.Duration
	Now func() time.Time

	mu    sync.RWMutex
	items map[string]Entry // key: uppercase symbol
}

// New creates a quote cache with the given TTL (DefaultTTL when <= 0).
func New(ttl time.Duration) *Quotes {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Quotes{TTL: ttl, Now: time.Now, items: make(map[string]Entry)}
}

// Get returns a copy of the stored entry for symbol regardless of freshness.
func (c *Quotes) Get(symbol string) (Entry, bool) {
	c.mu.RLock()
	e, ok := c.items[key(symbol)]
	c.mu.RUnlock()
	e.Quote = e.Quote.Clone()
	return e, ok
}

// Fresh returns the stored quote only while it is valid.
func (c *Quotes) Fresh(symbol string) (provider.Quote, bool) {
	e, ok := c.Get(symbol)
	if !ok || !e.Fresh(c.now(), c.TTL) {
		return provider.Quote{}, false
	}
	return e.Quote, true
}

// IsValid reports whether symbol has an entry younger than TTL.
func (c *Quotes) IsValid(symbol string) bool {
	_, ok := c.Fresh(symbol)
	return ok
}

// Put stores q under symbol, replacing any previous entry.
func (c *Quotes) Put(symbol string, q provider.Quote) {
	c.PutEntry(symbol, Entry{Quote: q, StoredAt: c.now()})
}

// PutEntry stores an entry with its original timestamp, so a quote pulled
// from a shared tier does not live longer than it would have there.
func (c *Quotes) PutEntry(symbol string, e Entry) {
	c.mu.Lock()
	if c.items == nil {
		c.items = make(map[string]Entry)
	}
	e.Quote = e.Quote.Clone()
	c.items[key(symbol)] = e
	c.mu.Unlock()
}

// Len returns the number of stored symbols, fresh or not.
func (c *Quotes) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Quotes) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func key(symbol string) string { return strings.ToUpper(strings.TrimSpace(symbol)) }
