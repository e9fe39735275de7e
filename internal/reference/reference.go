// Package reference holds the curated stock universe used to enrich
// synthesized quotes and to answer searches when no upstream is reachable.
package reference

import (
	"fmt"
	"strings"

	"quotegateway/internal/provider"
)

// Stock is static metadata for one featured ticker.
type Stock struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Sector      string `json:"sector"`
	Description string `json:"description"`
}

// DefaultSector is reported for symbols outside the curated universe.
const DefaultSector = "Technology"

var stocks = []Stock{
	// Technology
	{Symbol: "AAPL", Name: "Apple Inc.", Sector: "Technology", Description: "Makes iPhones, iPads, and Mac computers that kids love!"},
	{Symbol: "MSFT", Name: "Microsoft Corporation", Sector: "Technology", Description: "Creates Xbox games, Windows computers, and Office!"},
	{Symbol: "GOOGL", Name: "Alphabet Inc.", Sector: "Technology", Description: "The company behind Google search and YouTube!"},
	{Symbol: "META", Name: "Meta Platforms, Inc.", Sector: "Technology", Description: "The company that owns Facebook, Instagram, and WhatsApp!"},
	{Symbol: "NVDA", Name: "NVIDIA Corporation", Sector: "Technology", Description: "Makes powerful computer chips for gaming and AI!"},
	{Symbol: "AMZN", Name: "Amazon.com, Inc.", Sector: "E-commerce", Description: "The online store where you can buy almost anything!"},

	// Automotive
	{Symbol: "TSLA", Name: "Tesla, Inc.", Sector: "Automotive", Description: "Makes cool electric cars and rockets through SpaceX!"},
	{Symbol: "F", Name: "Ford Motor Company", Sector: "Automotive", Description: "One of the oldest car companies in America!"},
	{Symbol: "GM", Name: "General Motors Company", Sector: "Automotive", Description: "Makes Chevrolet, Cadillac, and other popular cars!"},

	// Entertainment and retail
	{Symbol: "DIS", Name: "The Walt Disney Company", Sector: "Entertainment", Description: "Home of Mickey Mouse, Marvel heroes, and Disney movies!"},
	{Symbol: "NFLX", Name: "Netflix, Inc.", Sector: "Entertainment", Description: "Your favorite streaming service for movies and shows!"},
	{Symbol: "WMT", Name: "Walmart Inc.", Sector: "Retail", Description: "The biggest retail store in America!"},

	// Food and beverages
	{Symbol: "KO", Name: "The Coca-Cola Company", Sector: "Beverages", Description: "Makes the world's most famous soft drinks!"},
	{Symbol: "PEP", Name: "PepsiCo, Inc.", Sector: "Beverages", Description: "Makes Pepsi, Lay's chips, and Gatorade!"},
	{Symbol: "MCD", Name: "McDonald's Corporation", Sector: "Food Service", Description: "The famous golden arches restaurant everyone knows!"},
	{Symbol: "SBUX", Name: "Starbucks Corporation", Sector: "Food Service", Description: "The popular coffee shop chain with green logo!"},

	{Symbol: "NKE", Name: "Nike, Inc.", Sector: "Apparel", Description: "Makes the coolest sneakers and sports gear!"},

	// Financial
	{Symbol: "JPM", Name: "JPMorgan Chase & Co.", Sector: "Financial", Description: "One of the biggest banks in America!"},
	{Symbol: "BAC", Name: "Bank of America Corporation", Sector: "Financial", Description: "A major bank that helps people save money!"},

	// Healthcare
	{Symbol: "JNJ", Name: "Johnson & Johnson", Sector: "Healthcare", Description: "Makes medicines and band-aids to help people feel better!"},
	{Symbol: "PFE", Name: "Pfizer Inc.", Sector: "Healthcare", Description: "Creates important medicines and vaccines!"},

	{Symbol: "XOM", Name: "Exxon Mobil Corporation", Sector: "Energy", Description: "One of the biggest oil and gas companies!"},
	{Symbol: "BA", Name: "The Boeing Company", Sector: "Aerospace", Description: "Builds airplanes that fly people around the world!"},

	// Consumer goods
	{Symbol: "PG", Name: "Procter & Gamble Company", Sector: "Consumer Goods", Description: "Makes everyday products like toothpaste and shampoo!"},
	{Symbol: "UL", Name: "Unilever PLC", Sector: "Consumer Goods", Description: "Makes soap, ice cream, and other household products!"},
}

var bySymbol = func() map[string]Stock {
	m := make(map[string]Stock, len(stocks))
	for _, s := range stocks {
		m[s.Symbol] = s
	}
	return m
}()

// All returns a copy of the curated universe in display order.
func All() []Stock {
	out := make([]Stock, len(stocks))
	copy(out, stocks)
	return out
}

// Lookup finds a stock by symbol, case-insensitively.
func Lookup(symbol string) (Stock, bool) {
	s, ok := bySymbol[normalize(symbol)]
	return s, ok
}

// Name returns the curated company name or "<SYM> Corporation".
func Name(symbol string) string {
	if s, ok := Lookup(symbol); ok {
		return s.Name
	}
	return fmt.Sprintf("%s Corporation", normalize(symbol))
}

// Sector returns the curated sector or DefaultSector.
func Sector(symbol string) string {
	if s, ok := Lookup(symbol); ok {
		return s.Sector
	}
	return DefaultSector
}

// Description returns the curated blurb or a friendly default.
func Description(symbol string) string {
	if s, ok := Lookup(symbol); ok {
		return s.Description
	}
	return fmt.Sprintf("A great company to learn about investing with %s!", normalize(symbol))
}

// Match returns stocks whose name, symbol or sector contains query,
// ignoring case, capped to limit (no cap when limit <= 0).
func Match(query string, limit int) []Stock {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Stock, 0, 8)
	for _, s := range stocks {
		if limit > 0 && len(out) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(s.Name), q) ||
			strings.Contains(strings.ToLower(s.Symbol), q) ||
			strings.Contains(strings.ToLower(s.Sector), q) {
			out = append(out, s)
		}
	}
	return out
}

// BySector returns every stock in sector, ignoring case.
func BySector(sector string) []Stock {
	var out []Stock
	for _, s := range stocks {
		if strings.EqualFold(s.Sector, strings.TrimSpace(sector)) {
			out = append(out, s)
		}
	}
	return out
}

// Symbols projects stocks onto their tickers.
func Symbols(in []Stock) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = s.Symbol
	}
	return out
}

// SearchResults projects stocks onto search results with US equity defaults.
func SearchResults(in []Stock) []provider.SearchResult {
	out := make([]provider.SearchResult, len(in))
	for i, s := range in {
		out[i] = provider.NewSearchResult(s.Symbol, s.Name, "1.0000")
	}
	return out
}

func normalize(symbol string) string { return strings.ToUpper(strings.TrimSpace(symbol)) }
