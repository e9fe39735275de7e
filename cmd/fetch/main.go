package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"quotegateway/internal/app"
	"quotegateway/internal/config"
	"quotegateway/internal/logger"
)

func main() {
	var (
		symbolsCSV string
		query      string
		sector     string
		trending   bool
		status     bool
		timeout    int
		configPath string
		verbose    bool
	)
	flag.StringVar(&symbolsCSV, "symbols", getenv("SYMBOLS", "AAPL,MSFT"), "comma-separated tickers")
	flag.StringVar(&query, "search", "", "search query instead of quotes")
	flag.StringVar(&sector, "sector", "", "quote every curated stock in this sector")
	flag.BoolVar(&trending, "trending", false, "quote the trending watchlist")
	flag.BoolVar(&status, "status", false, "print market status")
	flag.IntVar(&timeout, "timeout", 20, "overall timeout seconds")
	flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config.json (optional)")
	flag.BoolVar(&verbose, "v", false, "log to stderr")
	flag.Parse()

	_ = godotenv.Load()

	log := logger.GetLogger()
	if verbose {
		logger.SetOutput(os.Stderr)
	} else {
		logger.SetOutput(io.Discard)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		fatalf("build: %v", err)
	}
	defer a.Close()
	gw := a.Gateway

	var out any
	switch {
	case status:
		out = map[string]any{
			"isOpen":          gw.IsMarketOpen(),
			"refreshInterval": gw.RefreshInterval().String(),
		}
	case query != "":
		out = gw.SearchStocks(ctx, query)
	case sector != "":
		out = gw.StocksBySector(ctx, sector)
	case trending:
		out = gw.TrendingStocks(ctx)
	default:
		symbols := splitCSV(symbolsCSV)
		if len(symbols) == 0 {
			fatalf("no symbols provided")
		}
		out = gw.GetMultipleQuotes(ctx, symbols)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fatalf("encode: %v", err)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
