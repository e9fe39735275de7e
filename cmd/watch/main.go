// Command watch is a terminal watchlist that polls the gateway at the
// market-aware refresh interval.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"quotegateway/internal/app"
	"quotegateway/internal/config"
	"quotegateway/internal/gateway"
	"quotegateway/internal/logger"
)

func main() {
	var symbolsCSV, configPath string
	flag.StringVar(&symbolsCSV, "symbols", strings.Join(gateway.TrendingSymbols, ","), "comma-separated tickers")
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to config.json (optional)")
	flag.Parse()

	_ = godotenv.Load()

	// The alt screen owns stdout.
	logger.SetOutput(io.Discard)

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	a, err := app.Build(context.Background(), cfg, logger.GetLogger())
	if err != nil {
		fmt.Fprintf(os.Stderr, "build: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	p := tea.NewProgram(newModel(a.Gateway, splitCSV(symbolsCSV)), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
