package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"quotegateway/internal/fallback"
	"quotegateway/internal/provider"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4"))

	openStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")).Bold(true)
	closedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6600")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")).MarginTop(1)
)

// quoteSource is what the watchlist needs from the gateway.
type quoteSource interface {
	GetMultipleQuotes(ctx context.Context, symbols []string) []provider.Quote
	IsMarketOpen() bool
	RefreshInterval() time.Duration
}

type model struct {
	gw          quoteSource
	symbols     []string
	table       table.Model
	quotes      []provider.Quote
	open        bool
	interval    time.Duration
	lastRefresh time.Time
	loading     bool
	// gen discards ticks scheduled before a manual refresh.
	gen int
}

type quotesMsg struct {
	quotes   []provider.Quote
	open     bool
	interval time.Duration
	at       time.Time
}

type tickMsg struct{ gen int }

func newModel(gw quoteSource, symbols []string) model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Symbol", Width: 7},
			{Title: "Name", Width: 24},
			{Title: "Price", Width: 10},
			{Title: "Change", Width: 9},
			{Title: "Chg %", Width: 8},
			{Title: "Volume", Width: 12},
			{Title: "Source", Width: 9},
		}),
		table.WithFocused(true),
		table.WithHeight(min(len(symbols), 20)+1),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#7D56F4")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color("#7D56F4")).
		Bold(false)
	t.SetStyles(s)

	return model{gw: gw, symbols: symbols, table: t, loading: true}
}

func (m model) Init() tea.Cmd {
	return load(m.gw, m.symbols)
}

func load(gw quoteSource, symbols []string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return quotesMsg{
			quotes:   gw.GetMultipleQuotes(ctx, symbols),
			open:     gw.IsMarketOpen(),
			interval: gw.RefreshInterval(),
			at:       time.Now(),
		}
	}
}

func tick(d time.Duration, gen int) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return tickMsg{gen: gen} })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			if m.loading {
				return m, nil
			}
			m.loading = true
			m.gen++
			return m, load(m.gw, m.symbols)
		}

	case quotesMsg:
		m.loading = false
		m.quotes = msg.quotes
		m.open = msg.open
		m.interval = msg.interval
		m.lastRefresh = msg.at
		m.table.SetRows(rows(msg.quotes))
		m.gen++
		return m, tick(msg.interval, m.gen)

	case tickMsg:
		if msg.gen != m.gen || m.loading {
			return m, nil
		}
		m.loading = true
		return m, load(m.gw, m.symbols)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("QUOTE WATCH"))
	b.WriteString("  ")
	if m.open {
		b.WriteString(openStyle.Render("MARKET OPEN"))
	} else {
		b.WriteString(closedStyle.Render("MARKET CLOSED"))
	}
	if !m.lastRefresh.IsZero() {
		fmt.Fprintf(&b, "  updated %s, next in %s", m.lastRefresh.Format("15:04:05"), m.interval)
	}
	if m.loading {
		b.WriteString("  loading...")
	}
	b.WriteString("\n")
	b.WriteString(boxStyle.Render(m.table.View()))
	b.WriteString(helpStyle.Render("\n↑/↓ move • r refresh • q quit • * synthesized price"))
	return b.String()
}

func rows(quotes []provider.Quote) []table.Row {
	out := make([]table.Row, 0, len(quotes))
	for _, q := range quotes {
		source := q.Source
		if source == fallback.Source {
			source = "*"
		}
		out = append(out, table.Row{
			q.Symbol,
			truncate(q.Name, 24),
			fmt.Sprintf("%.2f", q.Price),
			fmt.Sprintf("%+.2f", q.Change),
			fmt.Sprintf("%+.2f%%", q.ChangePercent),
			formatVolume(q.Volume),
			source,
		})
	}
	return out
}

func formatVolume(v int64) string {
	switch {
	case v >= 1_000_000_000:
		return fmt.Sprintf("%.2fB", float64(v)/1e9)
	case v >= 1_000_000:
		return fmt.Sprintf("%.2fM", float64(v)/1e6)
	case v >= 1_000:
		return fmt.Sprintf("%.1fK", float64(v)/1e3)
	default:
		return fmt.Sprintf("%d", v)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
