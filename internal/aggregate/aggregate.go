package aggregate

import (
	"sort"
	"strings"
	"time"

	"quotegateway/internal/provider"
)

// BySymbol collapses quotes to one per uppercase symbol keeping the newest.
// For equal timestamps, later input wins. Zero timestamps count as now.
func BySymbol(quotes []provider.Quote) map[string]provider.Quote {
	now := time.Now().UTC()
	latest := make(map[string]provider.Quote, len(quotes))
	seen := make(map[string]time.Time, len(quotes))

	for _, q := range quotes {
		key := strings.ToUpper(strings.TrimSpace(q.Symbol))
		if key == "" {
			continue
		}
		ts := q.ReceivedAt
		if ts.IsZero() {
			ts = now
		}
		if cur, ok := seen[key]; ok && ts.Before(cur) {
			continue
		}
		q.Symbol = key
		latest[key] = q
		seen[key] = ts
	}
	return latest
}

// Sources lists the distinct quote sources, sorted.
func Sources(quotes []provider.Quote) []string {
	set := make(map[string]struct{}, len(quotes))
	for _, q := range quotes {
		if q.Source != "" {
			set[q.Source] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
