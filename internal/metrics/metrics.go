package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quote_gateway_cache_hits_total",
		Help: "Quotes served from cache, by tier",
	}, []string{"tier"})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quote_gateway_cache_misses_total",
		Help: "Quote lookups that missed every cache tier",
	})

	ProviderAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quote_gateway_provider_attempts_total",
		Help: "Provider calls, by provider and outcome",
	}, []string{"provider", "outcome"})

	ProviderLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quote_gateway_provider_latency_seconds",
		Help:    "Latency of provider calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})

	FallbackQuotes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quote_gateway_fallback_quotes_total",
		Help: "Quotes synthesized because every provider failed",
	})

	SearchFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quote_gateway_search_fallbacks_total",
		Help: "Searches answered from the local reference list",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quote_gateway_http_requests_total",
		Help: "HTTP API requests, by route and status",
	}, []string{"route", "status"})
)

// Outcome labels for ProviderAttempts.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeEmpty = "empty"
)
