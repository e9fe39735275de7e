// Package api exposes the gateway over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"quotegateway/internal/provider"
	"quotegateway/internal/reference"
)

// Gateway is what the HTTP layer needs from *gateway.Gateway.
type Gateway interface {
	GetQuote(ctx context.Context, symbol string) provider.Quote
	GetMultipleQuotes(ctx context.Context, symbols []string) []provider.Quote
	SearchStocks(ctx context.Context, query string) []provider.SearchResult
	IsMarketOpen() bool
	RefreshInterval() time.Duration
	GetStockDescription(symbol string) string
	TrendingStocks(ctx context.Context) []provider.Quote
	StocksBySector(ctx context.Context, sector string) []provider.Quote
	AllStocks() []reference.Stock
	ProviderNames() []string
}

type Options struct {
	CORSOrigin     string
	RequestTimeout time.Duration
	// MaxSymbols caps symbols per multi-quote request.
	MaxSymbols int
}

type Server struct {
	R     *gin.Engine
	gw    Gateway
	log   logrus.FieldLogger
	opts  Options
	nowFn func() time.Time
}

// NewServer wires the router and middleware around gw.
func NewServer(gw Gateway, log logrus.FieldLogger, opts Options) *Server {
	if opts.CORSOrigin == "" {
		opts.CORSOrigin = "*"
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}
	if opts.MaxSymbols <= 0 {
		opts.MaxSymbols = 100
	}

	g := gin.New()
	g.Use(requestID(), requestLog(log), gin.Recovery(), cors(opts.CORSOrigin),
		gzipResponse(), limitBody(1<<20), timeout(opts.RequestTimeout))

	s := &Server{R: g, gw: gw, log: log, opts: opts, nowFn: time.Now}

	g.GET("/healthz", s.health)
	g.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := g.Group("/api")
	api.GET("/quotes/:symbol", s.getQuote)
	api.GET("/quotes", s.getQuotes)
	api.POST("/quotes", s.postQuotes)
	api.GET("/search", s.search)
	api.GET("/market/status", s.marketStatus)
	api.GET("/stocks", s.allStocks)
	api.GET("/stocks/:symbol/description", s.description)
	api.GET("/trending", s.trending)
	api.GET("/sectors/:sector", s.sector)
	api.POST("/market-data", s.marketData)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.R.ServeHTTP(w, r) }
