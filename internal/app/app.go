// Package app wires configuration into a ready gateway.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"quotegateway/internal/cache"
	"quotegateway/internal/config"
	"quotegateway/internal/gateway"
	"quotegateway/internal/httpx"
	"quotegateway/internal/provider"
	"quotegateway/internal/provider/alpaca"
	"quotegateway/internal/provider/fmp"
	"quotegateway/internal/provider/fmpadapter"
	"quotegateway/internal/provider/ratelimit"
	"quotegateway/internal/provider/yahoo"
)

const userAgent = "quote-gateway/1.0"

type App struct {
	Gateway *gateway.Gateway
	redis   *cache.Redis
}

// Build constructs providers in priority order (Yahoo, FMP, Alpaca), the
// optional Redis tier and the gateway.
func Build(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (*App, error) {
	hc := httpx.New(cfg.Gateway.ProviderTimeout())

	var (
		providers []provider.Provider
		searchers []provider.Searcher
	)
	add := func(p provider.Provider, s provider.Searcher, l ratelimit.Limiter) {
		wp, ws := ratelimit.Wrap(p, s, l)
		providers = append(providers, wp)
		if ws != nil {
			searchers = append(searchers, ws)
		}
	}

	if cfg.Yahoo.Enabled {
		y := yahoo.New(yahoo.Config{
			BaseURL:     cfg.Yahoo.BaseURL,
			SearchLimit: cfg.Gateway.SearchPageSize,
		}, hc)
		add(y, y, ratelimit.FromBudget(cfg.Yahoo.MaxRequestsPerMinute, cfg.Yahoo.Burst,
			time.Duration(cfg.Yahoo.MinRequestIntervalSec)*time.Second))
	}

	if cfg.FMP.Enabled {
		opts := []fmp.ClientOption{fmp.WithHTTPClient(hc.HTTP)}
		if cfg.FMP.BaseURL != "" {
			opts = append(opts, fmp.WithBaseURL(cfg.FMP.BaseURL))
		}
		if cfg.FMP.KeyInHeader {
			opts = append(opts, fmp.WithKeyInHeader())
		}
		opts = append(opts, fmp.WithHeader(map[string][]string{"User-Agent": {userAgent}}))
		client, err := fmp.NewClient(cfg.FMP.APIKey, opts...)
		if err != nil {
			return nil, fmt.Errorf("fmp client: %w", err)
		}
		a := fmpadapter.New(fmpadapter.Config{
			MaxItemsPerRequest: cfg.FMP.MaxItemsPerRequest,
			MaxConcurrency:     cfg.FMP.MaxConcurrency,
			SearchLimit:        cfg.Gateway.SearchPageSize,
		}, client)
		add(a, a, ratelimit.FromBudget(cfg.FMP.MaxRequestsPerMinute, cfg.FMP.Burst,
			time.Duration(cfg.FMP.MinRequestIntervalSec)*time.Second))
	}

	if cfg.Alpaca.Enabled {
		add(alpaca.New(alpaca.Config{
			APIKey:    cfg.Alpaca.APIKey,
			APISecret: cfg.Alpaca.APISecret,
			BaseURL:   cfg.Alpaca.BaseURL,
			Feed:      cfg.Alpaca.Feed,
		}), nil, nil)
	}

	if len(providers) == 0 {
		log.Warn("no quote providers enabled; every quote will be synthesized")
	}

	a := &App{}
	opts := []gateway.Option{
		gateway.WithProviders(providers...),
		gateway.WithSearchers(searchers...),
		gateway.WithCacheTTL(cfg.Gateway.CacheTTL()),
		gateway.WithAttemptTimeout(cfg.Gateway.ProviderTimeout()),
		gateway.WithLocation(cfg.Gateway.Location()),
		gateway.WithMarketHours(cfg.Gateway.MarketOpenHour, cfg.Gateway.MarketCloseHour),
		gateway.WithPageSizes(cfg.Gateway.DefaultPageSize, cfg.Gateway.SearchPageSize),
		gateway.WithLogger(log),
	}

	if cfg.Redis.Addr != "" {
		r, err := cache.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Gateway.CacheTTL())
		if err != nil {
			// The shared tier is an optimization; run without it.
			log.WithError(err).Warn("redis unavailable, using local cache only")
		} else {
			a.redis = r
			opts = append(opts, gateway.WithSharedCache(r))
		}
	}

	a.Gateway = gateway.New(opts...)
	log.WithField("providers", a.Gateway.ProviderNames()).Info("gateway ready")
	return a, nil
}

// Close releases the Redis connection, if any.
func (a *App) Close() error {
	if a.redis == nil {
		return nil
	}
	return a.redis.Close()
}
