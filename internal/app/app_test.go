package app

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quotegateway/internal/config"
	"quotegateway/internal/fallback"
)

func quiet() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestBuild_YahooFirstThenFMP(t *testing.T) {
	yahooSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/AAPL") {
			_, _ = w.Write([]byte(`{"chart":{"result":[{"meta":{"symbol":"AAPL","regularMarketPrice":231.46,"previousClose":228}}]}}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(yahooSrv.Close)

	fmpSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "quote-gateway/1.0", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`[{"symbol":"KO","name":"The Coca-Cola Company","price":70.25,"previousClose":69.5}]`))
	}))
	t.Cleanup(fmpSrv.Close)

	mr := miniredis.RunT(t)

	cfg := config.Default()
	cfg.Yahoo.BaseURL = yahooSrv.URL
	cfg.FMP.BaseURL = fmpSrv.URL
	cfg.FMP.MaxRequestsPerMinute = 0
	cfg.Yahoo.MaxRequestsPerMinute = 0
	cfg.Redis.Addr = mr.Addr()

	a, err := Build(t.Context(), cfg, quiet())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, a.Close()) })

	require.Equal(t, []string{"Yahoo", "FMP"}, a.Gateway.ProviderNames())
	require.Equal(t, "Yahoo", a.Gateway.GetQuote(t.Context(), "AAPL").Source)
	require.Equal(t, "FMP", a.Gateway.GetQuote(t.Context(), "KO").Source)
	require.True(t, mr.Exists("quote:AAPL"))
}

func TestBuild_NoProvidersAndNoRedis(t *testing.T) {
	cfg := config.Default()
	cfg.Yahoo.Enabled = false
	cfg.FMP.Enabled = false
	cfg.Redis.Addr = "127.0.0.1:1"

	a, err := Build(t.Context(), cfg, quiet())
	require.NoError(t, err)
	require.Empty(t, a.Gateway.ProviderNames())
	require.Equal(t, fallback.Source, a.Gateway.GetQuote(t.Context(), "AAPL").Source)
	require.NoError(t, a.Close())
}

func TestBuild_AlpacaEnabled(t *testing.T) {
	cfg := config.Default()
	cfg.Yahoo.Enabled = false
	cfg.FMP.Enabled = false
	cfg.Alpaca.Enabled = true
	cfg.Alpaca.APIKey = "key"
	cfg.Alpaca.APISecret = "secret"

	a, err := Build(t.Context(), cfg, quiet())
	require.NoError(t, err)
	require.Equal(t, []string{"Alpaca"}, a.Gateway.ProviderNames())
}
