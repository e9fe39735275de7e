package provider_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"quotegateway/internal/provider"
)

func TestNormalize_DerivesChangeFromPreviousClose(t *testing.T) {
	t.Parallel()

	q, err := provider.Normalize(provider.Fields{
		Symbol:        "aapl",
		Price:         231.456,
		PreviousClose: provider.Float(228.004),
		Volume:        1200,
	})
	require.NoError(t, err)

	require.Equal(t, "AAPL", q.Symbol)
	require.InDelta(t, 231.46, q.Price, 1e-9)
	require.InDelta(t, 3.46, q.Change, 1e-9)
	require.InDelta(t, 1.52, q.ChangePercent, 1e-9)
	require.NotNil(t, q.PreviousClose)
	require.InDelta(t, 228.00, *q.PreviousClose, 1e-9)
	require.Equal(t, int64(1200), q.Volume)
	require.Nil(t, q.MarketCap)
}

func TestNormalize_ConsistencyAcrossInputs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		fields provider.Fields
	}{
		{name: "previous close only", fields: provider.Fields{Symbol: "A", Price: 100.004, PreviousClose: provider.Float(99.996)}},
		{name: "change only", fields: provider.Fields{Symbol: "B", Price: 52.1, Change: provider.Float(-1.337)}},
		{name: "both prefer previous close", fields: provider.Fields{Symbol: "C", Price: 10, PreviousClose: provider.Float(9.5), Change: provider.Float(42)}},
		{name: "neither", fields: provider.Fields{Symbol: "D", Price: 77.77}},
		{name: "falling", fields: provider.Fields{Symbol: "E", Price: 0.51, PreviousClose: provider.Float(3.14159)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := provider.Normalize(tt.fields)
			require.NoError(t, err)
			requireConsistent(t, q)
		})
	}
}

func TestNormalize_RejectsMissingPrice(t *testing.T) {
	t.Parallel()

	for _, p := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := provider.Normalize(provider.Fields{Symbol: "X", Price: p})
		require.Error(t, err)
		require.Equal(t, provider.ErrNoPrice, provider.Code(err))
	}
}

func TestNormalize_DropsInvalidOptionalFields(t *testing.T) {
	t.Parallel()

	q, err := provider.Normalize(provider.Fields{
		Symbol:    "X",
		Price:     5,
		MarketCap: provider.Float(0),
		High:      provider.Float(math.NaN()),
		Low:       provider.Float(4.999),
		Volume:    -3,
	})
	require.NoError(t, err)
	require.Nil(t, q.MarketCap)
	require.Nil(t, q.High)
	require.NotNil(t, q.Low)
	require.InDelta(t, 5.0, *q.Low, 1e-9)
	require.Zero(t, q.Volume)
	require.False(t, q.ReceivedAt.IsZero())
}

func TestError_UnwrapAndCode(t *testing.T) {
	t.Parallel()

	inner := provider.NewError("", provider.ErrStatus, "GET x -> 503", nil)
	err := provider.WithProvider("Yahoo", inner)
	require.Equal(t, provider.ErrStatus, provider.Code(err))
	require.Contains(t, err.Error(), "Yahoo STATUS_ERROR")
	require.Empty(t, inner.Provider)
	require.Empty(t, provider.Code(nil))
}

func requireConsistent(t *testing.T, q provider.Quote) {
	t.Helper()
	require.GreaterOrEqual(t, q.Price, 0.0)
	require.NotNil(t, q.PreviousClose)
	require.InDelta(t, provider.Round2(*q.PreviousClose), provider.Round2(q.Price-q.Change), 1e-9)
	prev := q.Price - q.Change
	want := 0.0
	if prev != 0 {
		want = provider.Round2(q.Change / prev * 100)
	}
	require.InDelta(t, want, q.ChangePercent, 0.011)
}

func TestQuoteClone_SharesNoPointers(t *testing.T) {
	t.Parallel()

	q := provider.Quote{
		Symbol:        "AAPL",
		MarketCap:     provider.Float(3e12),
		High:          provider.Float(233),
		Low:           provider.Float(229),
		Open:          provider.Float(230),
		PreviousClose: provider.Float(228),
	}
	c := q.Clone()
	require.Equal(t, q, c)

	*c.MarketCap, *c.High, *c.Low, *c.Open, *c.PreviousClose = 0, 0, 0, 0, 0
	require.InDelta(t, 3e12, *q.MarketCap, 1)
	require.InDelta(t, 233.0, *q.High, 1e-9)
	require.InDelta(t, 229.0, *q.Low, 1e-9)
	require.InDelta(t, 230.0, *q.Open, 1e-9)
	require.InDelta(t, 228.0, *q.PreviousClose, 1e-9)

	require.Nil(t, provider.Quote{}.Clone().High)
}
