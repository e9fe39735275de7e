package fmp_test

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"quotegateway/internal/provider/fmp"
)

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	// Assert: an empty key still yields a client (demo key).
	client, err := fmp.NewClient("")
	require.NoErrorf(t, err, "unexpected error: %v", err)
	require.NotNilf(t, client, "unexpected nil client")
}

func TestGetQuotes(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock HTTP client
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: stub the Do method
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, http.MethodGet, req.Method)
			require.Equal(t, "/api/v3/quote/AAPL,MSFT", req.URL.Path)
			require.Equal(t, "test-key", req.URL.Query().Get("apikey"))
			require.Equal(t, "application/json", req.Header.Get("Accept"))

			return jsonResponse(http.StatusOK, `[
				{"symbol":"AAPL","name":"Apple Inc.","price":231.3,"change":2.7,"changesPercentage":1.18,"previousClose":228.6,"volume":51234567,"marketCap":3.5e12,"timestamp":1736265600},
				{"symbol":"MSFT","name":"Microsoft Corporation","price":417.1,"change":null,"previousClose":null}
			]`), nil
		}).
		Times(1)

	// Arrange: setup a new client
	client, err := fmp.NewClient("test-key", fmp.WithHTTPClient(httpClient), fmp.WithBaseURL("https://example.test/api"))
	require.NoError(t, err)

	// Act: call GetQuotes with lower-case input
	quotes, err := client.GetQuotes(t.Context(), []string{"aapl", " msft"})
	require.NoError(t, err)

	// Assert: both quotes decoded, nulls preserved as nil
	require.Len(t, quotes, 2)
	require.Equal(t, "AAPL", quotes[0].Symbol)
	require.InEpsilon(t, 231.3, *quotes[0].Price, 0.0001)
	require.InEpsilon(t, 51234567.0, *quotes[0].Volume, 0.0001)
	require.Nil(t, quotes[1].Change)
	require.Nil(t, quotes[1].PreviousClose)
}

func TestGetQuotes_NoSymbols(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().Do(gomock.Any()).Times(0)

	client, err := fmp.NewClient("", fmp.WithHTTPClient(httpClient))
	require.NoError(t, err)

	quotes, err := client.GetQuotes(t.Context(), nil)
	require.Error(t, err)
	require.Nil(t, quotes)
}

func TestGetQuotes_ErrCreatingRequest(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().Do(gomock.Any()).Times(0)

	client, err := fmp.NewClient("", fmp.WithHTTPClient(httpClient))
	require.NoError(t, err)

	// Act: an invalid base URL override fails before any request is made
	quotes, err := client.GetQuotes(t.Context(), []string{"AAPL"}, fmp.WithBaseURL(string([]rune{0x7f})))
	require.Error(t, err)
	require.Nil(t, quotes)
}

func TestGetQuotes_ErrPerformingRequest(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(nil, errors.New("connection reset")).
		Times(1)

	client, err := fmp.NewClient("", fmp.WithHTTPClient(httpClient))
	require.NoError(t, err)

	quotes, err := client.GetQuotes(t.Context(), []string{"AAPL"})
	require.ErrorContains(t, err, "performing request")
	require.Nil(t, quotes)
}

func TestGetQuotes_StatusCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		wantMsg string
	}{
		{name: "forbidden", status: http.StatusForbidden, wantErr: fmp.ErrUnauthorized},
		{name: "too many requests", status: http.StatusTooManyRequests, wantErr: fmp.ErrRateLimited},
		{name: "server error", status: http.StatusInternalServerError, wantMsg: "unexpected status code: 500"},
		{name: "limit object", status: http.StatusOK, body: `{"Error Message":"Limit Reach . Please upgrade your plan"}`, wantErr: fmp.ErrRateLimited},
		{name: "invalid key object", status: http.StatusOK, body: `{"Error Message":"Invalid API KEY."}`, wantMsg: "api error: Invalid API KEY."},
		{name: "garbage", status: http.StatusOK, body: `<html>`, wantMsg: "decoding response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			httpClient := NewMockHTTPClient(ctrl)
			httpClient.EXPECT().
				Do(gomock.Any()).
				Return(jsonResponse(tt.status, tt.body), nil).
				Times(1)

			client, err := fmp.NewClient("", fmp.WithHTTPClient(httpClient))
			require.NoError(t, err)

			quotes, err := client.GetQuotes(t.Context(), []string{"AAPL"})
			require.Error(t, err)
			require.Nil(t, quotes)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				require.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestSearch(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.True(t, strings.HasSuffix(req.URL.Path, "/v3/search"))
			require.Equal(t, "coca", req.URL.Query().Get("query"))
			require.Equal(t, "10", req.URL.Query().Get("limit"))
			require.Equal(t, "demo", req.URL.Query().Get("apikey"))
			return jsonResponse(http.StatusOK, `[{"symbol":"KO","name":"The Coca-Cola Company","currency":"USD","exchangeShortName":"NYSE"}]`), nil
		}).
		Times(1)

	client, err := fmp.NewClient("", fmp.WithHTTPClient(httpClient))
	require.NoError(t, err)

	hits, err := client.Search(t.Context(), "coca", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "KO", hits[0].Symbol)
	require.Equal(t, "NYSE", hits[0].ExchangeShortName)
}

func TestWithHeader(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "bar", req.Header.Get("foo"))
			return jsonResponse(http.StatusOK, `[]`), nil
		}).
		Times(1)

	client, err := fmp.NewClient("k", fmp.WithHTTPClient(httpClient), fmp.WithHeader(http.Header{
		"foo": []string{"bar"},
	}))
	require.NoError(t, err)

	quotes, err := client.GetQuotes(t.Context(), []string{"AAPL"})
	require.NoError(t, err)
	require.Empty(t, quotes)
}

func TestWithKeyInHeader(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			// Assert: the key travels in the header only
			require.Equal(t, "secret", req.Header.Get("apikey"))
			require.False(t, req.URL.Query().Has("apikey"))
			return jsonResponse(http.StatusOK, `[]`), nil
		}).
		Times(1)

	client, err := fmp.NewClient("secret", fmp.WithHTTPClient(httpClient), fmp.WithKeyInHeader())
	require.NoError(t, err)

	_, err = client.GetQuotes(t.Context(), []string{"AAPL"})
	require.NoError(t, err)
}

func TestWithAPIKey_PerCall(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	gomock.InOrder(
		httpClient.EXPECT().
			Do(gomock.Any()).
			DoAndReturn(func(req *http.Request) (*http.Response, error) {
				require.Equal(t, "other", req.URL.Query().Get("apikey"))
				return jsonResponse(http.StatusOK, `[]`), nil
			}),
		httpClient.EXPECT().
			Do(gomock.Any()).
			DoAndReturn(func(req *http.Request) (*http.Response, error) {
				// Assert: the per-call key did not stick to the client
				require.Equal(t, "base", req.URL.Query().Get("apikey"))
				return jsonResponse(http.StatusOK, `[]`), nil
			}),
	)

	client, err := fmp.NewClient("base", fmp.WithHTTPClient(httpClient))
	require.NoError(t, err)

	_, err = client.Search(t.Context(), "apple", 5, fmp.WithAPIKey("other"))
	require.NoError(t, err)
	_, err = client.Search(t.Context(), "apple", 5)
	require.NoError(t, err)
}
