package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quotegateway/internal/provider"
)

func TestGetJSON_DecodesAndSetsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "yes", r.Header.Get("X-Extra"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"price": 12.5}`))
	}))
	defer srv.Close()

	c := New(2 * time.Second)
	c.Headers = map[string]string{"X-Extra": "yes"}

	var out struct {
		Price float64 `json:"price"`
	}
	require.NoError(t, c.GetJSON(t.Context(), srv.URL, &out))
	require.InDelta(t, 12.5, out.Price, 1e-9)
}

func TestGetJSON_ErrorCodes(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		code    string
	}{
		{
			name:    "non-2xx",
			handler: func(w http.ResponseWriter, _ *http.Request) { http.Error(w, "slow down", http.StatusTooManyRequests) },
			code:    provider.ErrStatus,
		},
		{
			name:    "bad body",
			handler: func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("<html>")) },
			code:    provider.ErrDecode,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			var out map[string]any
			err := New(time.Second).GetJSON(t.Context(), srv.URL, &out)
			require.Error(t, err)
			require.Equal(t, tt.code, provider.Code(err))
		})
	}
}

func TestGetJSON_TimeoutIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	var out map[string]any
	err := New(100*time.Millisecond).GetJSON(t.Context(), srv.URL, &out)
	require.Error(t, err)
	require.Equal(t, provider.ErrTransport, provider.Code(err))
}
