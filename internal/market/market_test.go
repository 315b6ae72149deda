package market

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trading-signal-bot/types"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestPriceOf(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    float64
		wantErr bool
	}{
		{"price field", http.StatusOK, `{"price": 2412.5}`, 2412.5, false},
		{"string price", http.StatusOK, `{"price": "2412.5"}`, 2412.5, false},
		{"last field fallback", http.StatusOK, `{"last": 1.0842}`, 1.0842, false},
		{"close field fallback", http.StatusOK, `{"close": "1.2655"}`, 1.2655, false},
		{"server error", http.StatusBadGateway, `oops`, 0, true},
		{"not json", http.StatusOK, `<html></html>`, 0, true},
		{"no price field", http.StatusOK, `{"symbol": "XAUUSD"}`, 0, true},
		{"zero price rejected", http.StatusOK, `{"price": 0}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, newNoopLogger())
			got, err := c.PriceOf(context.Background(), "XAUUSD")
			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrMarketUnavailable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPriceOfSubstitutesSymbol(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"price": 1.0}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/price/%s", newNoopLogger())
	_, err := c.PriceOf(context.Background(), "EURUSD")
	require.NoError(t, err)
	assert.Equal(t, "/price/EURUSD", gotPath)
}

func TestPriceOfUnreachableEndpoint(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", newNoopLogger())
	_, err := c.PriceOf(context.Background(), "XAUUSD")
	assert.ErrorIs(t, err, types.ErrMarketUnavailable)
}
