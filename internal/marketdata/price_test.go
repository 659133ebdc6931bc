package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHistoricalRate(t *testing.T) {
	at := time.Unix(1700000000, 0)

	t.Run("DecodesPrice", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/history", r.URL.Path)
			assert.Equal(t, "bitcoin", r.URL.Query().Get("coin"))
			assert.Equal(t, "USD", r.URL.Query().Get("currency"))
			assert.Equal(t, "1700000000", r.URL.Query().Get("timestamp"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"price": "34250.12"}`))
		}))
		defer server.Close()

		svc := NewPriceService(server.URL, nil, zap.NewNop())
		rate, err := svc.HistoricalRate(context.Background(), "bitcoin", "USD", at)
		require.NoError(t, err)
		assert.True(t, rate.Equal(decimal.RequireFromString("34250.12")))
	})

	t.Run("NonOKStatusIsAnError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		svc := NewPriceService(server.URL, nil, zap.NewNop())
		_, err := svc.HistoricalRate(context.Background(), "bitcoin", "USD", at)
		assert.Error(t, err)
	})

	t.Run("MalformedBodyIsAnError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}))
		defer server.Close()

		svc := NewPriceService(server.URL, nil, zap.NewNop())
		_, err := svc.HistoricalRate(context.Background(), "bitcoin", "USD", at)
		assert.Error(t, err)
	})

	t.Run("CancelledContextAborts", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"price": "1"}`))
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		svc := NewPriceService(server.URL, nil, zap.NewNop())
		_, err := svc.HistoricalRate(ctx, "bitcoin", "USD", at)
		assert.Error(t, err)
	})
}
