package alpaca

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwaldner/bsmpricer/internal/config"
	"github.com/jwaldner/bsmpricer/internal/providers"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *AlpacaProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p := NewAlpacaProvider(config.AlpacaConfig{
		APIKey:    "key",
		SecretKey: "secret",
		DataURL:   server.URL,
		Feed:      "indicative",
	})
	p.minDelay = 0
	return p
}

func TestGetStockPrices(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/stocks/bars/latest", r.URL.Path)
		assert.Equal(t, "AAPL,MSFT,ZERO", r.URL.Query().Get("symbols"))
		assert.Equal(t, "key", r.Header.Get("APCA-API-KEY-ID"))
		assert.Equal(t, "secret", r.Header.Get("APCA-API-SECRET-KEY"))

		fmt.Fprint(w, `{"bars":{
			"AAPL":{"c":272.22,"h":273,"l":270,"o":271,"v":1200,"t":"2025-12-16T20:59:00Z"},
			"MSFT":{"c":480.5,"v":900,"t":"2025-12-16T20:59:00Z"},
			"ZERO":{"c":0,"t":"2025-12-16T20:59:00Z"}}}`)
	})

	result, err := p.GetStockPrices(context.Background(), []string{"AAPL", "MSFT", "ZERO"})
	require.NoError(t, err)

	require.Len(t, result.Data, 2)
	assert.Equal(t, 272.22, result.Data["AAPL"].Price)
	assert.Equal(t, int64(900), result.Data["MSFT"].Volume)
	assert.Equal(t, 1, result.Metrics.RequestCount)
	assert.Equal(t, 1, p.GetPerformanceStats().RequestCount)
}

func TestGetStockPricesUpstreamError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message":"forbidden"}`)
	})

	_, err := p.GetStockPrices(context.Background(), []string{"AAPL"})
	require.Error(t, err)
	assert.ErrorIs(t, err, providers.ErrUpstreamData)
}

func TestGetStockPricesRateLimited(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := p.GetStockPrices(context.Background(), []string{"AAPL"})
	assert.ErrorIs(t, err, providers.ErrUpstreamData)
	assert.True(t, p.GetPerformanceStats().RateLimitHit)
}

func TestGetOptionChainFollowsPages(t *testing.T) {
	calls := 0
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/v1beta1/options/snapshots/AAPL", r.URL.Path)
		assert.Equal(t, "2026-01-16", r.URL.Query().Get("expiration_date"))
		assert.Equal(t, "indicative", r.URL.Query().Get("feed"))

		if r.URL.Query().Get("page_token") == "" {
			fmt.Fprint(w, `{"snapshots":{
				"AAPL260116P00260000":{"impliedVolatility":0.27,"dailyBar":{"v":275}},
				"AAPL260116C00280000":{"impliedVolatility":0.22,"dailyBar":{"v":485}},
				"garbage":{"impliedVolatility":1}},
				"next_page_token":"p2"}`)
			return
		}
		assert.Equal(t, "p2", r.URL.Query().Get("page_token"))
		fmt.Fprint(w, `{"snapshots":{"AAPL260116C00275000":{"impliedVolatility":0.24}},"next_page_token":null}`)
	})

	expiration := time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC)
	result, err := p.GetOptionChain(context.Background(), "AAPL", expiration)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	require.Len(t, result.Data, 3)
	assert.Equal(t, "call", result.Data[0].OptionType)
	assert.Equal(t, 275.0, result.Data[0].Strike)
	assert.Equal(t, int64(0), result.Data[0].Volume)
	assert.Equal(t, 280.0, result.Data[1].Strike)
	assert.Equal(t, int64(485), result.Data[1].Volume)
	assert.Equal(t, "put", result.Data[2].OptionType)
	assert.Equal(t, 0.27, result.Data[2].ImpliedVolatility)
	assert.Equal(t, "USD", result.Data[2].Currency)
	assert.Equal(t, expiration, result.Data[2].Expiration)
	assert.Equal(t, 2, result.Metrics.RequestCount)
}

func TestRateLimitHonoursContext(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"bars":{}}`)
	})
	p.minDelay = time.Hour
	p.lastRequest = time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.GetStockPrices(ctx, []string{"AAPL"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetOptionChainAllExpirations(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("expiration_date"))
		fmt.Fprint(w, `{"snapshots":{
			"AAPL260220C00280000":{"impliedVolatility":0.25},
			"AAPL260116C00280000":{"impliedVolatility":0.22}}}`)
	})

	result, err := p.GetOptionChain(context.Background(), "AAPL", time.Time{})
	require.NoError(t, err)
	require.Len(t, result.Data, 2)
	assert.Equal(t, time.January, result.Data[0].Expiration.Month())
	assert.Equal(t, time.February, result.Data[1].Expiration.Month())
}
