package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bsm "github.com/jwaldner/bsmpricer/bsm_lib"
	"github.com/jwaldner/bsmpricer/internal/dto"
	"github.com/jwaldner/bsmpricer/internal/providers"
	"github.com/jwaldner/bsmpricer/internal/providers/mock"
)

func fixedClock() time.Time {
	return time.Date(2026, 1, 1, 9, 30, 0, 0, time.UTC)
}

func TestParsePriceRequest(t *testing.T) {
	svc := NewRequestService().WithClock(fixedClock)

	input, err := svc.ParsePriceRequest(&dto.PriceRequest{
		Type:          " put ",
		Strike:        "100",
		Spot:          "95.5",
		Maturity:      "01/01/2027",
		Volatility:    "0.2",
		RiskFreeRate:  "3",
		DividendYield: "1.5",
	})
	require.NoError(t, err)

	assert.Equal(t, bsm.Put, input.Type)
	assert.Equal(t, 95.5, input.Spot)
	// the evaluation clock is past midnight so one whole day is lost
	assert.InDelta(t, 364.0/365.0, input.Maturity, 1e-12)
	assert.InDelta(t, 0.03, input.RiskFreeRate, 1e-12)
	assert.InDelta(t, 0.015, input.DividendYield, 1e-12)
	assert.False(t, input.RatesDefaulted)
}

func TestParsePriceRequestRateFallback(t *testing.T) {
	svc := NewRequestService().WithClock(fixedClock)

	input, err := svc.ParsePriceRequest(&dto.PriceRequest{
		Type:          "CALL",
		Strike:        "100",
		Spot:          "100",
		Maturity:      "2027-01-01",
		Volatility:    "0.2",
		RiskFreeRate:  "2",
		DividendYield: "n/a",
	})
	require.NoError(t, err)

	// one bad rate resets both
	assert.Equal(t, 0.05, input.RiskFreeRate)
	assert.Equal(t, 0.04, input.DividendYield)
	assert.True(t, input.RatesDefaulted)
}

func TestParsePriceRequestFieldErrors(t *testing.T) {
	svc := NewRequestService().WithClock(fixedClock)
	valid := dto.PriceRequest{Type: "call", Strike: "100", Spot: "100", Maturity: "01/01/2027", Volatility: "0.2"}

	cases := map[string]func(r *dto.PriceRequest){
		"type":       func(r *dto.PriceRequest) { r.Type = "straddle" },
		"strike":     func(r *dto.PriceRequest) { r.Strike = "abc" },
		"spot":       func(r *dto.PriceRequest) { r.Spot = "" },
		"maturity":   func(r *dto.PriceRequest) { r.Maturity = "2027/01/01" },
		"volatility": func(r *dto.PriceRequest) { r.Volatility = "20%" },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			req := valid
			mutate(&req)
			_, err := svc.ParsePriceRequest(&req)

			var fieldErr *FieldError
			require.ErrorAs(t, err, &fieldErr)
			assert.Equal(t, field, fieldErr.Field)
		})
	}
}

func TestParsePriceRequestUnrecognizedTypeIsEngineError(t *testing.T) {
	svc := NewRequestService()
	_, err := svc.ParsePriceRequest(&dto.PriceRequest{Type: "x"})
	assert.ErrorIs(t, err, bsm.ErrUnrecognizedOptionType)
}

func TestDecodePriceRequestFromQuery(t *testing.T) {
	svc := NewRequestService()
	r := httptest.NewRequest(http.MethodGet, "/api/price?type=call&strike=100&spot=100&maturity=01/01/2027&volatility=0.2&extra=1", nil)

	req, err := svc.DecodePriceRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "call", req.Type)
	assert.Equal(t, "01/01/2027", req.Maturity)
	assert.Empty(t, req.RiskFreeRate)
}

func TestDecodePriceRequestMissingRequired(t *testing.T) {
	svc := NewRequestService()
	r := httptest.NewRequest(http.MethodGet, "/api/price?type=call", nil)

	_, err := svc.DecodePriceRequest(r)
	assert.Error(t, err)
}

func TestDecodePriceRequestFromJSON(t *testing.T) {
	svc := NewRequestService()
	body := `{"type":"put","strike":"110","spot":"100","maturity":"2027-01-01","volatility":"0.25","risk_free_rate":"5","dividend_yield":"0"}`
	r := httptest.NewRequest(http.MethodPost, "/api/price", strings.NewReader(body))

	req, err := svc.DecodePriceRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "110", req.Strike)
	assert.Equal(t, "0", req.DividendYield)
}

func TestParsePortfolioRequest(t *testing.T) {
	svc := NewRequestService()
	body := `{"symbols":[" aapl ","", "msft"],"expiration_date":"2026-01-16"}`
	r := httptest.NewRequest(http.MethodPost, "/api/portfolio", strings.NewReader(body))

	req, err := svc.ParsePortfolioRequest(r)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, req.Symbols)

	bad := httptest.NewRequest(http.MethodPost, "/api/portfolio", strings.NewReader(`{"expiration_date":"16/01/2026"}`))
	_, err = svc.ParsePortfolioRequest(bad)
	assert.Error(t, err)

	empty := httptest.NewRequest(http.MethodPost, "/api/portfolio", nil)
	req, err = svc.ParsePortfolioRequest(empty)
	require.NoError(t, err)
	assert.Empty(t, req.Symbols)
}

func TestDecodeCurveRequest(t *testing.T) {
	svc := NewRequestService()
	r := httptest.NewRequest(http.MethodGet, "/api/curve?type=call&strike=100&maturity=1&volatility=0.2&measure=delta", nil)

	req, err := svc.DecodeCurveRequest(r)
	require.NoError(t, err)
	assert.Equal(t, 100.0, req.Strike)
	assert.Equal(t, "delta", req.Measure)
	assert.Zero(t, req.SpotStep)
}

func TestParseFloat64(t *testing.T) {
	svc := NewRequestService()
	assert.Equal(t, 1.5, svc.ParseFloat64(" 1.5 ", 0))
	assert.Equal(t, 7.0, svc.ParseFloat64("x", 7))
}

func TestParsePriceRequestRejectsNonFiniteText(t *testing.T) {
	svc := NewRequestService()
	_, err := svc.ParsePriceRequest(&dto.PriceRequest{Type: "call", Strike: "100", Spot: "100", Maturity: "01/01/2027", Volatility: "Inf"})

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "volatility", fieldErr.Field)
}

func TestResolveSpotDownloadsForTicker(t *testing.T) {
	svc := NewRequestService().WithClock(fixedClock)
	market := providers.NewProviderManager(mock.NewAppleProvider())

	req := &dto.PriceRequest{Type: "call", Strike: "270", Ticker: " aapl ", Maturity: "16/01/2026", Volatility: "0.22"}
	require.NoError(t, svc.ResolveSpot(context.Background(), market, req))
	assert.Equal(t, "272.225", req.Spot)

	input, err := svc.ParsePriceRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", input.Ticker)
	assert.Equal(t, mock.AppleSpot, input.Spot)
}

func TestResolveSpotTypedSpotWins(t *testing.T) {
	svc := NewRequestService()
	p := mock.NewAppleProvider()

	req := &dto.PriceRequest{Spot: "250", Ticker: "AAPL"}
	require.NoError(t, svc.ResolveSpot(context.Background(), providers.NewProviderManager(p), req))
	assert.Equal(t, "250", req.Spot)
	assert.Zero(t, p.Calls())

	// no ticker, nothing to do
	req = &dto.PriceRequest{}
	require.NoError(t, svc.ResolveSpot(context.Background(), nil, req))
	assert.Empty(t, req.Spot)
}

func TestResolveSpotFailuresAreUpstreamErrors(t *testing.T) {
	svc := NewRequestService()

	err := svc.ResolveSpot(context.Background(), providers.NewProviderManager(mock.NewAppleProvider()),
		&dto.PriceRequest{Ticker: "ZZZZ"})
	assert.ErrorIs(t, err, providers.ErrUpstreamData)

	failing := mock.NewAppleProvider()
	failing.FailPrices(errors.New("connection refused"))
	err = svc.ResolveSpot(context.Background(), providers.NewProviderManager(failing), &dto.PriceRequest{Ticker: "AAPL"})
	assert.ErrorIs(t, err, providers.ErrUpstreamData)
	assert.Contains(t, err.Error(), "connection refused")

	err = svc.ResolveSpot(context.Background(), nil, &dto.PriceRequest{Ticker: "AAPL"})
	assert.ErrorIs(t, err, providers.ErrUpstreamData)
}
