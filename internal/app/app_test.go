package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwaldner/bsmpricer/internal/config"
	"github.com/jwaldner/bsmpricer/internal/logger"
	"github.com/jwaldner/bsmpricer/internal/treasury"
)

func TestNewWithoutCredentialsUsesOfflineChain(t *testing.T) {
	logger.Discard()
	cfg := config.Default()

	a, err := New(context.Background(), cfg, Options{AssetFile: filepath.Join(t.TempDir(), "sp500.json")})
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "mock", a.Market.GetProvider().GetProviderName())
	assert.Equal(t, 0.05, a.Engine.Defaults().RiskFreeRate)
	assert.Equal(t, 0.04, a.Engine.Defaults().DividendYield)
	assert.Nil(t, a.SheetsFactory())

	h := a.Handlers()
	assert.NotNil(t, h.Pricing)
	assert.NotNil(t, h.SP500)
}

func TestNewWithCredentialsUsesAlpaca(t *testing.T) {
	logger.Discard()
	cfg := config.Default()
	cfg.Alpaca.APIKey = "PKTEST"
	cfg.Alpaca.SecretKey = "secret"
	cfg.Export.SpreadsheetID = "sheet"

	a, err := New(context.Background(), cfg, Options{AssetFile: filepath.Join(t.TempDir(), "sp500.json")})
	require.NoError(t, err)
	assert.Equal(t, "alpaca", a.Market.GetProvider().GetProviderName())
	assert.NotNil(t, a.SheetsFactory())
}

func TestResolveDefaultsFromTreasury(t *testing.T) {
	logger.Discard()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"record_date":"2025-11-30","avg_interest_rate_amt":"4.25"}]}`)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Model.RateSource = "treasury"

	defaults, err := ResolveDefaults(context.Background(), cfg, treasury.NewTreasuryClient(0.05).WithBaseURL(server.URL))
	require.NoError(t, err)
	assert.InDelta(t, 0.0425, defaults.RiskFreeRate, 1e-12)
	assert.Equal(t, 0.04, defaults.DividendYield)
}

func TestResolveDefaultsTreasuryDown(t *testing.T) {
	logger.Discard()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Model.RateSource = "treasury"
	cfg.Model.RiskFreeRate = 0.045

	defaults, err := ResolveDefaults(context.Background(), cfg, treasury.NewTreasuryClient(0.045).WithBaseURL(server.URL))
	require.NoError(t, err)
	assert.Equal(t, 0.045, defaults.RiskFreeRate)
}

func TestResolveDefaultsUnknownSource(t *testing.T) {
	cfg := config.Default()
	cfg.Model.RateSource = "oracle"
	_, err := ResolveDefaults(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestNewWiresAuditTrail(t *testing.T) {
	logger.Discard()
	cfg := config.Default()
	cfg.Audit.Enabled = true
	cfg.Audit.Dir = t.TempDir()

	a, err := New(context.Background(), cfg, Options{AssetFile: filepath.Join(t.TempDir(), "sp500.json")})
	require.NoError(t, err)
	require.NotNil(t, a.Trail)
	require.NoError(t, a.Close())
}
