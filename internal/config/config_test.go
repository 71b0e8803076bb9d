package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	os.Unsetenv("RISK_FREE_RATE")
	os.Unsetenv("DIVIDEND_YIELD")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 0.05, cfg.Model.RiskFreeRate)
	assert.Equal(t, 0.04, cfg.Model.DividendYield)
	assert.Equal(t, "config", cfg.Model.RateSource)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 149.0, cfg.Chart.SpotMax)
	assert.False(t, cfg.Audit.Enabled)
	assert.Equal(t, "audits", cfg.Audit.Dir)
}

func TestYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
model:
  risk_free_rate: 0.03
  dividend_yield: 0.0
  rate_source: treasury
  default_tickers: [AAPL, MSFT]
export:
  file: out.csv
  sheet_name: Greeks
chart:
  title: Curves
  spot_min: 50
  spot_max: 150
  spot_step: 5
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 0.03, cfg.Model.RiskFreeRate)
	assert.Equal(t, 0.0, cfg.Model.DividendYield)
	assert.Equal(t, "treasury", cfg.Model.RateSource)
	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Model.DefaultTickers)
	assert.Equal(t, "out.csv", cfg.Export.File)
	assert.Equal(t, "Greeks", cfg.Export.SheetName)
	assert.Equal(t, 5.0, cfg.Chart.SpotStep)
	// untouched sections keep their defaults
	assert.Equal(t, "info", cfg.Logging.LogLevel)
}

func TestEnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model:\n  risk_free_rate: 0.03\n"), 0644))

	t.Setenv("RISK_FREE_RATE", "0.045")
	t.Setenv("DEFAULT_TICKERS", "IBM,KO")
	t.Setenv("AUDIT_ENABLED", "true")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0.045, cfg.Model.RiskFreeRate)
	assert.Equal(t, []string{"IBM", "KO"}, cfg.Model.DefaultTickers)
	assert.True(t, cfg.Audit.Enabled)
}

func TestInvalidRateSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model:\n  rate_source: oracle\n"), 0644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: [unclosed"), 0644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestHasAlpacaCredentials(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.HasAlpacaCredentials())

	cfg.Alpaca.APIKey = "YOUR_ALPACA_API_KEY"
	cfg.Alpaca.SecretKey = "secret"
	assert.False(t, cfg.HasAlpacaCredentials())

	cfg.Alpaca.APIKey = "PKTEST123"
	assert.True(t, cfg.HasAlpacaCredentials())
}
