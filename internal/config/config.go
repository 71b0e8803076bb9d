package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	defaultConfigFile = "config.yaml"
	defaultEnvFile    = ".env"

	// Controller fallbacks when user supplied rate text cannot be parsed
	FallbackRiskFreeRate  = 0.05
	FallbackDividendYield = 0.04
)

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

// ModelConfig holds pricing defaults and the market universe
type ModelConfig struct {
	RiskFreeRate    float64  `yaml:"risk_free_rate"`
	DividendYield   float64  `yaml:"dividend_yield"`
	RateSource      string   `yaml:"rate_source"` // config, treasury
	ConstituentsURL string   `yaml:"constituents_url"`
	MaxTickers      int      `yaml:"max_tickers"`
	DefaultTickers  []string `yaml:"default_tickers"`
	RandomExpiry    bool     `yaml:"random_expiry"`
	Concurrency     int      `yaml:"concurrency"`
}

// AlpacaConfig represents Alpaca API configuration
type AlpacaConfig struct {
	APIKey    string `yaml:"api_key"`
	SecretKey string `yaml:"secret_key"`
	DataURL   string `yaml:"data_url"`
	Feed      string `yaml:"feed"`
}

// ExportConfig represents table export configuration
type ExportConfig struct {
	File                 string `yaml:"file"`
	SheetName            string `yaml:"sheet_name"`
	SpreadsheetID        string `yaml:"spreadsheet_id"`
	CredentialsBase64Env string `yaml:"credentials_base64_env"`
}

// ChartConfig represents curve chart configuration
type ChartConfig struct {
	Title        string   `yaml:"title"`
	Colors       []string `yaml:"colors"`
	OutputDir    string   `yaml:"output_dir"`
	WidthInches  float64  `yaml:"width_inches"`
	HeightInches float64  `yaml:"height_inches"`
	SpotMin      float64  `yaml:"spot_min"`
	SpotMax      float64  `yaml:"spot_max"`
	SpotStep     float64  `yaml:"spot_step"`
}

// AuditConfig controls the per-run audit trail
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// ServerConfig represents HTTP server settings
type ServerConfig struct {
	Port string `yaml:"port"`
}

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Model   ModelConfig   `yaml:"model"`
	Alpaca  AlpacaConfig  `yaml:"alpaca"`
	Export  ExportConfig  `yaml:"export"`
	Chart   ChartConfig   `yaml:"chart"`
	Audit   AuditConfig   `yaml:"audit"`
	Logging LoggingConfig `yaml:"logging"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080"},
		Model: ModelConfig{
			RiskFreeRate:    FallbackRiskFreeRate,
			DividendYield:   FallbackDividendYield,
			RateSource:      "config",
			ConstituentsURL: "https://raw.githubusercontent.com/datasets/s-and-p-500-companies/master/data/constituents.csv",
			MaxTickers:      25,
			Concurrency:     4,
		},
		Alpaca: AlpacaConfig{
			DataURL: "https://data.alpaca.markets",
			Feed:    "indicative",
		},
		Export: ExportConfig{
			File:                 "bsm_portfolio.csv",
			SheetName:            "BSM",
			CredentialsBase64Env: "KEY_JSON_BASE64",
		},
		Chart: ChartConfig{
			Title:        "Black-Scholes-Merton sensitivities",
			Colors:       []string{"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd"},
			OutputDir:    "charts",
			WidthInches:  8,
			HeightInches: 4,
			SpotMin:      1,
			SpotMax:      149,
			SpotStep:     1,
		},
		Audit: AuditConfig{
			Dir: "audits",
		},
		Logging: LoggingConfig{
			LogLevel: "info",
			LogFile:  "bsm.log",
		},
	}
}

// Load reads config.yaml from the working directory and applies .env and environment
// overrides on top. A missing config file is not an error.
func Load() (*Config, error) {
	return LoadFile(defaultConfigFile)
}

// LoadFile is Load with an explicit YAML path
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// defaults only
	default:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	// .env never overrides variables already present in the environment
	if err := godotenv.Load(defaultEnvFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading %s: %w", defaultEnvFile, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)

	c.Model.RiskFreeRate = getEnvFloat("RISK_FREE_RATE", c.Model.RiskFreeRate)
	c.Model.DividendYield = getEnvFloat("DIVIDEND_YIELD", c.Model.DividendYield)
	c.Model.RateSource = getEnv("RATE_SOURCE", c.Model.RateSource)
	c.Model.ConstituentsURL = getEnv("CONSTITUENTS_URL", c.Model.ConstituentsURL)
	c.Model.MaxTickers = getEnvInt("MAX_TICKERS", c.Model.MaxTickers)
	c.Model.DefaultTickers = getEnvStringSlice("DEFAULT_TICKERS", c.Model.DefaultTickers)

	c.Alpaca.APIKey = getEnv("ALPACA_API_KEY", c.Alpaca.APIKey)
	c.Alpaca.SecretKey = getEnv("ALPACA_SECRET_KEY", c.Alpaca.SecretKey)
	c.Alpaca.DataURL = getEnv("ALPACA_DATA_URL", c.Alpaca.DataURL)

	c.Export.File = getEnv("EXPORT_FILE", c.Export.File)
	c.Export.SpreadsheetID = getEnv("EXPORT_SPREADSHEET_ID", c.Export.SpreadsheetID)

	c.Chart.OutputDir = getEnv("CHART_OUTPUT_DIR", c.Chart.OutputDir)

	c.Audit.Enabled = getEnvBool("AUDIT_ENABLED", c.Audit.Enabled)
	c.Audit.Dir = getEnv("AUDIT_DIR", c.Audit.Dir)

	c.Logging.LogLevel = getEnv("LOG_LEVEL", c.Logging.LogLevel)
	c.Logging.LogFile = getEnv("LOG_FILE", c.Logging.LogFile)
}

// Validate rejects settings no component can run with
func (c *Config) Validate() error {
	switch c.Model.RateSource {
	case "config", "treasury":
	default:
		return fmt.Errorf("model.rate_source must be config or treasury, got %q", c.Model.RateSource)
	}
	if c.Chart.SpotStep <= 0 || c.Chart.SpotMax < c.Chart.SpotMin {
		return fmt.Errorf("chart spot range [%v, %v] step %v is empty", c.Chart.SpotMin, c.Chart.SpotMax, c.Chart.SpotStep)
	}
	if c.Model.Concurrency < 1 {
		c.Model.Concurrency = 1
	}
	return nil
}

// HasAlpacaCredentials reports whether real (non placeholder) keys are configured
func (c *Config) HasAlpacaCredentials() bool {
	for _, key := range []string{c.Alpaca.APIKey, c.Alpaca.SecretKey} {
		if key == "" || strings.ContainsAny(key, "<>") || strings.HasPrefix(key, "YOUR_") || key == "REPLACE_ME" {
			return false
		}
	}
	return true
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
