package app

import (
	"context"
	"fmt"

	bsm "github.com/jwaldner/bsmpricer/bsm_lib"
	"github.com/jwaldner/bsmpricer/internal/audit"
	"github.com/jwaldner/bsmpricer/internal/config"
	"github.com/jwaldner/bsmpricer/internal/export"
	"github.com/jwaldner/bsmpricer/internal/handlers"
	"github.com/jwaldner/bsmpricer/internal/logger"
	"github.com/jwaldner/bsmpricer/internal/portfolio"
	"github.com/jwaldner/bsmpricer/internal/providers"
	"github.com/jwaldner/bsmpricer/internal/providers/alpaca"
	"github.com/jwaldner/bsmpricer/internal/providers/mock"
	"github.com/jwaldner/bsmpricer/internal/services"
	"github.com/jwaldner/bsmpricer/internal/symbols"
	"github.com/jwaldner/bsmpricer/internal/treasury"
)

// App holds the components shared by the server and the CLI
type App struct {
	Config   *config.Config
	Engine   *bsm.Engine
	Market   *providers.ProviderManager
	Runner   *portfolio.Runner
	Requests *services.RequestService
	Symbols  *services.SymbolService
	Charts   *export.ChartWriter
	Trail    *audit.Trail // nil unless audit.enabled
}

// Options adjusts how New builds the components
type Options struct {
	// Provider replaces the configured market data provider
	Provider providers.MarketProvider

	// Treasury replaces the default Treasury client when rate_source is treasury
	Treasury *treasury.TreasuryClient

	// AssetFile overrides where the constituents cache lives
	AssetFile string
}

// New wires every component from the configuration
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	log := logger.WithComponent("app")

	defaults, err := ResolveDefaults(ctx, cfg, opts.Treasury)
	if err != nil {
		return nil, err
	}
	engine := bsm.NewEngine(defaults)
	log.Infof("engine defaults: risk-free %.4f%%, dividend %.4f%% (source %s)",
		defaults.RiskFreeRate*100, defaults.DividendYield*100, cfg.Model.RateSource)

	provider := opts.Provider
	if provider == nil {
		if cfg.HasAlpacaCredentials() {
			provider = alpaca.NewAlpacaProvider(cfg.Alpaca)
		} else {
			log.Warn("no Alpaca credentials configured, using the offline AAPL sample chain")
			provider = mock.NewAppleProvider()
		}
	}
	market := providers.NewProviderManager(provider)

	sources := append([]string{cfg.Model.ConstituentsURL}, symbols.FallbackSources...)
	sp500 := symbols.NewSP500Service(opts.AssetFile, sources...)

	runner := portfolio.NewRunner(engine, market, cfg.Model)
	var trail *audit.Trail
	if cfg.Audit.Enabled {
		trail = audit.NewTrail(cfg.Audit.Dir)
		runner.WithTrail(trail)
	}

	return &App{
		Config:   cfg,
		Engine:   engine,
		Market:   market,
		Runner:   runner,
		Trail:    trail,
		Requests: services.NewRequestService(),
		Symbols:  services.NewSymbolService(cfg, sp500),
		Charts:   export.NewChartWriter(cfg.Chart),
	}, nil
}

// ResolveDefaults picks the engine's default rates from configuration or the Treasury API
func ResolveDefaults(ctx context.Context, cfg *config.Config, client *treasury.TreasuryClient) (bsm.Defaults, error) {
	defaults := bsm.Defaults{
		RiskFreeRate:  cfg.Model.RiskFreeRate,
		DividendYield: cfg.Model.DividendYield,
	}

	switch cfg.Model.RateSource {
	case "config":
	case "treasury":
		if client == nil {
			client = treasury.NewTreasuryClient(cfg.Model.RiskFreeRate)
		}
		defaults.RiskFreeRate = client.GetRiskFreeRateWithLastKnown(ctx)
	default:
		return defaults, fmt.Errorf("unknown rate source %q", cfg.Model.RateSource)
	}
	return defaults, nil
}

// SheetsFactory returns a factory for the configured spreadsheet, or nil when none is set
func (a *App) SheetsFactory() handlers.SheetsFactory {
	exp := a.Config.Export
	if exp.SpreadsheetID == "" {
		return nil
	}
	return func(ctx context.Context) (*export.SheetsExporter, error) {
		return export.NewSheetsExporterFromEnv(ctx, exp.CredentialsBase64Env, exp.SpreadsheetID, exp.SheetName)
	}
}

// Handlers builds the HTTP handlers
func (a *App) Handlers() handlers.Handlers {
	return handlers.Handlers{
		Pricing:   handlers.NewPricingHandler(a.Requests, a.Market),
		Portfolio: handlers.NewPortfolioHandler(a.Config, a.Engine, a.Runner, a.Market, a.Requests, a.Symbols, a.SheetsFactory()),
		Curve:     handlers.NewCurveHandler(a.Engine, a.Charts, a.Requests),
		SP500:     handlers.NewSP500Handler(a.Symbols),
	}
}

// Close stops the audit trail and releases the market data provider
func (a *App) Close() error {
	if a.Trail != nil {
		a.Trail.Close()
	}
	return a.Market.Close()
}
