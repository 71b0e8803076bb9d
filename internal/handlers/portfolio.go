package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	bsm "github.com/jwaldner/bsmpricer/bsm_lib"
	"github.com/jwaldner/bsmpricer/internal/config"
	"github.com/jwaldner/bsmpricer/internal/export"
	"github.com/jwaldner/bsmpricer/internal/logger"
	"github.com/jwaldner/bsmpricer/internal/models"
	"github.com/jwaldner/bsmpricer/internal/portfolio"
	"github.com/jwaldner/bsmpricer/internal/providers"
	"github.com/jwaldner/bsmpricer/internal/services"
)

// SheetsFactory opens a Sheets exporter on demand
type SheetsFactory func(ctx context.Context) (*export.SheetsExporter, error)

// PortfolioHandler runs batch portfolio evaluations
type PortfolioHandler struct {
	cfg      *config.Config
	engine   *bsm.Engine
	runner   *portfolio.Runner
	market   *providers.ProviderManager
	requests *services.RequestService
	symbols  *services.SymbolService
	sheets   SheetsFactory
}

// NewPortfolioHandler creates a portfolio handler; sheets may be nil when no spreadsheet is
// configured
func NewPortfolioHandler(cfg *config.Config, engine *bsm.Engine, runner *portfolio.Runner, market *providers.ProviderManager,
	requests *services.RequestService, symbols *services.SymbolService, sheets SheetsFactory) *PortfolioHandler {
	return &PortfolioHandler{
		cfg:      cfg,
		engine:   engine,
		runner:   runner,
		market:   market,
		requests: requests,
		symbols:  symbols,
		sheets:   sheets,
	}
}

// RunHandler serves POST /api/portfolio
func (h *PortfolioHandler) RunHandler(w http.ResponseWriter, r *http.Request) {
	log := logger.WithComponent("portfolio")
	startTime := time.Now()

	req, err := h.requests.ParsePortfolioRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	symbolSource := "request"
	if len(req.Symbols) == 0 {
		req.Symbols, err = h.symbols.GetAnalysisSymbols()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		symbolSource = h.symbols.GetSymbolSource()
	}

	opts := portfolio.Options{Symbols: req.Symbols, RandomExpiry: req.RandomExpiry}
	if req.ExpirationDate != "" {
		// already validated by the request service
		opts.Expiration, _ = time.Parse("2006-01-02", req.ExpirationDate)
	}

	run, err := h.runner.Run(r.Context(), opts)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, portfolio.ErrNoSymbols) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}

	rows := export.TableFromRun(run)
	defaults := h.engine.Defaults()
	meta := models.ResponseMetadata{
		RunID:          run.ID,
		ExpirationDate: "random",
		Timestamp:      run.EvaluationDate.Format(time.RFC3339),
		Provider:       h.market.GetProvider().GetProviderName(),
		SymbolSource:   symbolSource,
		RiskFreeRate:   defaults.RiskFreeRate,
		DividendYield:  defaults.DividendYield,
		SymbolCount:    len(req.Symbols),
		ResultCount:    len(rows),
	}
	if !run.Expiration.IsZero() {
		meta.ExpirationDate = run.Expiration.Format("2006-01-02")
	}

	if req.Export {
		if err := export.WriteTableFile(h.cfg.Export.File, rows); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		meta.ExportFile = h.cfg.Export.File
		log.Infof("run %s: wrote %d rows to %s", run.ID, len(rows), h.cfg.Export.File)
	}

	if req.ExportSheets {
		if h.sheets == nil {
			writeError(w, http.StatusBadRequest, "no spreadsheet configured")
			return
		}
		exporter, err := h.sheets(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if meta.SheetRange, err = exporter.Export(r.Context(), rows); err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
	}

	results := make([]models.FormattedOptionResult, 0, len(run.Contracts))
	for _, c := range run.Contracts {
		result := models.GreeksFields(c.Greeks)
		result["ticker"] = models.TextField(c.Row.Ticker, "text")
		result["contract_symbol"] = models.TextField(c.ContractSymbol, "text")
		result["spot"] = models.NumberField(c.Row.Spot, 2, "price")
		result["strike"] = models.NumberField(c.Row.Strike, 2, "price")
		result["volatility"] = models.NumberField(c.Row.Volatility, 4, "percent")
		result["maturity"] = models.TextField(c.Row.Expiry.Format("2006-01-02"), "date")
		results = append(results, result)
	}

	skipped := make([]models.SkippedRow, 0, len(run.Skipped))
	for _, s := range run.Skipped {
		skipped = append(skipped, models.SkippedRow{Ticker: s.Ticker, Reason: s.Reason})
	}

	meta.ProcessingTime = time.Since(startTime).Seconds()
	writeJSON(w, http.StatusOK, models.PortfolioResponse{
		Success: true,
		Data: models.FormattedAnalysisData{
			Results:       results,
			Skipped:       skipped,
			FieldMetadata: models.OptionFieldMetadata,
		},
		Meta: meta,
	})
}

// TestConnectionHandler checks that the market data provider answers
func (h *PortfolioHandler) TestConnectionHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := h.market.GetStockPrices(r.Context(), []string{"AAPL"}); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "error",
			"message": "Market data connection failed: " + err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "success",
		"message":   h.market.GetProvider().GetProviderName() + " connection successful",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// PerformanceHandler returns the provider performance report
func (h *PortfolioHandler) PerformanceHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"provider": h.market.GetProvider().GetProviderName(),
		"stats":    h.market.GetProvider().GetPerformanceStats(),
		"report":   h.market.GetPerformanceReport(),
	})
}
