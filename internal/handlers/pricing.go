package handlers

import (
	"errors"
	"net/http"

	bsm "github.com/jwaldner/bsmpricer/bsm_lib"
	"github.com/jwaldner/bsmpricer/internal/audit"
	"github.com/jwaldner/bsmpricer/internal/logger"
	"github.com/jwaldner/bsmpricer/internal/models"
	"github.com/jwaldner/bsmpricer/internal/providers"
	"github.com/jwaldner/bsmpricer/internal/services"
)

// PricingHandler prices a single option from user text inputs
type PricingHandler struct {
	requests *services.RequestService
	market   *providers.ProviderManager
}

// NewPricingHandler creates a pricing handler. market downloads the spot for requests that
// name a ticker instead of a spot; it may be nil.
func NewPricingHandler(requests *services.RequestService, market *providers.ProviderManager) *PricingHandler {
	return &PricingHandler{requests: requests, market: market}
}

// PriceHandler serves GET /api/price (query parameters) and POST /api/price (JSON)
func (h *PricingHandler) PriceHandler(w http.ResponseWriter, r *http.Request) {
	log := logger.WithComponent("pricing")

	req, err := h.requests.DecodePriceRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var spots services.SpotSource
	if h.market != nil {
		spots = h.market
	}
	if err := h.requests.ResolveSpot(r.Context(), spots, req); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, providers.ErrUpstreamData) {
			status = http.StatusBadGateway
		}
		log.Warnf("spot download failed: %v", err)
		writeError(w, status, err.Error())
		return
	}

	input, err := h.requests.ParsePriceRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	contract, err := bsm.NewContract(input.Strike, input.Spot, input.Maturity, input.Volatility,
		input.RiskFreeRate, input.DividendYield)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, bsm.ErrInvalidParameter) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}

	greeks, err := contract.Evaluate(input.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	warnings := audit.ValidateInputs(input.Strike, input.Spot, input.Maturity, input.Volatility)
	if input.RatesDefaulted {
		warnings = append(warnings, "Rate or dividend could not be parsed, using 5% and 4%")
	}
	if findings := audit.CheckNonFinite(greeks); len(findings) > 0 {
		log.Warnf("%s: %s", audit.CheckInputsMessage, audit.Describe(findings))
		warnings = append(warnings, audit.CheckInputsMessage)
	}

	log.Debugf("priced %s K=%v S=%v t=%.4f vol=%v: %+v", input.Type, input.Strike, input.Spot,
		input.Maturity, input.Volatility, greeks)

	writeJSON(w, http.StatusOK, models.PriceResponse{
		Success: true,
		Inputs: models.PriceInputs{
			Ticker:         input.Ticker,
			Type:           input.Type.String(),
			Strike:         input.Strike,
			Spot:           input.Spot,
			Maturity:       input.Maturity,
			ExpirationDate: input.Expiration.Format("2006-01-02"),
			Volatility:     input.Volatility,
			RiskFreeRate:   input.RiskFreeRate,
			DividendYield:  input.DividendYield,
			RatesDefaulted: input.RatesDefaulted,
		},
		Result:   models.GreeksFields(greeks),
		Warnings: warnings,
	})
}
