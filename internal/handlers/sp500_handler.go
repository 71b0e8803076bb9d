package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jwaldner/bsmpricer/internal/logger"
	"github.com/jwaldner/bsmpricer/internal/services"
	"github.com/jwaldner/bsmpricer/internal/symbols"
)

// SymbolMaxAge is how old the constituents cache may get before a read refreshes it
const SymbolMaxAge = 7 * 24 * time.Hour

// SP500Handler handles S&P 500 symbol management endpoints
type SP500Handler struct {
	symbolService *services.SymbolService
}

// NewSP500Handler creates a new S&P 500 handler
func NewSP500Handler(symbolService *services.SymbolService) *SP500Handler {
	return &SP500Handler{symbolService: symbolService}
}

func (h *SP500Handler) constituents() *symbols.SP500Service {
	return h.symbolService.Constituents()
}

// UpdateSymbolsHandler manually triggers symbol update
func (h *SP500Handler) UpdateSymbolsHandler(w http.ResponseWriter, r *http.Request) {
	log := logger.WithComponent("symbols")
	log.Info("Manual S&P 500 symbol update requested")

	startTime := time.Now()
	err := h.constituents().UpdateSymbols(r.Context())
	duration := time.Since(startTime)

	if err != nil {
		log.Errorf("Symbol update failed: %v", err)
		writeError(w, http.StatusBadGateway, fmt.Sprintf("Update failed: %v", err))
		return
	}

	info, _ := h.constituents().GetSymbolsInfo()
	log.Infof("Symbol update completed in %v", duration)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "success",
		"message":         "S&P 500 symbols updated successfully",
		"update_duration": duration.Milliseconds(),
		"timestamp":       time.Now().Unix(),
		"info":            info,
	})
}

// GetSymbolsHandler returns current S&P 500 symbols with metadata
func (h *SP500Handler) GetSymbolsHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.constituents().AutoUpdate(r.Context(), SymbolMaxAge); err != nil {
		logger.WithComponent("symbols").Warnf("Auto-update failed: %v", err)
	}

	list, err := h.constituents().LoadSymbols()
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Could not load symbols: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbols":   list,
		"count":     len(list),
		"timestamp": time.Now().Unix(),
	})
}

// GetSymbolsInfoHandler returns metadata about the symbol cache
func (h *SP500Handler) GetSymbolsInfoHandler(w http.ResponseWriter, r *http.Request) {
	info, err := h.constituents().GetSymbolsInfo()
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Could not get info: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// GetAnalysisSymbolsHandler returns the tickers a portfolio run would use
func (h *SP500Handler) GetAnalysisSymbolsHandler(w http.ResponseWriter, r *http.Request) {
	tickers, err := h.symbolService.GetAnalysisSymbols()
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to get symbols: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"source":  h.symbolService.GetSymbolSource(),
		"symbols": tickers,
		"count":   len(tickers),
	})
}
