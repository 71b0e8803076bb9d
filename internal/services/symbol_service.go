package services

import (
	"fmt"

	"github.com/jwaldner/bsmpricer/internal/config"
	"github.com/jwaldner/bsmpricer/internal/symbols"
)

// SymbolService handles symbol selection logic
type SymbolService struct {
	config       *config.Config
	sp500Service *symbols.SP500Service
}

// NewSymbolService creates a new symbol service
func NewSymbolService(cfg *config.Config, sp500Service *symbols.SP500Service) *SymbolService {
	return &SymbolService{
		config:       cfg,
		sp500Service: sp500Service,
	}
}

// GetAnalysisSymbols returns the configured default tickers, or the first max_tickers
// constituents in index order
func (s *SymbolService) GetAnalysisSymbols() ([]string, error) {
	if len(s.config.Model.DefaultTickers) > 0 {
		return s.config.Model.DefaultTickers, nil
	}

	sp500Symbols, err := s.sp500Service.GetSymbolsAsStrings()
	if err != nil {
		return nil, fmt.Errorf("failed to get S&P 500 symbols: %w", err)
	}

	if maxSymbols := s.config.Model.MaxTickers; maxSymbols > 0 && len(sp500Symbols) > maxSymbols {
		sp500Symbols = sp500Symbols[:maxSymbols]
	}
	return sp500Symbols, nil
}

// GetSymbolSource returns a description of the symbol source
func (s *SymbolService) GetSymbolSource() string {
	if len(s.config.Model.DefaultTickers) > 0 {
		return fmt.Sprintf("%d Configured: %v", len(s.config.Model.DefaultTickers), s.config.Model.DefaultTickers)
	}
	return fmt.Sprintf("Top %d S&P 500 (no default_tickers configured)", s.config.Model.MaxTickers)
}

// Constituents exposes the underlying constituents service
func (s *SymbolService) Constituents() *symbols.SP500Service {
	return s.sp500Service
}
