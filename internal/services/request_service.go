package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/schema"

	bsm "github.com/jwaldner/bsmpricer/bsm_lib"
	"github.com/jwaldner/bsmpricer/internal/config"
	"github.com/jwaldner/bsmpricer/internal/dto"
	"github.com/jwaldner/bsmpricer/internal/providers"
	"github.com/jwaldner/bsmpricer/internal/utils"
)

// PricingInput is a fully parsed single-option request
type PricingInput struct {
	Ticker         string // underlying named by the request, if any
	Type           bsm.OptionType
	Strike         float64
	Spot           float64
	Expiration     time.Time
	Maturity       float64 // years
	Volatility     float64
	RiskFreeRate   float64
	DividendYield  float64
	RatesDefaulted bool
}

// FieldError names the request field that could not be parsed
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// RequestService handles HTTP request parsing
type RequestService struct {
	decoder *schema.Decoder
	now     func() time.Time
}

// NewRequestService creates a new request service
func NewRequestService() *RequestService {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return &RequestService{
		decoder: decoder,
		now:     time.Now,
	}
}

// WithClock replaces the evaluation clock used for maturities
func (s *RequestService) WithClock(now func() time.Time) *RequestService {
	s.now = now
	return s
}

// DecodePriceRequest reads a price request from query parameters (GET) or a JSON body
func (s *RequestService) DecodePriceRequest(r *http.Request) (*dto.PriceRequest, error) {
	var req dto.PriceRequest

	switch r.Method {
	case http.MethodGet:
		if err := s.decoder.Decode(&req, r.URL.Query()); err != nil {
			return nil, fmt.Errorf("failed to decode query: %w", err)
		}
	case http.MethodPost:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, fmt.Errorf("failed to decode request: %w", err)
		}
	default:
		return nil, fmt.Errorf("method not allowed: %s", r.Method)
	}
	return &req, nil
}

// SpotSource supplies latest underlying prices
type SpotSource interface {
	GetStockPrices(ctx context.Context, symbols []string) (*providers.PriceResult, error)
}

// ResolveSpot downloads the spot for req.Ticker when the request leaves spot empty. A typed
// spot always wins. Every market failure is reported as providers.ErrUpstreamData.
func (s *RequestService) ResolveSpot(ctx context.Context, market SpotSource, req *dto.PriceRequest) error {
	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))
	req.Ticker = ticker
	if ticker == "" || strings.TrimSpace(req.Spot) != "" {
		return nil
	}
	if market == nil {
		return fmt.Errorf("%w: no market data provider to price %s", providers.ErrUpstreamData, ticker)
	}

	result, err := market.GetStockPrices(ctx, []string{ticker})
	if err != nil {
		if errors.Is(err, providers.ErrUpstreamData) {
			return fmt.Errorf("spot for %s: %w", ticker, err)
		}
		return fmt.Errorf("%w: spot for %s: %w", providers.ErrUpstreamData, ticker, err)
	}
	price, ok := result.Data[ticker]
	if !ok || !(price.Price > 0) {
		return fmt.Errorf("%w: no spot price for %s", providers.ErrUpstreamData, ticker)
	}

	req.Spot = strconv.FormatFloat(price.Price, 'f', -1, 64)
	return nil
}

// ParsePriceRequest turns raw text inputs into pricing inputs. Rates are given in percent.
// If either rate fails to parse both fall back to 5% and 4%; the engine itself never
// substitutes.
func (s *RequestService) ParsePriceRequest(req *dto.PriceRequest) (*PricingInput, error) {
	typ, err := bsm.ParseOptionType(req.Type)
	if err != nil {
		return nil, &FieldError{Field: "type", Err: err}
	}

	strike, err := parseNumber(req.Strike)
	if err != nil {
		return nil, &FieldError{Field: "strike", Err: err}
	}
	spot, err := parseNumber(req.Spot)
	if err != nil {
		return nil, &FieldError{Field: "spot", Err: err}
	}
	expiration, err := utils.ParseMaturityDate(req.Maturity)
	if err != nil {
		return nil, &FieldError{Field: "maturity", Err: err}
	}
	volatility, err := parseNumber(req.Volatility)
	if err != nil {
		return nil, &FieldError{Field: "volatility", Err: err}
	}

	input := &PricingInput{
		Ticker:     req.Ticker,
		Type:       typ,
		Strike:     strike,
		Spot:       spot,
		Expiration: expiration,
		Maturity:   bsm.YearFraction(expiration, s.now()),
		Volatility: volatility,
	}

	rate, rateErr := parseNumber(req.RiskFreeRate)
	div, divErr := parseNumber(req.DividendYield)
	if rateErr != nil || divErr != nil {
		input.RiskFreeRate = config.FallbackRiskFreeRate
		input.DividendYield = config.FallbackDividendYield
		input.RatesDefaulted = true
	} else {
		input.RiskFreeRate = rate / 100
		input.DividendYield = div / 100
	}
	return input, nil
}

// ParsePortfolioRequest parses an HTTP request into a PortfolioRequest
func (s *RequestService) ParsePortfolioRequest(r *http.Request) (*dto.PortfolioRequest, error) {
	if r.Method != http.MethodPost {
		return nil, fmt.Errorf("method not allowed: %s", r.Method)
	}

	var req dto.PortfolioRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, fmt.Errorf("failed to decode request: %w", err)
		}
	}

	if req.ExpirationDate != "" {
		if err := s.ValidateExpirationDate(req.ExpirationDate); err != nil {
			return nil, err
		}
	}

	var cleanSymbols []string
	for _, symbol := range req.Symbols {
		symbol = strings.TrimSpace(strings.ToUpper(symbol))
		if symbol != "" {
			cleanSymbols = append(cleanSymbols, symbol)
		}
	}
	req.Symbols = cleanSymbols

	return &req, nil
}

// DecodeCurveRequest reads a curve request from query parameters
func (s *RequestService) DecodeCurveRequest(r *http.Request) (*dto.CurveRequest, error) {
	var req dto.CurveRequest
	if err := s.decoder.Decode(&req, r.URL.Query()); err != nil {
		return nil, fmt.Errorf("failed to decode query: %w", err)
	}
	return &req, nil
}

// ValidateExpirationDate validates that the expiration date is valid
func (s *RequestService) ValidateExpirationDate(dateStr string) error {
	_, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return fmt.Errorf("invalid expiration date format: %w", err)
	}
	return nil
}

// ParseFloat64 safely parses a float64 with default fallback
func (s *RequestService) ParseFloat64(str string, defaultValue float64) float64 {
	if val, err := parseNumber(str); err == nil {
		return val
	}
	return defaultValue
}

// parseNumber accepts only finite numbers; "NaN" and "Inf" are rejected
func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a finite number", s)
	}
	return v, nil
}
