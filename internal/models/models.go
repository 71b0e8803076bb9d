package models

import (
	"math"

	"github.com/shopspring/decimal"

	bsm "github.com/jwaldner/bsmpricer/bsm_lib"
)

// FieldValue represents a field with both raw data and formatted display
type FieldValue struct {
	Raw     interface{} `json:"raw"`     // For CSV/sorting: 10.451, nil when not finite
	Display string      `json:"display"` // For UI: "10.451"
	Type    string      `json:"type"`    // For CSS: "price"
}

// FormattedOptionResult represents an option result with formatted fields
type FormattedOptionResult map[string]FieldValue

// FormatFixed renders v with exactly places decimals. Non-finite values render as
// NaN, +Inf or -Inf.
func FormatFixed(v float64, places int32) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}

// NumberField builds a FieldValue; encoding/json cannot carry NaN so Raw is nil for
// non-finite numbers
func NumberField(v float64, places int32, typ string) FieldValue {
	field := FieldValue{Display: FormatFixed(v, places), Type: typ}
	if !math.IsNaN(v) && !math.IsInf(v, 0) {
		field.Raw = v
	}
	return field
}

// TextField builds a FieldValue for a string
func TextField(s, typ string) FieldValue {
	return FieldValue{Raw: s, Display: s, Type: typ}
}

// GreeksFields formats an evaluation with the engine's rounding precisions
func GreeksFields(g bsm.Greeks) FormattedOptionResult {
	return FormattedOptionResult{
		"type":      TextField(g.Type.String(), "text"),
		"price":     NumberField(g.Price, bsm.PricePrecision, "price"),
		"delta":     NumberField(g.Delta, bsm.GreekPrecision, "greek"),
		"gamma":     NumberField(g.Gamma, bsm.GreekPrecision, "greek"),
		"vega":      NumberField(g.Vega, bsm.GreekPrecision, "greek"),
		"theta":     NumberField(g.Theta, bsm.GreekPrecision, "greek"),
		"intrinsic": NumberField(g.Moneyness.Value, bsm.IntrinsicPrecision, "price"),
		"status":    TextField(g.Moneyness.Status, "status"),
	}
}

type FieldMetadata struct {
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
	Sortable    bool   `json:"sortable"`
	Alignment   string `json:"alignment"`
}

// OptionFieldMetadata describes the portfolio table columns
var OptionFieldMetadata = map[string]FieldMetadata{
	"ticker":     {DisplayName: "Ticker", Type: "text", Sortable: true, Alignment: "left"},
	"spot":       {DisplayName: "Spot", Type: "price", Sortable: true, Alignment: "right"},
	"maturity":   {DisplayName: "Maturity", Type: "date", Sortable: true, Alignment: "right"},
	"type":       {DisplayName: "Type", Type: "text", Sortable: true, Alignment: "left"},
	"strike":     {DisplayName: "Strike", Type: "price", Sortable: true, Alignment: "right"},
	"volatility": {DisplayName: "Volatility", Type: "percent", Sortable: true, Alignment: "right"},
	"price":      {DisplayName: "Price", Type: "price", Sortable: true, Alignment: "right"},
	"delta":      {DisplayName: "Delta", Type: "greek", Sortable: true, Alignment: "right"},
	"gamma":      {DisplayName: "Gamma", Type: "greek", Sortable: true, Alignment: "right"},
	"vega":       {DisplayName: "Vega", Type: "greek", Sortable: true, Alignment: "right"},
	"theta":      {DisplayName: "Theta", Type: "greek", Sortable: true, Alignment: "right"},
	"status":     {DisplayName: "Status", Type: "status", Sortable: true, Alignment: "left"},
}

// PriceInputs echoes the parsed single-option inputs
type PriceInputs struct {
	Ticker         string  `json:"ticker,omitempty"`
	Type           string  `json:"type"`
	Strike         float64 `json:"strike"`
	Spot           float64 `json:"spot"`
	Maturity       float64 `json:"maturity"`
	ExpirationDate string  `json:"expiration_date"`
	Volatility     float64 `json:"volatility"`
	RiskFreeRate   float64 `json:"risk_free_rate"`
	DividendYield  float64 `json:"dividend_yield"`
	RatesDefaulted bool    `json:"rates_defaulted"`
}

// PriceResponse represents a single-option pricing response
type PriceResponse struct {
	Success  bool                  `json:"success"`
	Inputs   PriceInputs           `json:"inputs"`
	Result   FormattedOptionResult `json:"result"`
	Warnings []string              `json:"warnings,omitempty"`
}

// SkippedRow is a ticker or row the portfolio run could not price
type SkippedRow struct {
	Ticker string `json:"ticker"`
	Reason string `json:"reason"`
}

type FormattedAnalysisData struct {
	Results       []FormattedOptionResult  `json:"results"`
	Skipped       []SkippedRow             `json:"skipped"`
	FieldMetadata map[string]FieldMetadata `json:"field_metadata"`
}

type ResponseMetadata struct {
	RunID          string  `json:"run_id"`
	ExpirationDate string  `json:"expiration_date"`
	Timestamp      string  `json:"timestamp"`
	ProcessingTime float64 `json:"processing_time"`
	Provider       string  `json:"provider"`
	SymbolSource   string  `json:"symbol_source"`
	RiskFreeRate   float64 `json:"risk_free_rate"`
	DividendYield  float64 `json:"dividend_yield"`
	SymbolCount    int     `json:"symbol_count"`
	ResultCount    int     `json:"result_count"`
	ExportFile     string  `json:"export_file,omitempty"`
	SheetRange     string  `json:"sheet_range,omitempty"`
}

// PortfolioResponse represents the complete portfolio API response
type PortfolioResponse struct {
	Success bool                  `json:"success"`
	Data    FormattedAnalysisData `json:"data"`
	Meta    ResponseMetadata      `json:"meta"`
}

// CurvePoint is one sampled spot with its formatted value
type CurvePoint struct {
	Spot  float64    `json:"spot"`
	Value FieldValue `json:"value"`
}

// CurveResponse carries one sampled curve
type CurveResponse struct {
	Success    bool         `json:"success"`
	Type       string       `json:"type"`
	Measure    string       `json:"measure"`
	Strike     float64      `json:"strike"`
	Maturity   float64      `json:"maturity"`
	Volatility float64      `json:"volatility"`
	Points     []CurvePoint `json:"points"`
	Warnings   []string     `json:"warnings,omitempty"`
}

// ChartResponse lists the chart files written
type ChartResponse struct {
	Success bool     `json:"success"`
	Files   []string `json:"files"`
}
