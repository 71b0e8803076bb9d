package dto

// PriceRequest is a single-option pricing request as typed by a user. Every field is raw
// text; parsing and the rate fallbacks happen in the request service. Spot may be left
// empty when Ticker is set; it is then downloaded from the market feed.
type PriceRequest struct {
	Type          string `json:"type" schema:"type,required"`
	Strike        string `json:"strike" schema:"strike,required"`
	Spot          string `json:"spot" schema:"spot"`
	Ticker        string `json:"ticker" schema:"ticker"`
	Maturity      string `json:"maturity" schema:"maturity,required"` // dd/mm/yyyy or yyyy-mm-dd
	Volatility    string `json:"volatility" schema:"volatility,required"`
	RiskFreeRate  string `json:"risk_free_rate" schema:"risk_free_rate"` // percent
	DividendYield string `json:"dividend_yield" schema:"dividend_yield"` // percent
}

// PortfolioRequest represents a batch portfolio run request
type PortfolioRequest struct {
	Symbols        []string `json:"symbols"`
	ExpirationDate string   `json:"expiration_date"` // empty picks the next monthly expiration
	RandomExpiry   bool     `json:"random_expiry"`
	Export         bool     `json:"export"`
	ExportSheets   bool     `json:"export_sheets"`
}

// CurveRequest asks for one measure sampled across spots
type CurveRequest struct {
	Type       string  `schema:"type,required"`
	Strike     float64 `schema:"strike,required"`
	Maturity   float64 `schema:"maturity,required"` // years
	Volatility float64 `schema:"volatility,required"`
	Measure    string  `schema:"measure"`
	SpotMin    float64 `schema:"spot_min"`
	SpotMax    float64 `schema:"spot_max"`
	SpotStep   float64 `schema:"spot_step"`
}

// ChartRequest asks for PNG charts of every measure for one contract
type ChartRequest struct {
	Type       string   `json:"type"`
	Strike     float64  `json:"strike"`
	Maturity   float64  `json:"maturity"`
	Volatility float64  `json:"volatility"`
	Measures   []string `json:"measures"` // empty charts all measures
}
