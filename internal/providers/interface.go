package providers

import (
	"context"
	"errors"
	"time"
)

// ErrUpstreamData marks malformed or missing market data. It stays on the collaborator
// side; the pricing engine only ever receives validated numbers.
var ErrUpstreamData = errors.New("upstream market data error")

// PerformanceMetrics tracks timing and performance data for provider operations
type PerformanceMetrics struct {
	RequestDuration time.Duration `json:"request_duration"`
	QueueTime       time.Duration `json:"queue_time"`   // Time waiting for rate limiter
	NetworkTime     time.Duration `json:"network_time"` // Actual HTTP request time
	ParseTime       time.Duration `json:"parse_time"`   // JSON parsing time
	RequestCount    int           `json:"request_count"`
	BytesReceived   int64         `json:"bytes_received"`
	RateLimitHit    bool          `json:"rate_limit_hit"`
	RetryAttempts   int           `json:"retry_attempts"`
}

// StockPrice represents a stock price with metadata
type StockPrice struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
	Volume    int64     `json:"volume,omitempty"`
}

// OptionChainRow is one listed option with the inputs the pricer needs
type OptionChainRow struct {
	ContractSymbol    string    `json:"contract_symbol"`
	UnderlyingSymbol  string    `json:"underlying_symbol"`
	Strike            float64   `json:"strike"`
	Expiration        time.Time `json:"expiration"`
	ImpliedVolatility float64   `json:"implied_volatility"`
	OptionType        string    `json:"option_type"` // "call" or "put"
	Volume            int64     `json:"volume"`
	Currency          string    `json:"currency"`
}

// PriceResult contains stock prices with performance metrics
type PriceResult struct {
	Data    map[string]*StockPrice `json:"data"`
	Metrics PerformanceMetrics     `json:"metrics"`
}

// ChainResult contains an option chain with performance metrics
type ChainResult struct {
	Data    []*OptionChainRow  `json:"data"`
	Metrics PerformanceMetrics `json:"metrics"`
}

// MarketProvider defines the interface for market data providers
type MarketProvider interface {
	// GetStockPrices fetches current stock prices for given symbols
	GetStockPrices(ctx context.Context, symbols []string) (*PriceResult, error)

	// GetOptionChain fetches the listed options of a symbol for one expiration
	GetOptionChain(ctx context.Context, symbol string, expiration time.Time) (*ChainResult, error)

	// GetProviderName returns the name of the provider (e.g., "alpaca", "mock")
	GetProviderName() string

	// GetPerformanceStats returns cumulative performance statistics
	GetPerformanceStats() PerformanceMetrics

	// Close cleans up any resources (connections, rate limiters, etc.)
	Close() error
}
