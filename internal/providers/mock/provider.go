package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jwaldner/bsmpricer/internal/providers"
)

// AppleExpiration is the expiry of the frozen AAPL chain (3rd Friday of January 2026)
var AppleExpiration = time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC)

// AppleSpot is the AAPL price when the chain was captured on 2025-12-16
const AppleSpot = 272.225

type frozenContract struct {
	symbol string
	iv     float64
	volume int64
}

// Options data captured from Alpaca on 2025-12-16, frozen for repeatable runs
var appleChain = []frozenContract{
	{"AAPL260116P00250000", 0.291, 29354},
	{"AAPL260116P00255000", 0.276, 13302},
	{"AAPL260116P00260000", 0.262, 275},
	{"AAPL260116P00265000", 0.249, 13861},
	{"AAPL260116P00275000", 0.231, 25000},
	{"AAPL260116P00280000", 0.226, 385},
	{"AAPL260116C00275000", 0.224, 18000},
	{"AAPL260116C00280000", 0.219, 485},
	{"AAPL260116C00285000", 0.215, 53879},
	{"AAPL260116C00290000", 0.214, 104090},
	{"AAPL260116C00295000", 0.216, 104090},
	{"AAPL260116C00300000", 0.221, 95},
}

// Provider is an in-memory MarketProvider for tests and offline runs
type Provider struct {
	mu     sync.Mutex
	prices map[string]float64
	chains map[string][]*providers.OptionChainRow
	errors map[string]error
	// priceErr fails every GetStockPrices call when set
	priceErr error
	calls    int
}

// NewProvider returns an empty provider
func NewProvider() *Provider {
	return &Provider{
		prices: make(map[string]float64),
		chains: make(map[string][]*providers.OptionChainRow),
		errors: make(map[string]error),
	}
}

// NewAppleProvider returns a provider preloaded with the frozen AAPL chain
func NewAppleProvider() *Provider {
	p := NewProvider()
	p.SetPrice("AAPL", AppleSpot)
	for _, c := range appleChain {
		occ, err := providers.ParseOCCSymbol(c.symbol)
		if err != nil {
			panic(err)
		}
		p.AddOption(&providers.OptionChainRow{
			ContractSymbol:    c.symbol,
			UnderlyingSymbol:  "AAPL",
			Strike:            occ.Strike,
			Expiration:        occ.Expiration,
			ImpliedVolatility: c.iv,
			OptionType:        occ.OptionType,
			Volume:            c.volume,
			Currency:          "USD",
		})
	}
	return p
}

// SetPrice sets the spot returned for a symbol
func (p *Provider) SetPrice(symbol string, price float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices[symbol] = price
}

// AddOption appends a row to the underlying's chain
func (p *Provider) AddOption(row *providers.OptionChainRow) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chains[row.UnderlyingSymbol] = append(p.chains[row.UnderlyingSymbol], row)
}

// FailChain makes GetOptionChain fail for symbol
func (p *Provider) FailChain(symbol string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errors[symbol] = err
}

// FailPrices makes GetStockPrices fail with err
func (p *Provider) FailPrices(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.priceErr = err
}

// Calls returns the number of requests served
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *Provider) GetProviderName() string {
	return "mock"
}

func (p *Provider) GetStockPrices(ctx context.Context, symbols []string) (*providers.PriceResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.priceErr != nil {
		return nil, p.priceErr
	}

	data := make(map[string]*providers.StockPrice)
	for _, symbol := range symbols {
		if price, ok := p.prices[symbol]; ok {
			data[symbol] = &providers.StockPrice{Symbol: symbol, Price: price}
		}
	}
	return &providers.PriceResult{Data: data, Metrics: providers.PerformanceMetrics{RequestCount: 1}}, nil
}

// GetOptionChain returns rows for symbol expiring on the expiration date. A zero
// expiration returns the whole chain.
func (p *Provider) GetOptionChain(ctx context.Context, symbol string, expiration time.Time) (*providers.ChainResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++

	if err := p.errors[symbol]; err != nil {
		return nil, fmt.Errorf("%w: %v", providers.ErrUpstreamData, err)
	}

	var rows []*providers.OptionChainRow
	for _, row := range p.chains[symbol] {
		if expiration.IsZero() || sameDay(row.Expiration, expiration) {
			copied := *row
			rows = append(rows, &copied)
		}
	}
	return &providers.ChainResult{Data: rows, Metrics: providers.PerformanceMetrics{RequestCount: 1}}, nil
}

func (p *Provider) GetPerformanceStats() providers.PerformanceMetrics {
	return providers.PerformanceMetrics{RequestCount: p.Calls()}
}

func (p *Provider) Close() error {
	return nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
