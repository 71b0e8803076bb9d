package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/jwaldner/bsmpricer/internal/logger"
)

const slowRequestThreshold = 5 * time.Second

// ProviderManager wraps a MarketProvider with logging and performance reporting
type ProviderManager struct {
	provider MarketProvider
}

// NewProviderManager creates a new provider manager
func NewProviderManager(provider MarketProvider) *ProviderManager {
	return &ProviderManager{
		provider: provider,
	}
}

// GetStockPrices is a convenience wrapper that adds logging
func (pm *ProviderManager) GetStockPrices(ctx context.Context, symbols []string) (*PriceResult, error) {
	result, err := pm.provider.GetStockPrices(ctx, symbols)
	if err != nil {
		return nil, fmt.Errorf("provider %s failed to get stock prices: %w",
			pm.provider.GetProviderName(), err)
	}

	pm.logIfSlow("stock prices", result.Metrics)
	return result, nil
}

// GetOptionChain is a convenience wrapper that adds logging
func (pm *ProviderManager) GetOptionChain(ctx context.Context, symbol string, expiration time.Time) (*ChainResult, error) {
	result, err := pm.provider.GetOptionChain(ctx, symbol, expiration)
	if err != nil {
		return nil, fmt.Errorf("provider %s failed to get option chain for %s: %w",
			pm.provider.GetProviderName(), symbol, err)
	}

	pm.logIfSlow("option chain "+symbol, result.Metrics)
	return result, nil
}

func (pm *ProviderManager) logIfSlow(what string, metrics PerformanceMetrics) {
	if metrics.RequestDuration > slowRequestThreshold {
		logger.WithComponent("providers").Warnf("SLOW REQUEST: %s %s took %v (queue: %v, network: %v)",
			pm.provider.GetProviderName(),
			what,
			metrics.RequestDuration,
			metrics.QueueTime,
			metrics.NetworkTime)
	}
}

// GetProvider returns the underlying provider
func (pm *ProviderManager) GetProvider() MarketProvider {
	return pm.provider
}

// GetPerformanceReport returns a detailed performance report
func (pm *ProviderManager) GetPerformanceReport() string {
	stats := pm.provider.GetPerformanceStats()

	return fmt.Sprintf(`
Provider Performance Report (%s)
=====================================
Requests Made:      %d
Average Queue Time: %v
Average Network:    %v
Average Parse:      %v
Total Duration:     %v
Rate Limit Hits:    %v
Retry Attempts:     %d
`,
		pm.provider.GetProviderName(),
		stats.RequestCount,
		stats.QueueTime,
		stats.NetworkTime,
		stats.ParseTime,
		stats.RequestDuration,
		stats.RateLimitHit,
		stats.RetryAttempts,
	)
}

// Close cleans up the provider
func (pm *ProviderManager) Close() error {
	return pm.provider.Close()
}
