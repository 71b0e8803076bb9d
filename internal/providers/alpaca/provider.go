package alpaca

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jwaldner/bsmpricer/internal/config"
	"github.com/jwaldner/bsmpricer/internal/providers"
)

const (
	// Rate limiting for Alpaca Basic Plan (200 requests per minute)
	basicPlanDelay = 350 * time.Millisecond

	// HTTP timeout
	defaultTimeout = 30 * time.Second

	// Alpaca accepts at most 100 symbols per latest-bars request
	maxSymbolsPerRequest = 100

	// Upper bound on snapshot pages fetched for one chain
	maxChainPages = 20
)

// AlpacaProvider implements the MarketProvider interface for Alpaca Markets
type AlpacaProvider struct {
	apiKey     string
	secretKey  string
	dataURL    string
	feed       string
	httpClient *http.Client

	// Rate limiting
	minDelay    time.Duration
	lastRequest time.Time
	rateMutex   sync.Mutex

	// Performance tracking
	totalRequests    int64
	totalQueueTime   time.Duration
	totalNetworkTime time.Duration
	totalParseTime   time.Duration
	totalRetries     int64
	rateLimitHits    int64
	statsMutex       sync.RWMutex
}

// NewAlpacaProvider creates a new Alpaca market data provider
func NewAlpacaProvider(cfg config.AlpacaConfig) *AlpacaProvider {
	dataURL := cfg.DataURL
	if dataURL == "" {
		dataURL = "https://data.alpaca.markets"
	}
	return &AlpacaProvider{
		apiKey:    cfg.APIKey,
		secretKey: cfg.SecretKey,
		dataURL:   strings.TrimRight(dataURL, "/"),
		feed:      cfg.Feed,
		minDelay:  basicPlanDelay,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// GetProviderName returns the provider name
func (a *AlpacaProvider) GetProviderName() string {
	return "alpaca"
}

// rateLimit enforces the minimum spacing between requests
func (a *AlpacaProvider) rateLimit(ctx context.Context) (time.Duration, error) {
	a.rateMutex.Lock()
	defer a.rateMutex.Unlock()

	elapsed := time.Since(a.lastRequest)
	if elapsed >= a.minDelay {
		a.lastRequest = time.Now()
		return 0, nil
	}

	waitTime := a.minDelay - elapsed
	timer := time.NewTimer(waitTime)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-timer.C:
	}
	a.lastRequest = time.Now()
	return waitTime, nil
}

// makeRequest handles HTTP requests with performance tracking
func (a *AlpacaProvider) makeRequest(ctx context.Context, endpoint string) ([]byte, providers.PerformanceMetrics, error) {
	metrics := providers.PerformanceMetrics{
		RequestCount: 1,
	}

	startTime := time.Now()

	queueTime, err := a.rateLimit(ctx)
	if err != nil {
		return nil, metrics, err
	}
	metrics.QueueTime = queueTime
	metrics.RateLimitHit = queueTime > 0

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.dataURL+endpoint, nil)
	if err != nil {
		return nil, metrics, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("APCA-API-KEY-ID", a.apiKey)
	req.Header.Set("APCA-API-SECRET-KEY", a.secretKey)

	networkStart := time.Now()
	resp, err := a.httpClient.Do(req)
	metrics.NetworkTime = time.Since(networkStart)
	if err != nil {
		return nil, metrics, fmt.Errorf("network request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, metrics, fmt.Errorf("reading response: %w", err)
	}

	metrics.BytesReceived = int64(len(body))
	metrics.RequestDuration = time.Since(startTime)

	if resp.StatusCode == http.StatusTooManyRequests {
		metrics.RateLimitHit = true
		a.updateStats(metrics)
		return nil, metrics, fmt.Errorf("%w: rate limited by API", providers.ErrUpstreamData)
	}

	if resp.StatusCode != http.StatusOK {
		a.updateStats(metrics)
		return nil, metrics, fmt.Errorf("%w: API error: %d - %s", providers.ErrUpstreamData, resp.StatusCode, string(body))
	}

	a.updateStats(metrics)
	return body, metrics, nil
}

// updateStats updates cumulative performance statistics
func (a *AlpacaProvider) updateStats(metrics providers.PerformanceMetrics) {
	a.statsMutex.Lock()
	defer a.statsMutex.Unlock()

	a.totalRequests++
	a.totalQueueTime += metrics.QueueTime
	a.totalNetworkTime += metrics.NetworkTime
	a.totalParseTime += metrics.ParseTime
	a.totalRetries += int64(metrics.RetryAttempts)

	if metrics.RateLimitHit {
		a.rateLimitHits++
	}
}

// GetPerformanceStats returns averaged performance statistics
func (a *AlpacaProvider) GetPerformanceStats() providers.PerformanceMetrics {
	a.statsMutex.RLock()
	defer a.statsMutex.RUnlock()

	requests := max(a.totalRequests, 1)
	avgQueueTime := time.Duration(int64(a.totalQueueTime) / requests)
	avgNetworkTime := time.Duration(int64(a.totalNetworkTime) / requests)

	return providers.PerformanceMetrics{
		RequestDuration: avgNetworkTime + avgQueueTime,
		QueueTime:       avgQueueTime,
		NetworkTime:     avgNetworkTime,
		ParseTime:       time.Duration(int64(a.totalParseTime) / requests),
		RequestCount:    int(a.totalRequests),
		RetryAttempts:   int(a.totalRetries),
		RateLimitHit:    a.rateLimitHits > 0,
	}
}

// Close cleans up resources
func (a *AlpacaProvider) Close() error {
	a.httpClient.CloseIdleConnections()
	return nil
}

// Alpaca API response structures
type alpacaLatestBarsResponse struct {
	Bars map[string]alpacaBar `json:"bars"`
}

type alpacaBar struct {
	Close     float64   `json:"c"`
	High      float64   `json:"h"`
	Low       float64   `json:"l"`
	NumTrades int       `json:"n"`
	Open      float64   `json:"o"`
	Timestamp time.Time `json:"t"`
	Volume    int64     `json:"v"`
}

type alpacaSnapshotsResponse struct {
	Snapshots     map[string]alpacaSnapshot `json:"snapshots"`
	NextPageToken *string                   `json:"next_page_token"`
}

type alpacaSnapshot struct {
	ImpliedVolatility float64    `json:"impliedVolatility"`
	DailyBar          *alpacaBar `json:"dailyBar"`
}

// GetStockPrices fetches the latest bar close for each symbol
func (a *AlpacaProvider) GetStockPrices(ctx context.Context, symbols []string) (*providers.PriceResult, error) {
	result := &providers.PriceResult{
		Data: make(map[string]*providers.StockPrice),
	}

	for start := 0; start < len(symbols); start += maxSymbolsPerRequest {
		end := min(start+maxSymbolsPerRequest, len(symbols))
		batch := symbols[start:end]

		endpoint := "/v2/stocks/bars/latest?symbols=" + url.QueryEscape(strings.Join(batch, ","))
		body, metrics, err := a.makeRequest(ctx, endpoint)
		if err != nil {
			return nil, fmt.Errorf("stock prices request: %w", err)
		}

		parseStart := time.Now()
		var resp alpacaLatestBarsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("%w: parsing stock prices response: %v", providers.ErrUpstreamData, err)
		}
		metrics.ParseTime = time.Since(parseStart)

		for symbol, bar := range resp.Bars {
			if bar.Close <= 0 {
				continue
			}
			result.Data[symbol] = &providers.StockPrice{
				Symbol:    symbol,
				Price:     bar.Close,
				Timestamp: bar.Timestamp,
				Volume:    bar.Volume,
			}
		}
		mergeMetrics(&result.Metrics, metrics)
	}

	return result, nil
}

// GetOptionChain fetches option snapshots for one underlying and expiration, following
// pagination. A zero expiration fetches every listed expiration. Rows are sorted by
// expiration, type then strike.
func (a *AlpacaProvider) GetOptionChain(ctx context.Context, symbol string, expiration time.Time) (*providers.ChainResult, error) {
	result := &providers.ChainResult{}

	query := url.Values{}
	if !expiration.IsZero() {
		query.Set("expiration_date", expiration.Format("2006-01-02"))
	}
	query.Set("limit", "1000")
	if a.feed != "" {
		query.Set("feed", a.feed)
	}

	for page := 0; page < maxChainPages; page++ {
		endpoint := fmt.Sprintf("/v1beta1/options/snapshots/%s?%s", url.PathEscape(symbol), query.Encode())
		body, metrics, err := a.makeRequest(ctx, endpoint)
		if err != nil {
			return nil, fmt.Errorf("option chain request: %w", err)
		}

		parseStart := time.Now()
		var resp alpacaSnapshotsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("%w: parsing option snapshots response: %v", providers.ErrUpstreamData, err)
		}

		for contractSymbol, snapshot := range resp.Snapshots {
			occ, err := providers.ParseOCCSymbol(contractSymbol)
			if err != nil {
				continue
			}
			row := &providers.OptionChainRow{
				ContractSymbol:    contractSymbol,
				UnderlyingSymbol:  symbol,
				Strike:            occ.Strike,
				Expiration:        occ.Expiration,
				ImpliedVolatility: snapshot.ImpliedVolatility,
				OptionType:        occ.OptionType,
				Currency:          "USD",
			}
			if snapshot.DailyBar != nil {
				row.Volume = snapshot.DailyBar.Volume
			}
			result.Data = append(result.Data, row)
		}
		metrics.ParseTime = time.Since(parseStart)
		mergeMetrics(&result.Metrics, metrics)

		if resp.NextPageToken == nil || *resp.NextPageToken == "" {
			break
		}
		query.Set("page_token", *resp.NextPageToken)
	}

	sort.Slice(result.Data, func(i, j int) bool {
		if !result.Data[i].Expiration.Equal(result.Data[j].Expiration) {
			return result.Data[i].Expiration.Before(result.Data[j].Expiration)
		}
		if result.Data[i].OptionType != result.Data[j].OptionType {
			return result.Data[i].OptionType < result.Data[j].OptionType
		}
		return result.Data[i].Strike < result.Data[j].Strike
	})

	return result, nil
}

func mergeMetrics(total *providers.PerformanceMetrics, m providers.PerformanceMetrics) {
	total.RequestDuration += m.RequestDuration
	total.QueueTime += m.QueueTime
	total.NetworkTime += m.NetworkTime
	total.ParseTime += m.ParseTime
	total.RequestCount += m.RequestCount
	total.BytesReceived += m.BytesReceived
	total.RetryAttempts += m.RetryAttempts
	total.RateLimitHit = total.RateLimitHit || m.RateLimitHit
}
