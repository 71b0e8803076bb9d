package treasury

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jwaldner/bsmpricer/internal/logger"
)

const defaultBaseURL = "https://api.fiscaldata.treasury.gov/services/api/fiscal_service"

// TreasuryClient supplies the risk-free rate from the latest Treasury bill average rate
type TreasuryClient struct {
	httpClient *http.Client
	baseURL    string

	mu            sync.Mutex
	lastKnownRate float64
	lastFetchTime time.Time
}

type TreasuryResponse struct {
	Data []TreasuryRate `json:"data"`
	Meta struct {
		Count int `json:"count"`
	} `json:"meta"`
}

type TreasuryRate struct {
	RecordDate            string `json:"record_date"`
	SecurityDesc          string `json:"security_desc"`
	AvgInterestRateAmount string `json:"avg_interest_rate_amt"`
}

// NewTreasuryClient creates a client whose last known rate starts at fallbackRate
func NewTreasuryClient(fallbackRate float64) *TreasuryClient {
	return &TreasuryClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:       defaultBaseURL,
		lastKnownRate: fallbackRate,
	}
}

// WithBaseURL points the client at another fiscaldata host
func (tc *TreasuryClient) WithBaseURL(baseURL string) *TreasuryClient {
	tc.baseURL = baseURL
	return tc
}

// fetchRiskFreeRate does the actual API call
func (tc *TreasuryClient) fetchRiskFreeRate(ctx context.Context) (float64, error) {
	url := fmt.Sprintf("%s/v2/accounting/od/avg_interest_rates?fields=avg_interest_rate_amt,record_date&filter=security_desc:eq:Treasury%%20Bills&sort=-record_date&page[size]=1", tc.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := tc.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch Treasury rate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("Treasury API returned status %d", resp.StatusCode)
	}

	var treasuryResp TreasuryResponse
	if err := json.NewDecoder(resp.Body).Decode(&treasuryResp); err != nil {
		return 0, fmt.Errorf("failed to decode Treasury response: %w", err)
	}

	if len(treasuryResp.Data) == 0 {
		return 0, fmt.Errorf("no Treasury rate data returned")
	}

	// "3.983" percent -> 0.03983
	rateStr := treasuryResp.Data[0].AvgInterestRateAmount
	rate, err := strconv.ParseFloat(rateStr, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse rate %s: %w", rateStr, err)
	}

	return rate / 100.0, nil
}

// GetRiskFreeRate fetches the most recent Treasury Bill rate as the risk-free rate
func (tc *TreasuryClient) GetRiskFreeRate(ctx context.Context) (float64, error) {
	rate, err := tc.fetchRiskFreeRate(ctx)
	if err != nil {
		return 0, err
	}

	tc.mu.Lock()
	tc.lastKnownRate = rate
	tc.lastFetchTime = time.Now()
	tc.mu.Unlock()

	logger.WithComponent("treasury").Infof("Fetched Treasury Bill rate: %.3f%% (%.6f decimal)", rate*100, rate)
	return rate, nil
}

// GetRiskFreeRateWithLastKnown tries to fetch current rate, uses last known if fetch fails
func (tc *TreasuryClient) GetRiskFreeRateWithLastKnown(ctx context.Context) float64 {
	if rate, err := tc.GetRiskFreeRate(ctx); err == nil {
		return rate
	} else {
		rate, age, fetched := tc.GetCacheInfo()
		logger.WithComponent("treasury").Warnf("Treasury API failed (%v), using last known rate %.6f (fetched=%v, age %v)",
			err, rate, fetched, age.Round(time.Minute))
		return rate
	}
}

// GetCacheInfo returns information about the cached rate
func (tc *TreasuryClient) GetCacheInfo() (rate float64, age time.Duration, isInitialized bool) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if tc.lastFetchTime.IsZero() {
		return tc.lastKnownRate, 0, false
	}
	return tc.lastKnownRate, time.Since(tc.lastFetchTime), true
}
