package symbols

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/jwaldner/bsmpricer/internal/logger"
)

const (
	timestampLayout = "2006-01-02 15:04:05"

	// DefaultAssetFile is where the last successful fetch is cached
	DefaultAssetFile = "assets/symbols/sp500_symbols.json"
)

// FallbackSources are tried after the configured constituents URL
var FallbackSources = []string{
	"https://datahub.io/core/s-and-p-500-companies/r/constituents.csv",
}

// Symbol represents a single S&P 500 stock symbol with metadata
type Symbol struct {
	Symbol               string `json:"symbol" csv:"Symbol"`
	Company              string `json:"company" csv:"Security"`
	Sector               string `json:"sector" csv:"GICS Sector"`
	SubIndustry          string `json:"sub_industry" csv:"GICS Sub-Industry"`
	HeadquartersLocation string `json:"headquarters_location" csv:"Headquarters Location"`
	DateAdded            string `json:"date_added" csv:"Date added"`
	CIK                  string `json:"cik" csv:"CIK"`
	Founded              string `json:"founded" csv:"Founded"`
	LastUpdated          string `json:"last_updated" csv:"-"`
}

// Info summarises the cached asset file
type Info struct {
	Exists      bool   `json:"exists"`
	Source      string `json:"source,omitempty"`
	LastUpdated string `json:"last_updated"`
	Count       int    `json:"count"`
}

type assetFile struct {
	Source      string   `json:"source"`
	LastUpdated string   `json:"last_updated"`
	Count       int      `json:"count"`
	Symbols     []Symbol `json:"symbols"`
}

// SP500Service manages S&P 500 symbol data using CSV sources and a JSON asset cache
type SP500Service struct {
	assetFile  string
	sources    []string
	httpClient *http.Client
}

// NewSP500Service creates a service that caches to assetPath and fetches from the given
// CSV sources in order
func NewSP500Service(assetPath string, sources ...string) *SP500Service {
	if assetPath == "" {
		assetPath = DefaultAssetFile
	}
	return &SP500Service{
		assetFile:  assetPath,
		sources:    sources,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// UpdateSymbols fetches the latest constituents and rewrites the asset cache. When every
// source fails the existing cache is kept and an error is returned only if it is empty.
func (s *SP500Service) UpdateSymbols(ctx context.Context) error {
	log := logger.WithComponent("symbols")

	var lastErr error
	for _, url := range s.sources {
		symbols, err := s.fetchCSVSource(ctx, url)
		if err != nil {
			log.Warnf("constituents source %s failed: %v", url, err)
			lastErr = err
			continue
		}
		if err := s.saveSymbols(url, symbols); err != nil {
			return fmt.Errorf("failed to save symbols: %w", err)
		}
		log.Infof("saved %d symbols from %s", len(symbols), url)
		return nil
	}

	cached, err := s.loadFromAssets()
	if err != nil || len(cached) == 0 {
		return fmt.Errorf("fetch failed and no assets available: %v", lastErr)
	}
	log.Warnf("all sources failed, keeping %d cached symbols", len(cached))
	return nil
}

// fetchCSVSource fetches symbols from a CSV source, keeping the source order
func (s *SP500Service) fetchCSVSource(ctx context.Context, url string) ([]Symbol, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var rows []Symbol
	if err := gocsv.Unmarshal(resp.Body, &rows); err != nil {
		return nil, fmt.Errorf("parsing constituents CSV: %w", err)
	}

	symbols := cleanSymbols(rows)
	if len(symbols) == 0 {
		return nil, fmt.Errorf("invalid CSV data")
	}
	return symbols, nil
}

func cleanSymbols(rows []Symbol) []Symbol {
	now := time.Now().Format(timestampLayout)
	seen := make(map[string]bool)
	var symbols []Symbol

	for _, row := range rows {
		row.Symbol = strings.ToUpper(strings.TrimSpace(row.Symbol))
		if row.Symbol == "" || len(row.Symbol) > 6 || seen[row.Symbol] {
			continue
		}
		seen[row.Symbol] = true

		row.Company = strings.TrimSpace(row.Company)
		row.Sector = strings.TrimSpace(row.Sector)
		row.SubIndustry = strings.TrimSpace(row.SubIndustry)
		row.HeadquartersLocation = strings.TrimSpace(row.HeadquartersLocation)
		row.DateAdded = strings.TrimSpace(row.DateAdded)
		row.CIK = strings.TrimSpace(row.CIK)
		row.Founded = strings.TrimSpace(row.Founded)
		row.LastUpdated = now
		symbols = append(symbols, row)
	}
	return symbols
}

// saveSymbols writes the asset JSON file
func (s *SP500Service) saveSymbols(source string, symbols []Symbol) error {
	if err := os.MkdirAll(filepath.Dir(s.assetFile), 0755); err != nil {
		return err
	}

	file, err := os.Create(s.assetFile)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	return encoder.Encode(assetFile{
		Source:      source,
		LastUpdated: time.Now().Format(timestampLayout),
		Count:       len(symbols),
		Symbols:     symbols,
	})
}

// LoadSymbols loads symbols from the local asset file
func (s *SP500Service) LoadSymbols() ([]Symbol, error) {
	return s.loadFromAssets()
}

// GetSymbolsAsStrings returns just the symbol strings in constituent order
func (s *SP500Service) GetSymbolsAsStrings() ([]string, error) {
	symbols, err := s.LoadSymbols()
	if err != nil {
		return nil, err
	}

	symbolStrings := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		symbolStrings = append(symbolStrings, symbol.Symbol)
	}
	return symbolStrings, nil
}

// GetSymbolsInfo returns summary information about the cache
func (s *SP500Service) GetSymbolsInfo() (Info, error) {
	data, err := os.ReadFile(s.assetFile)
	if os.IsNotExist(err) {
		return Info{LastUpdated: "never"}, nil
	}
	if err != nil {
		return Info{}, err
	}

	var asset assetFile
	if err := json.Unmarshal(data, &asset); err != nil {
		return Info{}, fmt.Errorf("failed to parse assets JSON: %w", err)
	}
	return Info{
		Exists:      true,
		Source:      asset.Source,
		LastUpdated: asset.LastUpdated,
		Count:       asset.Count,
	}, nil
}

// AutoUpdate updates symbols if they're missing or older than maxAge
func (s *SP500Service) AutoUpdate(ctx context.Context, maxAge time.Duration) error {
	info, err := s.GetSymbolsInfo()
	if err != nil || !info.Exists {
		return s.UpdateSymbols(ctx)
	}

	updateTime, err := time.ParseInLocation(timestampLayout, info.LastUpdated, time.Local)
	if err != nil || time.Since(updateTime) > maxAge {
		return s.UpdateSymbols(ctx)
	}
	return nil
}

// loadFromAssets loads symbols from the asset cache
func (s *SP500Service) loadFromAssets() ([]Symbol, error) {
	data, err := os.ReadFile(s.assetFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read assets file: %w", err)
	}

	var asset assetFile
	if err := json.Unmarshal(data, &asset); err != nil {
		return nil, fmt.Errorf("failed to parse assets JSON: %w", err)
	}
	return asset.Symbols, nil
}

// GetSymbolInfo looks up company and sector info for a symbol
func (s *SP500Service) GetSymbolInfo(ticker string) (company, sector string) {
	symbols, _ := s.loadFromAssets()

	for _, symbol := range symbols {
		if strings.EqualFold(symbol.Symbol, ticker) {
			return symbol.Company, symbol.Sector
		}
	}
	return "", ""
}
