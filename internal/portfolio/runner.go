package portfolio

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	bsm "github.com/jwaldner/bsmpricer/bsm_lib"
	"github.com/jwaldner/bsmpricer/internal/audit"
	"github.com/jwaldner/bsmpricer/internal/config"
	"github.com/jwaldner/bsmpricer/internal/logger"
	"github.com/jwaldner/bsmpricer/internal/providers"
	"github.com/jwaldner/bsmpricer/internal/utils"
)

// ErrNoSymbols is returned when a run is started without tickers
var ErrNoSymbols = errors.New("no symbols to price")

// Options selects what a run prices
type Options struct {
	Symbols []string

	// Expiration fixes the chain expiry; zero picks the next monthly expiration,
	// or a random listed one when RandomExpiry is set
	Expiration   time.Time
	RandomExpiry bool
}

// Contract is one priced chain row
type Contract struct {
	ContractSymbol string
	Volume         int64
	Currency       string
	bsm.BatchResult
}

// Skipped is a ticker or row that produced no priced contract
type Skipped struct {
	Ticker string
	Reason string
}

// Run is the outcome of one portfolio evaluation
type Run struct {
	ID             string
	EvaluationDate time.Time
	Expiration     time.Time // zero for random-expiry runs
	Contracts      []Contract
	Skipped        []Skipped
	NonFinite      int
}

// Runner fetches spots and chains for a list of tickers and prices the first call and
// first put of each chain in one batch
type Runner struct {
	engine       *bsm.Engine
	market       *providers.ProviderManager
	concurrency  int
	randomExpiry bool
	trail        *audit.Trail

	rngMu sync.Mutex
	rng   *rand.Rand
	now   func() time.Time
}

// NewRunner creates a runner from the model configuration
func NewRunner(engine *bsm.Engine, market *providers.ProviderManager, cfg config.ModelConfig) *Runner {
	return &Runner{
		engine:       engine,
		market:       market,
		concurrency:  max(cfg.Concurrency, 1),
		randomExpiry: cfg.RandomExpiry,
		rng:          rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
		now:          time.Now,
	}
}

// WithClock replaces the evaluation clock
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// WithSeed makes random expiry selection repeatable
func (r *Runner) WithSeed(seed uint64) *Runner {
	r.rng = rand.New(rand.NewPCG(seed, 0))
	return r
}

// WithTrail records every run to the audit trail
func (r *Runner) WithTrail(trail *audit.Trail) *Runner {
	r.trail = trail
	return r
}

type selection struct {
	rows    []*providers.OptionChainRow
	skipped string
}

// Run prices the portfolio. Tickers without a spot or a usable chain are skipped and
// reported; only a failed spot request or a cancelled context fails the whole run.
func (r *Runner) Run(ctx context.Context, opts Options) (*Run, error) {
	if len(opts.Symbols) == 0 {
		return nil, ErrNoSymbols
	}

	log := logger.WithComponent("portfolio")
	evaluationDate := r.now()

	run := &Run{
		ID:             uuid.NewString(),
		EvaluationDate: evaluationDate,
	}

	random := opts.RandomExpiry || r.randomExpiry
	expiration := opts.Expiration
	if !random && expiration.IsZero() {
		expiration = utils.NextOptionsExpiration(evaluationDate)
	}
	if !random {
		run.Expiration = expiration
	}

	log.Infof("run %s: pricing %d symbols (expiration %s, random %v)",
		run.ID, len(opts.Symbols), formatDate(run.Expiration), random)

	prices, err := r.market.GetStockPrices(ctx, opts.Symbols)
	if err != nil {
		return nil, fmt.Errorf("fetching spots: %w", err)
	}

	selections := make([]selection, len(opts.Symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, symbol := range opts.Symbols {
		if _, ok := prices.Data[symbol]; !ok {
			selections[i].skipped = "no spot price"
			continue
		}
		g.Go(func() error {
			rows, err := r.selectContracts(gctx, symbol, expiration, random, evaluationDate)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				selections[i].skipped = err.Error()
				return nil
			}
			selections[i].rows = rows
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var batch []bsm.BatchRow
	var chainRows []*providers.OptionChainRow
	for i, symbol := range opts.Symbols {
		sel := selections[i]
		if sel.skipped != "" {
			log.Warnf("run %s: skipping %s: %s", run.ID, symbol, sel.skipped)
			run.Skipped = append(run.Skipped, Skipped{Ticker: symbol, Reason: sel.skipped})
			continue
		}
		spot := prices.Data[symbol].Price
		for _, row := range sel.rows {
			batch = append(batch, bsm.BatchRow{
				Ticker:     symbol,
				Spot:       spot,
				Strike:     row.Strike,
				Expiry:     row.Expiration,
				Volatility: row.ImpliedVolatility,
				Type:       row.OptionType,
			})
			chainRows = append(chainRows, row)
		}
	}

	for i, result := range r.engine.EvaluateBatch(batch, evaluationDate) {
		if result.Err != nil {
			log.Warnf("run %s: %v", run.ID, result.Err)
			run.Skipped = append(run.Skipped, Skipped{Ticker: result.Row.Ticker, Reason: result.Err.Error()})
			continue
		}
		if findings := audit.CheckNonFinite(result.Greeks); len(findings) > 0 {
			run.NonFinite++
			log.Warnf("run %s: %s %s: %s (%s)", run.ID, result.Row.Ticker, chainRows[i].ContractSymbol,
				audit.CheckInputsMessage, audit.Describe(findings))
		}
		run.Contracts = append(run.Contracts, Contract{
			ContractSymbol: chainRows[i].ContractSymbol,
			Volume:         chainRows[i].Volume,
			Currency:       chainRows[i].Currency,
			BatchResult:    result,
		})
	}

	log.Infof("run %s: priced %d contracts, skipped %d", run.ID, len(run.Contracts), len(run.Skipped))
	r.recordRun(run, opts.Symbols, prices)
	return run, nil
}

// recordRun writes the run to the audit trail. Audit failures are logged, never returned.
func (r *Runner) recordRun(run *Run, symbols []string, prices *providers.PriceResult) {
	if r.trail == nil {
		return
	}
	log := logger.WithComponent("portfolio")

	expiration := ""
	if !run.Expiration.IsZero() {
		expiration = formatDate(run.Expiration)
	}
	spots := make(map[string]float64, len(prices.Data))
	for symbol, price := range prices.Data {
		spots[symbol] = price.Price
	}
	contracts := make([]map[string]string, 0, len(run.Contracts))
	for _, c := range run.Contracts {
		contracts = append(contracts, auditRecord(c))
	}

	err := errors.Join(
		r.trail.Begin(audit.Header{RunID: run.ID, Expiration: expiration, Symbols: symbols, StartTime: run.EvaluationDate}),
		r.trail.Append(run.ID, "spots", spots),
		r.trail.Append(run.ID, "skipped", run.Skipped),
		r.trail.Append(run.ID, "contracts", contracts),
	)
	if err != nil {
		log.Warnf("run %s: audit: %v", run.ID, err)
	}
	if _, err := r.trail.Finish(run.ID); err != nil {
		log.Warnf("run %s: audit: %v", run.ID, err)
	}
}

// auditRecord renders a contract as text so NaN and Inf survive JSON encoding
func auditRecord(c Contract) map[string]string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return map[string]string{
		"contract":   c.ContractSymbol,
		"type":       c.Type.String(),
		"spot":       f(c.Row.Spot),
		"strike":     f(c.Row.Strike),
		"expiry":     formatDate(c.Row.Expiry),
		"volatility": f(c.Row.Volatility),
		"maturity":   f(c.Maturity),
		"price":      f(c.Price),
		"delta":      f(c.Delta),
		"gamma":      f(c.Gamma),
		"vega":       f(c.Vega),
		"theta":      f(c.Theta),
		"status":     c.Moneyness.Status,
	}
}

// selectContracts returns the first call and the first put of the chain
func (r *Runner) selectContracts(ctx context.Context, symbol string, expiration time.Time, random bool, now time.Time) ([]*providers.OptionChainRow, error) {
	if random {
		expiration = time.Time{}
	}

	chain, err := r.market.GetOptionChain(ctx, symbol, expiration)
	if err != nil {
		return nil, err
	}

	rows := chain.Data
	if random {
		picked, ok := r.pickExpiration(rows, now)
		if !ok {
			return nil, fmt.Errorf("no listed expirations")
		}
		rows = filterExpiration(rows, picked)
	}

	var call, put *providers.OptionChainRow
	for _, row := range rows {
		switch {
		case row.OptionType == "call" && call == nil:
			call = row
		case row.OptionType == "put" && put == nil:
			put = row
		}
	}

	var selected []*providers.OptionChainRow
	if call != nil {
		selected = append(selected, call)
	}
	if put != nil {
		selected = append(selected, put)
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("empty option chain")
	}
	return selected, nil
}

// pickExpiration chooses uniformly among the distinct unexpired expirations in rows
func (r *Runner) pickExpiration(rows []*providers.OptionChainRow, now time.Time) (time.Time, bool) {
	expirations := listedExpirations(rows, now)
	if len(expirations) == 0 {
		return time.Time{}, false
	}

	r.rngMu.Lock()
	defer r.rngMu.Unlock()
	return expirations[r.rng.IntN(len(expirations))], true
}

// listedExpirations returns the unexpired expirations of rows, one per calendar date, ascending
func listedExpirations(rows []*providers.OptionChainRow, now time.Time) []time.Time {
	today := now.Truncate(24 * time.Hour)
	seen := make(map[string]bool)
	var expirations []time.Time
	for _, row := range rows {
		exp := row.Expiration
		key := exp.Format("2006-01-02")
		if exp.Before(today) || seen[key] {
			continue
		}
		seen[key] = true
		expirations = append(expirations, exp)
	}
	sort.Slice(expirations, func(i, j int) bool { return expirations[i].Before(expirations[j]) })
	return expirations
}

func filterExpiration(rows []*providers.OptionChainRow, expiration time.Time) []*providers.OptionChainRow {
	var filtered []*providers.OptionChainRow
	for _, row := range rows {
		if row.Expiration.Equal(expiration) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "random"
	}
	return t.Format("2006-01-02")
}
