package bsm

// Defaults holds the process-wide rates used when a caller gives none
type Defaults struct {
	RiskFreeRate  float64
	DividendYield float64
}

// Engine builds contracts with configured default rates and runs batch and curve
// evaluations. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	defaults Defaults
}

// NewEngine creates an engine with the given default rates
func NewEngine(defaults Defaults) *Engine {
	return &Engine{defaults: defaults}
}

// Defaults returns the rates the engine was configured with
func (e *Engine) Defaults() Defaults {
	return e.defaults
}

// NewContract creates a contract using the engine's default risk-free rate and dividend yield
func (e *Engine) NewContract(strike, spot, t, sigma float64) (Contract, error) {
	return NewContract(strike, spot, t, sigma, e.defaults.RiskFreeRate, e.defaults.DividendYield)
}

// Quote builds a contract and evaluates it for one option type
func (e *Engine) Quote(typ OptionType, strike, spot, t, sigma float64) (Greeks, error) {
	c, err := e.NewContract(strike, spot, t, sigma)
	if err != nil {
		return Greeks{}, err
	}
	return c.Evaluate(typ)
}
