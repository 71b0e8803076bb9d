package bsm

import (
	"fmt"
	"math"
	"time"
)

// BatchRow is one raw option row of a portfolio table
type BatchRow struct {
	Ticker     string
	Spot       float64
	Strike     float64
	Expiry     time.Time
	Volatility float64
	Type       string

	// Optional per-row rates; nil falls back to the engine defaults
	RiskFreeRate  *float64
	DividendYield *float64
}

// BatchResult is the evaluated form of a BatchRow. Err is set when the row could not be
// priced; the other output fields are then zero.
type BatchResult struct {
	Row      BatchRow
	Maturity float64
	Greeks
	Err error
}

// YearFraction counts whole days from evaluation to expiry over a 365 day year.
// Partial days are floored, so an expiry date already begun counts as -1 day.
func YearFraction(expiry, evaluation time.Time) float64 {
	days := math.Floor(expiry.Sub(evaluation).Hours() / 24)
	return days / DaysPerYear
}

// EvaluateBatch prices every row independently. Results keep the input order and a failing
// row only affects its own result.
func (e *Engine) EvaluateBatch(rows []BatchRow, evaluationDate time.Time) []BatchResult {
	results := make([]BatchResult, len(rows))
	for i, row := range rows {
		results[i] = e.evaluateRow(row, evaluationDate)
	}
	return results
}

func (e *Engine) evaluateRow(row BatchRow, evaluationDate time.Time) BatchResult {
	result := BatchResult{
		Row:      row,
		Maturity: YearFraction(row.Expiry, evaluationDate),
	}

	typ, err := ParseOptionType(row.Type)
	if err != nil {
		result.Err = fmt.Errorf("row %s: %w", row.Ticker, err)
		return result
	}

	r, q := e.defaults.RiskFreeRate, e.defaults.DividendYield
	if row.RiskFreeRate != nil {
		r = *row.RiskFreeRate
	}
	if row.DividendYield != nil {
		q = *row.DividendYield
	}

	contract, err := NewContract(row.Strike, row.Spot, result.Maturity, row.Volatility, r, q)
	if err != nil {
		result.Err = fmt.Errorf("row %s: %w", row.Ticker, err)
		return result
	}

	greeks, err := contract.Evaluate(typ)
	if err != nil {
		result.Err = fmt.Errorf("row %s: %w", row.Ticker, err)
		return result
	}
	result.Greeks = greeks
	return result
}
