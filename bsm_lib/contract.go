package bsm

import "math"

// Contract values a European option under Black-Scholes-Merton with a continuous dividend
// yield. d1 and d2 are fixed at construction; a parameter change needs a new Contract.
type Contract struct {
	strike float64
	spot   float64
	t      float64 // year fraction, zero or negative once expired
	sigma  float64
	r      float64
	q      float64

	d1 float64
	d2 float64
}

// NewContract validates strike and spot and derives d1/d2.
//
// Time to maturity and volatility are not validated: t <= 0 or sigma <= 0 leave d1/d2
// non-finite and every downstream output follows IEEE float semantics.
func NewContract(strike, spot, t, sigma, r, q float64) (Contract, error) {
	if !(strike > 0) {
		return Contract{}, &InvalidParameterError{Field: "strike", Value: strike}
	}
	if !(spot > 0) {
		return Contract{}, &InvalidParameterError{Field: "spot", Value: spot}
	}

	c := Contract{
		strike: strike,
		spot:   spot,
		t:      t,
		sigma:  sigma,
		r:      r,
		q:      q,
	}
	volSqrtT := sigma * math.Sqrt(t)
	c.d1 = (math.Log(spot/strike) + (r-q+0.5*sigma*sigma)*t) / volSqrtT
	c.d2 = c.d1 - volSqrtT
	return c, nil
}

func (c Contract) Strike() float64         { return c.strike }
func (c Contract) Spot() float64           { return c.spot }
func (c Contract) TimeToMaturity() float64 { return c.t }
func (c Contract) Volatility() float64     { return c.sigma }
func (c Contract) RiskFreeRate() float64   { return c.r }
func (c Contract) DividendYield() float64  { return c.q }
func (c Contract) D1() float64             { return c.d1 }
func (c Contract) D2() float64             { return c.d2 }

// WithSpot returns a new contract that differs only in spot
func (c Contract) WithSpot(spot float64) (Contract, error) {
	return NewContract(c.strike, spot, c.t, c.sigma, c.r, c.q)
}

func (c Contract) dividendDiscount() float64 {
	return math.Exp(-c.q * c.t)
}

func (c Contract) rateDiscount() float64 {
	return math.Exp(-c.r * c.t)
}
