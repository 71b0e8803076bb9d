package bsm

import "gonum.org/v1/gonum/stat/distuv"

// n is the standard normal CDF
func n(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// phi is the standard normal PDF
func phi(x float64) float64 {
	return distuv.UnitNormal.Prob(x)
}
