package bsm

import (
	"fmt"
	"iter"
	"math"
	"strings"
)

// Measure selects the output sampled along a curve
type Measure int

const (
	MeasurePrice Measure = iota + 1
	MeasureDelta
	MeasureGamma
	MeasureVega
	MeasureTheta
)

// AllMeasures lists every measure in chart order
var AllMeasures = []Measure{MeasurePrice, MeasureDelta, MeasureGamma, MeasureVega, MeasureTheta}

func (m Measure) String() string {
	switch m {
	case MeasurePrice:
		return "Price"
	case MeasureDelta:
		return "Delta"
	case MeasureGamma:
		return "Gamma"
	case MeasureVega:
		return "Vega"
	case MeasureTheta:
		return "Theta"
	}
	return fmt.Sprintf("Measure(%d)", int(m))
}

// ParseMeasure is case-insensitive
func ParseMeasure(s string) (Measure, error) {
	for _, m := range AllMeasures {
		if strings.EqualFold(strings.TrimSpace(s), m.String()) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown measure %q", s)
}

// SpotRange is an inclusive, ascending range of spot values
type SpotRange struct {
	From float64
	To   float64
	Step float64
}

// DefaultSpotRange samples spots 1 through 149
var DefaultSpotRange = SpotRange{From: 1, To: 149, Step: 1}

// Len returns the number of samples in the range
func (r SpotRange) Len() int {
	if !(r.Step > 0) || r.To < r.From {
		return 0
	}
	// tolerate float drift on the last step
	return int(math.Floor((r.To-r.From)/r.Step+1e-9)) + 1
}

// At returns the i-th spot of the range
func (r SpotRange) At(i int) float64 {
	return r.From + float64(i)*r.Step
}

// CurveSpec fixes every contract input except spot
type CurveSpec struct {
	Type       OptionType
	Strike     float64
	Maturity   float64
	Volatility float64
	Spots      SpotRange
}

// Point is one (spot, value) sample
type Point struct {
	Spot  float64 `json:"spot" csv:"Spot"`
	Value float64 `json:"value" csv:"Value"`
}

// Curve yields (spot, value) pairs lazily. Each range over the returned sequence restarts
// from the first spot; nothing is retained between samples. Spots that cannot form a
// contract yield NaN.
func (e *Engine) Curve(spec CurveSpec, measure Measure) iter.Seq2[float64, float64] {
	return func(yield func(float64, float64) bool) {
		for i := 0; i < spec.Spots.Len(); i++ {
			spot := spec.Spots.At(i)
			if !yield(spot, e.sample(spec, measure, spot)) {
				return
			}
		}
	}
}

// SampleCurve collects a full curve
func (e *Engine) SampleCurve(spec CurveSpec, measure Measure) ([]Point, error) {
	if err := spec.Type.check(); err != nil {
		return nil, err
	}
	if measure < MeasurePrice || measure > MeasureTheta {
		return nil, fmt.Errorf("unknown measure %v", measure)
	}

	points := make([]Point, 0, spec.Spots.Len())
	for spot, value := range e.Curve(spec, measure) {
		points = append(points, Point{Spot: spot, Value: value})
	}
	return points, nil
}

func (e *Engine) sample(spec CurveSpec, measure Measure, spot float64) float64 {
	c, err := e.NewContract(spec.Strike, spot, spec.Maturity, spec.Volatility)
	if err != nil {
		return math.NaN()
	}

	var v float64
	switch measure {
	case MeasurePrice:
		v, err = c.Price(spec.Type)
	case MeasureDelta:
		v, err = c.Delta(spec.Type)
	case MeasureGamma:
		v = c.Gamma()
	case MeasureVega:
		v = c.Vega()
	case MeasureTheta:
		v, err = c.Theta(spec.Type)
	default:
		return math.NaN()
	}
	if err != nil {
		return math.NaN()
	}
	return v
}
