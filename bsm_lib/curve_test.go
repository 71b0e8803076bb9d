package bsm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpotRangeLen(t *testing.T) {
	assert.Equal(t, 149, DefaultSpotRange.Len())
	assert.Equal(t, 1.0, DefaultSpotRange.At(0))
	assert.Equal(t, 149.0, DefaultSpotRange.At(148))

	assert.Equal(t, 11, SpotRange{From: 0.5, To: 1.5, Step: 0.1}.Len())
	assert.Equal(t, 0, SpotRange{From: 10, To: 1, Step: 1}.Len())
	assert.Equal(t, 0, SpotRange{From: 1, To: 10, Step: 0}.Len())
}

func TestSampleCurveMatchesPointwiseContracts(t *testing.T) {
	engine := NewEngine(Defaults{RiskFreeRate: 0.05, DividendYield: 0.01})
	spec := CurveSpec{Type: Call, Strike: 75, Maturity: 0.5, Volatility: 0.25, Spots: DefaultSpotRange}

	points, err := engine.SampleCurve(spec, MeasureDelta)
	require.NoError(t, err)
	require.Len(t, points, 149)

	for _, p := range []Point{points[0], points[74], points[148]} {
		c, err := engine.NewContract(75, p.Spot, 0.5, 0.25)
		require.NoError(t, err)
		want, _ := c.Delta(Call)
		assert.Equal(t, want, p.Value)
	}

	// call delta is monotone in spot
	for i := 1; i < len(points); i++ {
		assert.GreaterOrEqual(t, points[i].Value, points[i-1].Value)
	}
}

func TestCurveIsRestartable(t *testing.T) {
	engine := NewEngine(Defaults{RiskFreeRate: 0.03})
	spec := CurveSpec{Type: Put, Strike: 50, Maturity: 1, Volatility: 0.3, Spots: SpotRange{From: 40, To: 60, Step: 5}}
	seq := engine.Curve(spec, MeasurePrice)

	collect := func() []float64 {
		var out []float64
		for _, v := range seq {
			out = append(out, v)
		}
		return out
	}

	first := collect()
	second := collect()
	assert.Len(t, first, 5)
	assert.Equal(t, first, second)
}

func TestCurveStopsEarly(t *testing.T) {
	engine := NewEngine(Defaults{})
	spec := CurveSpec{Type: Call, Strike: 10, Maturity: 1, Volatility: 0.2, Spots: DefaultSpotRange}

	count := 0
	for spot := range engine.Curve(spec, MeasureGamma) {
		count++
		if spot >= 3 {
			break
		}
	}
	assert.Equal(t, 3, count)
}

func TestCurveDegenerateSpotYieldsNaN(t *testing.T) {
	engine := NewEngine(Defaults{})
	spec := CurveSpec{Type: Call, Strike: 10, Maturity: 1, Volatility: 0.2, Spots: SpotRange{From: 0, To: 1, Step: 1}}

	points, err := engine.SampleCurve(spec, MeasureVega)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.True(t, math.IsNaN(points[0].Value))
	assert.False(t, math.IsNaN(points[1].Value))
}

func TestSampleCurveRejectsBadInputs(t *testing.T) {
	engine := NewEngine(Defaults{})

	_, err := engine.SampleCurve(CurveSpec{Strike: 10, Maturity: 1, Volatility: 0.2, Spots: DefaultSpotRange}, MeasurePrice)
	assert.ErrorIs(t, err, ErrUnrecognizedOptionType)

	_, err = engine.SampleCurve(CurveSpec{Type: Call, Strike: 10, Maturity: 1, Volatility: 0.2, Spots: DefaultSpotRange}, Measure(42))
	assert.Error(t, err)
}

func TestParseMeasure(t *testing.T) {
	m, err := ParseMeasure("theta")
	require.NoError(t, err)
	assert.Equal(t, MeasureTheta, m)

	_, err = ParseMeasure("rho")
	assert.Error(t, err)
}
