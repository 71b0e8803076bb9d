package export

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	bsm "github.com/jwaldner/bsmpricer/bsm_lib"
)

// CurveRow holds every measure at one spot
type CurveRow struct {
	Spot  float64 `csv:"Spot"`
	Price float64 `csv:"Price"`
	Delta float64 `csv:"Delta"`
	Gamma float64 `csv:"Gamma"`
	Vega  float64 `csv:"Vega"`
	Theta float64 `csv:"Theta"`
}

// CurveTable samples all measures of spec on the same spot grid
func CurveTable(engine *bsm.Engine, spec bsm.CurveSpec) ([]CurveRow, error) {
	rows := make([]CurveRow, spec.Spots.Len())
	for _, measure := range bsm.AllMeasures {
		points, err := engine.SampleCurve(spec, measure)
		if err != nil {
			return nil, err
		}
		for i, p := range points {
			rows[i].Spot = p.Spot
			switch measure {
			case bsm.MeasurePrice:
				rows[i].Price = p.Value
			case bsm.MeasureDelta:
				rows[i].Delta = p.Value
			case bsm.MeasureGamma:
				rows[i].Gamma = p.Value
			case bsm.MeasureVega:
				rows[i].Vega = p.Value
			case bsm.MeasureTheta:
				rows[i].Theta = p.Value
			}
		}
	}
	return rows, nil
}

// WriteCurve writes a single sampled curve as Spot,Value CSV
func WriteCurve(w io.Writer, points []bsm.Point) error {
	if err := gocsv.Marshal(&points, w); err != nil {
		return fmt.Errorf("writing curve: %w", err)
	}
	return nil
}

// WriteCurveTable writes all measures as CSV
func WriteCurveTable(w io.Writer, rows []CurveRow) error {
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("writing curve table: %w", err)
	}
	return nil
}
