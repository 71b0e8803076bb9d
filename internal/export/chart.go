package export

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	bsm "github.com/jwaldner/bsmpricer/bsm_lib"
	"github.com/jwaldner/bsmpricer/internal/config"
)

// ChartWriter renders sampled curves to PNG files styled by the chart configuration
type ChartWriter struct {
	cfg config.ChartConfig
}

// NewChartWriter creates a chart writer
func NewChartWriter(cfg config.ChartConfig) *ChartWriter {
	return &ChartWriter{cfg: cfg}
}

// SpotRange returns the configured spot grid
func (c *ChartWriter) SpotRange() bsm.SpotRange {
	return bsm.SpotRange{From: c.cfg.SpotMin, To: c.cfg.SpotMax, Step: c.cfg.SpotStep}
}

// WriteCharts samples each measure of spec and writes one PNG per measure into the output
// directory. It returns the written paths in measure order.
func (c *ChartWriter) WriteCharts(engine *bsm.Engine, spec bsm.CurveSpec, measures []bsm.Measure) ([]string, error) {
	if len(measures) == 0 {
		measures = bsm.AllMeasures
	}
	if err := os.MkdirAll(c.cfg.OutputDir, 0755); err != nil {
		return nil, err
	}

	var files []string
	for i, measure := range measures {
		points, err := engine.SampleCurve(spec, measure)
		if err != nil {
			return files, err
		}

		name := fmt.Sprintf("%s_%s.png", strings.ToLower(spec.Type.String()), strings.ToLower(measure.String()))
		path := filepath.Join(c.cfg.OutputDir, name)
		if err := c.WriteChart(path, spec, measure, points, c.color(i)); err != nil {
			return files, err
		}
		files = append(files, path)
	}
	return files, nil
}

// WriteChart plots one curve. Non-finite samples are left out of the line.
func (c *ChartWriter) WriteChart(path string, spec bsm.CurveSpec, measure bsm.Measure, points []bsm.Point, lineColor color.Color) error {
	xys := make(plotter.XYs, 0, len(points))
	for _, p := range points {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			continue
		}
		xys = append(xys, plotter.XY{X: p.Spot, Y: p.Value})
	}
	if len(xys) == 0 {
		return fmt.Errorf("%s curve has no finite points", measure)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s: %s %s (K=%g, t=%g, vol=%g)", c.cfg.Title, spec.Type, measure, spec.Strike, spec.Maturity, spec.Volatility)
	p.X.Label.Text = "Spot"
	p.Y.Label.Text = measure.String()
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("building %s line: %w", measure, err)
	}
	line.LineStyle.Color = lineColor
	line.LineStyle.Width = vg.Points(1.5)
	p.Add(line)
	p.Legend.Add(measure.String(), line)

	width := vg.Length(c.cfg.WidthInches) * vg.Inch
	height := vg.Length(c.cfg.HeightInches) * vg.Inch
	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

func (c *ChartWriter) color(i int) color.Color {
	if len(c.cfg.Colors) == 0 {
		return color.Black
	}
	col, err := ParseHexColor(c.cfg.Colors[i%len(c.cfg.Colors)])
	if err != nil {
		return color.Black
	}
	return col
}

// ParseHexColor parses #rrggbb or #rgb
func ParseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
