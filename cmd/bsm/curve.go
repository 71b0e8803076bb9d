package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	bsm "github.com/jwaldner/bsmpricer/bsm_lib"
	"github.com/jwaldner/bsmpricer/internal/export"
)

type curveFlags struct {
	typ        string
	strike     float64
	maturity   float64
	volatility float64
}

func (f *curveFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.typ, "type", "call", "option type (call or put)")
	cmd.Flags().Float64Var(&f.strike, "strike", 100, "strike price")
	cmd.Flags().Float64Var(&f.maturity, "maturity", 1, "time to maturity in years")
	cmd.Flags().Float64Var(&f.volatility, "vol", 0.2, "volatility as a decimal")
}

func (f *curveFlags) spec(spots bsm.SpotRange) (bsm.CurveSpec, error) {
	typ, err := bsm.ParseOptionType(f.typ)
	if err != nil {
		return bsm.CurveSpec{}, err
	}
	return bsm.CurveSpec{Type: typ, Strike: f.strike, Maturity: f.maturity, Volatility: f.volatility, Spots: spots}, nil
}

func newCurveCmd(c *cli) *cobra.Command {
	var (
		flags   curveFlags
		measure string
		from    float64
		to      float64
		step    float64
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "curve",
		Short: "Sample price or a Greek across spot and write it as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			spots := c.app.Charts.SpotRange()
			if step > 0 {
				spots = bsm.SpotRange{From: from, To: to, Step: step}
			}
			spec, err := flags.spec(spots)
			if err != nil {
				return err
			}

			var out io.Writer = cmd.OutOrStdout()
			if outPath != "" {
				file, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer file.Close()
				out = file
			}

			if measure == "all" {
				rows, err := export.CurveTable(c.app.Engine, spec)
				if err != nil {
					return err
				}
				return export.WriteCurveTable(out, rows)
			}

			m, err := bsm.ParseMeasure(measure)
			if err != nil {
				return err
			}
			points, err := c.app.Engine.SampleCurve(spec, m)
			if err != nil {
				return err
			}
			if err := export.WriteCurve(out, points); err != nil {
				return err
			}
			if outPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d points to %s\n", len(points), outPath)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&measure, "measure", "price", "price, delta, gamma, vega, theta or all")
	cmd.Flags().Float64Var(&from, "from", 0, "first spot (with --step)")
	cmd.Flags().Float64Var(&to, "to", 0, "last spot (with --step)")
	cmd.Flags().Float64Var(&step, "step", 0, "spot step; 0 uses the chart configuration")
	cmd.Flags().StringVar(&outPath, "out", "", "CSV file to write (default stdout)")
	return cmd
}

func newChartCmd(c *cli) *cobra.Command {
	var (
		flags    curveFlags
		measures []string
	)

	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Write PNG charts of price and Greeks across spot",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := flags.spec(c.app.Charts.SpotRange())
			if err != nil {
				return err
			}

			var selected []bsm.Measure
			for _, name := range measures {
				m, err := bsm.ParseMeasure(name)
				if err != nil {
					return err
				}
				selected = append(selected, m)
			}

			files, err := c.app.Charts.WriteCharts(c.app.Engine, spec, selected)
			for _, f := range files {
				fmt.Fprintln(cmd.OutOrStdout(), "Wrote", f)
			}
			return err
		},
	}

	flags.register(cmd)
	cmd.Flags().StringSliceVar(&measures, "measures", nil, "measures to chart (default all)")
	return cmd
}
