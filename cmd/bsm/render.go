package main

import (
	"io"

	"github.com/olekukonko/tablewriter"

	bsm "github.com/jwaldner/bsmpricer/bsm_lib"
	"github.com/jwaldner/bsmpricer/internal/export"
	"github.com/jwaldner/bsmpricer/internal/models"
	"github.com/jwaldner/bsmpricer/internal/portfolio"
)

func renderGreeks(w io.Writer, g bsm.Greeks) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Price", "Delta", "Gamma", "Vega", "Theta", "Status", "Intrinsic"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.Append([]string{
		models.FormatFixed(g.Price, bsm.PricePrecision),
		models.FormatFixed(g.Delta, bsm.GreekPrecision),
		models.FormatFixed(g.Gamma, bsm.GreekPrecision),
		models.FormatFixed(g.Vega, bsm.GreekPrecision),
		models.FormatFixed(g.Theta, bsm.GreekPrecision),
		g.Moneyness.Status,
		models.FormatFixed(g.Moneyness.Value, bsm.IntrinsicPrecision),
	})
	table.Render()
}

func renderTable(w io.Writer, rows []export.TableRow) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Ticker", "Spot", "Maturity", "Type", "Strike", "Volatility",
		"Price", "Delta", "Gamma", "Vega", "Theta", "Status"})
	table.SetAutoFormatHeaders(false)

	for _, r := range rows {
		table.Append([]string{
			r.Ticker,
			models.FormatFixed(r.Spot, 2),
			r.Maturity,
			r.Type,
			models.FormatFixed(r.Strike, 2),
			models.FormatFixed(r.Volatility, 4),
			models.FormatFixed(r.Price, bsm.PricePrecision),
			models.FormatFixed(r.Delta, bsm.GreekPrecision),
			models.FormatFixed(r.Gamma, bsm.GreekPrecision),
			models.FormatFixed(r.Vega, bsm.GreekPrecision),
			models.FormatFixed(r.Theta, bsm.GreekPrecision),
			r.Status,
		})
	}
	table.Render()
}

func renderSkipped(w io.Writer, skipped []portfolio.Skipped) {
	if len(skipped) == 0 {
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Skipped", "Reason"})
	for _, s := range skipped {
		table.Append([]string{s.Ticker, s.Reason})
	}
	table.Render()
}
