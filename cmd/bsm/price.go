package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	bsm "github.com/jwaldner/bsmpricer/bsm_lib"
	"github.com/jwaldner/bsmpricer/internal/audit"
	"github.com/jwaldner/bsmpricer/internal/dto"
)

func newPriceCmd(c *cli) *cobra.Command {
	var req dto.PriceRequest

	cmd := &cobra.Command{
		Use:     "price",
		Short:   "Price one option and print its Greeks",
		Example: "  bsm price --type call --strike 100 --spot 100 --maturity 16/12/2026 --vol 0.2 --rate 5 --div 0\n" +
			"  bsm price --type put --strike 270 --ticker AAPL --maturity 2026-12-18 --vol 0.25",
		RunE: func(cmd *cobra.Command, args []string) error {
			downloaded := req.Ticker != "" && strings.TrimSpace(req.Spot) == ""
			if err := c.app.Requests.ResolveSpot(cmd.Context(), c.app.Market, &req); err != nil {
				return err
			}
			input, err := c.app.Requests.ParsePriceRequest(&req)
			if err != nil {
				return err
			}

			contract, err := bsm.NewContract(input.Strike, input.Spot, input.Maturity, input.Volatility,
				input.RiskFreeRate, input.DividendYield)
			if err != nil {
				return err
			}
			greeks, err := contract.Evaluate(input.Type)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if downloaded {
				fmt.Fprintf(out, "Downloaded %s spot %g\n", input.Ticker, input.Spot)
			}
			if input.RatesDefaulted {
				fmt.Fprintln(out, "Rate or dividend could not be parsed, using 5% and 4%")
			}
			fmt.Fprintf(out, "%s K=%g S=%g t=%.4f vol=%g r=%g q=%g\n", input.Type, input.Strike, input.Spot,
				input.Maturity, input.Volatility, input.RiskFreeRate, input.DividendYield)
			renderGreeks(out, greeks)

			for _, w := range audit.ValidateInputs(input.Strike, input.Spot, input.Maturity, input.Volatility) {
				fmt.Fprintln(out, "Warning:", w)
			}
			if audit.HasNonFinite(greeks) {
				fmt.Fprintln(out, audit.CheckInputsMessage)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Type, "type", "call", "option type (call or put)")
	cmd.Flags().StringVar(&req.Strike, "strike", "", "strike price")
	cmd.Flags().StringVar(&req.Spot, "spot", "", "spot price; leave empty to download it for --ticker")
	cmd.Flags().StringVar(&req.Ticker, "ticker", "", "underlying ticker whose latest price is used as spot")
	cmd.Flags().StringVar(&req.Maturity, "maturity", "", "maturity date, dd/mm/yyyy or yyyy-mm-dd")
	cmd.Flags().StringVar(&req.Volatility, "vol", "", "volatility as a decimal, 0.2 for 20%")
	cmd.Flags().StringVar(&req.RiskFreeRate, "rate", "5", "risk-free rate in percent")
	cmd.Flags().StringVar(&req.DividendYield, "div", "4", "dividend yield in percent")
	for _, name := range []string{"strike", "maturity", "vol"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
