package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwaldner/bsmpricer/internal/export"
	"github.com/jwaldner/bsmpricer/internal/portfolio"
)

func newPortfolioCmd(c *cli) *cobra.Command {
	var (
		symbols    []string
		expiration string
		random     bool
		doExport   bool
		toSheets   bool
	)

	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Price the first call and put of each ticker's option chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := portfolio.Options{RandomExpiry: random}

			for _, s := range symbols {
				if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
					opts.Symbols = append(opts.Symbols, s)
				}
			}
			if len(opts.Symbols) == 0 {
				var err error
				if opts.Symbols, err = c.app.Symbols.GetAnalysisSymbols(); err != nil {
					return err
				}
			}

			if expiration != "" {
				exp, err := time.Parse("2006-01-02", expiration)
				if err != nil {
					return fmt.Errorf("invalid --expiration: %w", err)
				}
				opts.Expiration = exp
			}

			run, err := c.app.Runner.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}

			rows := export.TableFromRun(run)
			out := cmd.OutOrStdout()
			renderTable(out, rows)
			renderSkipped(out, run.Skipped)

			if doExport {
				path := c.app.Config.Export.File
				if err := export.WriteTableFile(path, rows); err != nil {
					return err
				}
				fmt.Fprintf(out, "Wrote %d rows to %s\n", len(rows), path)
			}

			if toSheets {
				factory := c.app.SheetsFactory()
				if factory == nil {
					return fmt.Errorf("export.spreadsheet_id is not configured")
				}
				exporter, err := factory(cmd.Context())
				if err != nil {
					return err
				}
				rng, err := exporter.Export(cmd.Context(), rows)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Updated sheet range %s\n", rng)
			}

			fmt.Fprintf(out, "Run %s: %d contracts, %d skipped\n", run.ID, len(run.Contracts), len(run.Skipped))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&symbols, "symbols", nil, "tickers to price (default: configured or top constituents)")
	cmd.Flags().StringVar(&expiration, "expiration", "", "chain expiration YYYY-MM-DD (default: next monthly)")
	cmd.Flags().BoolVar(&random, "random-expiry", false, "pick a random listed expiration per ticker")
	cmd.Flags().BoolVar(&doExport, "export", false, "write the table to export.file as CSV")
	cmd.Flags().BoolVar(&toSheets, "sheets", false, "write the table to the configured Google spreadsheet")
	return cmd
}
