package main

import (
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/jwaldner/bsmpricer/internal/handlers"
)

func newSymbolsCmd(c *cli) *cobra.Command {
	var maxAge time.Duration

	cmd := &cobra.Command{
		Use:   "symbols",
		Short: "List the cached index constituents, refreshing when stale",
		RunE: func(cmd *cobra.Command, args []string) error {
			sp500 := c.app.Symbols.Constituents()
			if err := sp500.AutoUpdate(cmd.Context(), maxAge); err != nil {
				return err
			}
			list, err := sp500.LoadSymbols()
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Symbol", "Company", "Sector"})
			for _, s := range list {
				table.Append([]string{s.Symbol, s.Company, s.Sector})
			}
			table.Render()

			fmt.Fprintf(cmd.OutOrStdout(), "%d symbols; analysis uses %s\n", len(list), c.app.Symbols.GetSymbolSource())
			return nil
		},
	}
	cmd.Flags().DurationVar(&maxAge, "max-age", handlers.SymbolMaxAge, "refresh the cache when older than this")

	cmd.AddCommand(&cobra.Command{
		Use:   "update",
		Short: "Fetch the constituents list now",
		RunE: func(cmd *cobra.Command, args []string) error {
			sp500 := c.app.Symbols.Constituents()
			if err := sp500.UpdateSymbols(cmd.Context()); err != nil {
				return err
			}
			info, err := sp500.GetSymbolsInfo()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d symbols from %s at %s\n", info.Count, info.Source, info.LastUpdated)
			return nil
		},
	})
	return cmd
}
