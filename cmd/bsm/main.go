package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jwaldner/bsmpricer/internal/app"
	"github.com/jwaldner/bsmpricer/internal/config"
	"github.com/jwaldner/bsmpricer/internal/logger"
)

type cli struct {
	configPath string
	logLevel   string
	app        *app.App
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "bsm",
		Short:         "Black-Scholes-Merton option pricer",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(c.configPath)
			if err != nil {
				return err
			}
			level := cfg.Logging.LogLevel
			if c.logLevel != "" {
				level = c.logLevel
			}
			if err := logger.InitWithConfig(level, cfg.Logging.LogFile); err != nil {
				return fmt.Errorf("initializing logging: %w", err)
			}

			c.app, err = app.New(cmd.Context(), cfg, app.Options{})
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.app != nil {
				return c.app.Close()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "config.yaml", "path to the YAML configuration")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override logging.log_level")

	root.AddCommand(
		newPriceCmd(c),
		newPortfolioCmd(c),
		newCurveCmd(c),
		newChartCmd(c),
		newSymbolsCmd(c),
	)
	return root
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
