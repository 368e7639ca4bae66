package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/hydrodispatch/app"
	"github.com/kilianp07/hydrodispatch/pkg/export"
)

var (
	pricesPath   string
	outputFormat string
	horizon      int
	equalStorage bool
	strategyName string
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Compute the revenue-maximising schedule for a price file",
	RunE:  runOptimize,
}

func init() {
	optimizeCmd.Flags().StringVarP(&pricesPath, "prices", "p", "", "hourly prices (.csv or .json)")
	optimizeCmd.Flags().StringVarP(&outputFormat, "output", "o", "json", "output format: json or csv")
	optimizeCmd.Flags().IntVar(&horizon, "horizon", 0, "number of hours to use, 0 for all")
	optimizeCmd.Flags().BoolVar(&equalStorage, "equal-storage", false, "end the horizon at the initial storage (overrides the config)")
	optimizeCmd.Flags().StringVar(&strategyName, "strategy", "", "chain, lp or greedy (default from config)")
	_ = optimizeCmd.MarkFlagRequired("prices")
	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	prices, err := export.ReadPricesFile(pricesPath)
	if err != nil {
		return err
	}
	svc, err := app.New(*cfg)
	if err != nil {
		return err
	}
	req := app.OptimizeRequest{Prices: prices, Horizon: horizon, Strategy: strategyName}
	if cmd.Flags().Changed("equal-storage") {
		req.EqualStorage = &equalStorage
	}
	resp, err := svc.Optimize(context.Background(), req)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	switch outputFormat {
	case "csv":
		return export.WriteScheduleCSV(out, resp.Schedule, resp.Prices, resp.Plant.Kappa)
	case "json":
		return export.WriteJSON(out, resp)
	default:
		return fmt.Errorf("unknown output format %q", outputFormat)
	}
}
