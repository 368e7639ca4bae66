package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/hydrodispatch/app"
	"github.com/kilianp07/hydrodispatch/core/model"
	"github.com/kilianp07/hydrodispatch/pkg/export"
)

var (
	actualPath   string
	forecastPath string
	evalOutput   string
	evalHorizon  int
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Compare forecast-driven dispatch with the stable and hindsight strategies",
	RunE:  runEvaluate,
}

func init() {
	evaluateCmd.Flags().StringVarP(&actualPath, "actual", "a", "", "actual hourly prices (.csv or .json)")
	evaluateCmd.Flags().StringVarP(&forecastPath, "forecast", "f", "", "forecast hourly prices (.csv or .json); day-ahead persistence of the actual prices when omitted")
	evaluateCmd.Flags().StringVarP(&evalOutput, "output", "o", "json", "output format: json, csv (hourly) or daily")
	evaluateCmd.Flags().IntVar(&evalHorizon, "horizon", 0, "number of hours to use, 0 for all")
	_ = evaluateCmd.MarkFlagRequired("actual")
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	actual, err := export.ReadPricesFile(actualPath)
	if err != nil {
		return fmt.Errorf("actual prices: %w", err)
	}
	var forecast model.PriceSeries
	if forecastPath != "" {
		if forecast, err = export.ReadPricesFile(forecastPath); err != nil {
			return fmt.Errorf("forecast prices: %w", err)
		}
	}
	svc, err := app.New(*cfg)
	if err != nil {
		return err
	}
	resp, err := svc.Evaluate(context.Background(), app.EvaluateRequest{Actual: actual, Forecast: forecast, Horizon: evalHorizon})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	switch evalOutput {
	case "csv":
		return export.WritePerformanceCSV(out, resp.Result)
	case "daily":
		return export.WriteDailyCSV(out, resp.Result)
	case "json":
		return export.WriteJSON(out, resp)
	default:
		return fmt.Errorf("unknown output format %q", evalOutput)
	}
}
