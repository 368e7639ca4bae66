package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/hydrodispatch/pkg/export"
	"github.com/kilianp07/hydrodispatch/qa/scenarios"
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario FILE...",
	Short: "Run scenario files and check their expectations",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScenarios,
}

func init() {
	scenarioCmd.Flags().BoolP("verbose", "v", false, "print the full report of each scenario")
	rootCmd.AddCommand(scenarioCmd)
}

func runScenarios(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	failed := 0
	for _, path := range args {
		sc, err := scenarios.Load(path)
		if err != nil {
			return err
		}
		rep := scenarios.Run(sc)
		status := "PASS"
		if !rep.Passed() {
			status = "FAIL"
			failed++
		}
		fmt.Fprintf(out, "%s %s\n", status, sc.Name)
		for _, f := range rep.Failures {
			fmt.Fprintf(out, "    %s\n", f)
		}
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			if err := export.WriteJSON(out, rep); err != nil {
				return err
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(args))
	}
	return nil
}
