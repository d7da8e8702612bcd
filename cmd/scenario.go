package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/swapstation/qa/scenarios"
)

var scenarioVerbose bool

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Scripted operator sessions",
}

var scenarioRunCmd = &cobra.Command{
	Use:   "run <file>...",
	Short: "Replay scenario files on virtual time",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScenarios,
}

func init() {
	scenarioRunCmd.Flags().BoolVarP(&scenarioVerbose, "verbose", "v", false, "print the station view after each scenario")
	scenarioCmd.AddCommand(scenarioRunCmd)
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
		res, err := scenarios.Run(sc)
		if err != nil {
			return fmt.Errorf("%s: %w", sc.Name, err)
		}
		if res.Passed() {
			fmt.Fprintf(out, "PASS %s (%d steps, %s virtual)\n", res.Name, res.Steps, res.Elapsed)
		} else {
			failed++
			fmt.Fprintf(out, "FAIL %s\n", res.Name)
			for _, f := range res.Failures {
				fmt.Fprintf(out, "  %s\n", f)
			}
		}
		if scenarioVerbose {
			fmt.Fprintln(out, res.Console.Render(20))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(args))
	}
	return nil
}
