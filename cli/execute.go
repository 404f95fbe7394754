package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"payflow/runtime"
)

var executeCmd = &cobra.Command{
	Use:   "execute <file>",
	Short: "Run every operation declared in a workflow file",
	Long: `Execute loads the workflow file, validates it, and runs each operation
in declaration order. A failed operation is reported and the run continues
with the next one; the exit status is non-zero if any operation failed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		comps, err := bootstrap(cmd)
		if err != nil {
			return err
		}

		flow, err := runtime.LoadFlow(args[0])
		if err != nil {
			return err
		}

		summary, err := comps.runner.Run(cmd.Context(), flow)
		if err != nil {
			return err
		}

		printReport(cmd.OutOrStdout(), summary)

		if !summary.AllSucceeded() {
			return fmt.Errorf("%d of %d operations failed", summary.Failed(), summary.Total)
		}
		return nil
	},
}
