package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"payflow/runtime"
)

var variablesCmd = &cobra.Command{
	Use:   "variables <file>",
	Short: "Run a workflow and dump the output store for diagnostics",
	Long: `Variables executes the workflow like execute does, then prints every
(operation, field) pair recorded in the output store, in sorted key order.
Useful for working out which references a later operation can use.`,
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

		out := cmd.OutOrStdout()
		store := comps.runner.Store()
		values := store.All()

		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%d variables after run %s", store.Len(), summary.RunID)))
		for _, key := range store.Keys() {
			fmt.Fprintf(out, "  $%s = %s\n", key, values[key])
		}

		return nil
	},
}
