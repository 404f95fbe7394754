package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"payflow/runtime"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a workflow file structurally, without network calls",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		comps, err := bootstrap(cmd)
		if err != nil {
			return err
		}

		flow, err := runtime.LoadFlow(args[0])
		if err != nil {
			return err
		}

		errs := flow.Validate(comps.registry)
		if len(errs) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %d commands, ok\n",
				okStyle.Render("✓"), args[0], len(flow.Commands))
			return nil
		}

		for _, e := range errs {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %v\n", failStyle.Render("✗"), e)
		}
		return fmt.Errorf("%d validation errors", len(errs))
	},
}
