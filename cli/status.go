package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"payflow/runtime"
)

var statusCmd = &cobra.Command{
	Use:   "status <file>",
	Short: "Report service reachability and a summary of the declared operations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		comps, err := bootstrap(cmd)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		printServiceStatus(out, "identity service  "+comps.cfg.AuthURL, comps.gateway.Health(cmd.Context()))
		printServiceStatus(out, "payments service  "+comps.cfg.PaymentsURL, comps.client.Health(cmd.Context()))

		flow, err := runtime.LoadFlow(args[0])
		if err != nil {
			return err
		}

		byType := make(map[string]int)
		users := make(map[string]struct{})
		for _, c := range flow.Commands {
			byType[c.Type]++
			if c.User.Specified() {
				users[c.User.ID] = struct{}{}
			}
		}

		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%d commands, %d distinct users", len(flow.Commands), len(users))))

		types := make([]string, 0, len(byType))
		for t := range byType {
			types = append(types, t)
		}
		sort.Strings(types)
		for _, t := range types {
			fmt.Fprintf(out, "  %-22s %d\n", t, byType[t])
		}

		return nil
	},
}
