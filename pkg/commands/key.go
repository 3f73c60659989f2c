package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/planner/pkg/runner/key"
)

func addKey(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Explain the symbols used by show",
		Long: `Print the symbols planner uses for item states (new, editing, pending
delete, ...) and for where an item came from (calendar, template, manual).`,
		Example: `
planner key
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k := key.Key{Out: cmd.OutOrStdout()}
			return output.HandleError(k.Do(cmd.Context()))
		},
	}

	topLevel.AddCommand(cmd)
}
