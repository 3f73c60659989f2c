package commands

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/planner/pkg/store"
)

func addCompletions(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "completion",
		Short: "Generates bash completion scripts",
		Long: `To load completion run

. <(planner completion)

To configure your bash shell to load completions for each session add to your bashrc

# ~/.bashrc or ~/.profile
. <(planner completion)
`,
		Run: func(cmd *cobra.Command, args []string) {
			_ = topLevel.GenBashCompletionV2(os.Stdout, true)
		},
	}

	topLevel.AddCommand(cmd)

	// --on completes to stored days.
	for _, c := range topLevel.Commands() {
		if c.Flags().Lookup("on") != nil {
			_ = c.RegisterFlagCompletionFunc("on", periodCompletions)
		}
	}
}

func periodCompletions(cmd *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	p, err := store.Load(nil)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer p.Close()
	periods, err := p.Periods(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	out := []string{"today", "tomorrow", "yesterday"}
	for _, period := range periods {
		if strings.HasPrefix(period, toComplete) {
			out = append(out, period)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
