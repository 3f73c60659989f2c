package commands

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tableflip.dev/planner/pkg/app"
	"tableflip.dev/planner/pkg/commands/options"
)

func addRollover(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "rollover",
		Short: "Carry unfinished items into today",
		Long: `Rollover copies the untimed items you added by hand, and timed items moved to
the same time, from the most recent planned day into today. Days older than
the "keep" window are pruned. It runs at most once a day; "show" and "serve"
run it for you.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			svc, _, err := openService()
			if err != nil {
				return output.HandleError(err)
			}
			defer svc.Persistence.Close()

			res, err := svc.Rollover(cmd.Context(), svc.Today())
			if err != nil {
				return output.HandleError(err)
			}
			if output.JSON {
				return output.PrintJSON(res)
			}
			renderRollover(res)
			return nil
		},
	}

	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}

func renderRollover(res app.RolloverResult) {
	w := color.Output
	if res.Skipped {
		_, _ = fmt.Fprintf(w, "Already rolled over into %s.\n", res.Today)
		return
	}
	if res.From == "" {
		_, _ = fmt.Fprintf(w, "Nothing to carry into %s.\n", res.Today)
	} else {
		_, _ = fmt.Fprintf(w, "Carried %d from %s into %s.\n", len(res.Carried), res.From, res.Today)
	}
	if len(res.Pruned) > 0 {
		_, _ = fmt.Fprintf(w, "Pruned %s.\n", strings.Join(res.Pruned, ", "))
	}
}
