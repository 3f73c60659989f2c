package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/planner/pkg/commands/options"
	"tableflip.dev/planner/pkg/entry"
	"tableflip.dev/planner/pkg/log"
	"tableflip.dev/planner/pkg/printers"
	"tableflip.dev/planner/pkg/timeutil"
)

func addShow(topLevel *cobra.Command) {
	on := &options.OnOptions{}
	ids := &options.IDOptions{}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the planner for a day",
		Long: `Show merges the day's calendar events and template entries into the stored
planner and prints it in order. Showing today first carries unfinished items
over from the last planned day.`,
		Example: `
planner show
planner show --on tomorrow -k
planner show --on 2024-3-1 --json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			svc, _, err := openService()
			if err != nil {
				return output.HandleError(err)
			}
			defer svc.Persistence.Close()

			period, err := on.Period(time.Now(), svc.Location)
			if err != nil {
				return output.HandleError(err)
			}
			ctx := cmd.Context()
			if period == svc.Today() {
				if _, err := svc.Rollover(ctx, period); err != nil {
					log.Warn("rollover failed", "err", err)
				}
			}

			res, err := svc.Planner(ctx, period)
			if err != nil {
				return output.HandleError(err)
			}
			if output.JSON {
				return output.PrintJSON(res.Events)
			}

			count := 0
			for _, e := range res.Events {
				if entry.IsVisible(e) {
					count++
				}
			}
			day, _ := timeutil.DayKey(period)
			pp := printers.PrettyPrint{ShowID: ids.ShowID, ShowHidden: ids.All}
			pp.NewLine()
			pp.TitleWithCount(fmt.Sprintf("%s %s", day, period), count)
			pp.Planner(res.Events...)
			return nil
		},
	}

	options.AddOnArgs(cmd, on)
	options.AddShowIDArgs(cmd, ids)
	options.AddAllArg(cmd, ids)
	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}
