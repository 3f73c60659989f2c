package commands

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tableflip.dev/planner/pkg/app"
	"tableflip.dev/planner/pkg/commands/options"
	"tableflip.dev/planner/pkg/printers"
	"tableflip.dev/planner/pkg/timeutil"
)

func addReport(topLevel *cobra.Command) {
	var last string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize the stored days in a window",
		Long: `Report counts the visible items of each stored day within the window and
lists the open items added by hand.

Examples:
  planner report
  planner report --last 3d
  planner report --last 1w2d`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			duration, label, err := timeutil.ParseWindow(last)
			if err != nil {
				return output.HandleError(err)
			}

			svc, _, err := openService()
			if err != nil {
				return output.HandleError(err)
			}
			defer svc.Persistence.Close()

			until := svc.Today()
			since, err := timeutil.Cutoff(until, duration)
			if err != nil {
				return output.HandleError(err)
			}
			result, err := svc.Report(cmd.Context(), since, until)
			if err != nil {
				return output.HandleError(err)
			}
			if output.JSON {
				return output.PrintJSON(result)
			}
			renderReport(result, label, svc.Location)
			return nil
		},
	}

	cmd.Flags().StringVar(&last, "last", timeutil.DefaultWindow, "time window to include (for example 3d, 1w)")
	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}

func renderReport(result app.ReportResult, label string, loc *time.Location) {
	w := color.Output
	_, _ = fmt.Fprintf(w, "Report · last %s (%s → %s)\n", label, result.Since, result.Until)

	if result.Total == 0 {
		_, _ = fmt.Fprintln(w, "  No planned items found in this window.")
		_, _ = fmt.Fprintln(w)
		return
	}

	faint := color.New(color.Faint)
	for _, section := range result.Sections {
		_, _ = fmt.Fprintf(w, "\n%s", section.Period)
		_, _ = faint.Fprintf(w, "  %d items, %d timed, %d calendar, %d template\n",
			section.Total, section.Timed, section.Calendar, section.Template)
		for _, e := range section.Open {
			_, _ = fmt.Fprintf(w, "  ● %s\n", e.Value)
		}
	}
	_, _ = fmt.Fprintln(w)

	pp := printers.PrettyPrint{}
	for _, m := range monthCounts(result, loc) {
		pp.PrintMonthCount(m.month, m.count)
	}
}

type monthCount struct {
	month time.Time
	count []int
}

// monthCounts spreads the report's item totals over the months it covers.
func monthCounts(result app.ReportResult, loc *time.Location) []monthCount {
	from, err := timeutil.ParseDatestamp(result.Since, loc)
	if err != nil {
		return nil
	}
	to, err := timeutil.ParseDatestamp(result.Until, loc)
	if err != nil {
		return nil
	}
	var out []monthCount
	for m := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, loc); !m.After(to); m = printers.NextMonth(m) {
		out = append(out, monthCount{month: m, count: make([]int, printers.DaysIn(m))})
	}
	for _, section := range result.Sections {
		d, err := timeutil.ParseDatestamp(section.Period, loc)
		if err != nil {
			continue
		}
		for i := range out {
			if out[i].month.Year() == d.Year() && out[i].month.Month() == d.Month() {
				out[i].count[d.Day()-1] += section.Total
			}
		}
	}
	return out
}
