package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tableflip.dev/planner/pkg/app"
	"tableflip.dev/planner/pkg/commands/options"
	"tableflip.dev/planner/pkg/entry"
	"tableflip.dev/planner/pkg/printers"
)

// itemCommand runs fn against the day chosen with --on and prints the item
// it returns.
func itemCommand(on *options.OnOptions, fn func(cmd *cobra.Command, svc *app.Service, period string) (entry.PlannerEvent, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
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
		e, err := fn(cmd, svc, period)
		if err != nil {
			return output.HandleError(err)
		}
		if output.JSON {
			return output.PrintJSON(e)
		}
		pp := printers.PrettyPrint{ShowID: true, ShowHidden: true}
		pp.Planner(e)
		return nil
	}
}

func addAdd(topLevel *cobra.Command) {
	on := &options.OnOptions{}
	place := &options.PlaceOptions{}

	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add an item to a day",
		Example: `
planner add call the bank
planner add --at 14:30 dentist
planner add --on tomorrow --after 2b1f... buy milk
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value := strings.Join(args, " ")
			return itemCommand(on, func(cmd *cobra.Command, svc *app.Service, period string) (entry.PlannerEvent, error) {
				return svc.Add(cmd.Context(), period, value, place.At, place.After)
			})(cmd, args)
		},
	}

	options.AddOnArgs(cmd, on)
	options.AddAtArg(cmd, place)
	options.AddAfterArg(cmd, place, "to the end")
	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}

func addEdit(topLevel *cobra.Command) {
	on := &options.OnOptions{}
	place := &options.PlaceOptions{}

	cmd := &cobra.Command{
		Use:   "edit <id> [text]",
		Short: "Change the text or time of an item",
		Long: `Edit rewrites an item. Calendar and template items are replaced by an edited
copy so later calendar or template changes no longer touch it. Use --at - to
clear the time.`,
		Example: `
planner edit 2b1f... call the bank again
planner edit 2b1f... --at 9:00
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			value := strings.Join(args[1:], " ")
			if value == "" && place.At == "" {
				return output.HandleError(fmt.Errorf("nothing to change, give new text or --at"))
			}
			return itemCommand(on, func(cmd *cobra.Command, svc *app.Service, period string) (entry.PlannerEvent, error) {
				return svc.Edit(cmd.Context(), period, id, value, place.At)
			})(cmd, args)
		},
	}

	options.AddOnArgs(cmd, on)
	options.AddAtArg(cmd, place)
	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}

func addMove(topLevel *cobra.Command) {
	on := &options.OnOptions{}
	place := &options.PlaceOptions{}

	cmd := &cobra.Command{
		Use:   "move <id>",
		Short: "Move an item within a day",
		Long: `Move places an item after another. Timed items stay in time order, so a
timed item may land next to the requested place rather than on it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return itemCommand(on, func(cmd *cobra.Command, svc *app.Service, period string) (entry.PlannerEvent, error) {
				return svc.Move(cmd.Context(), period, args[0], place.After)
			})(cmd, args)
		},
	}

	options.AddOnArgs(cmd, on)
	options.AddAfterArg(cmd, place, "to the top")
	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}

func addDelete(topLevel *cobra.Command) {
	on := &options.OnOptions{}

	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Mark an item for deletion, or unmark it",
		Long: `Delete toggles an item in and out of pending delete. Nothing is removed until
"planner confirm" runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return itemCommand(on, func(cmd *cobra.Command, svc *app.Service, period string) (entry.PlannerEvent, error) {
				return svc.ToggleDelete(cmd.Context(), period, args[0])
			})(cmd, args)
		},
	}

	options.AddOnArgs(cmd, on)
	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}

func addConfirm(topLevel *cobra.Command) {
	on := &options.OnOptions{}

	cmd := &cobra.Command{
		Use:   "confirm",
		Short: "Remove the items marked for deletion",
		Args:  cobra.NoArgs,
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
			n, err := svc.ConfirmDeletes(cmd.Context(), period)
			if err != nil {
				return output.HandleError(err)
			}
			if output.JSON {
				return output.PrintJSON(map[string]any{"period": period, "removed": n})
			}
			_, _ = fmt.Fprintf(color.Output, "Removed %d from %s.\n", n, period)
			return nil
		},
	}

	options.AddOnArgs(cmd, on)
	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}
