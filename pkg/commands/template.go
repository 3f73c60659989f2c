package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tableflip.dev/planner/pkg/commands/options"
	"tableflip.dev/planner/pkg/printers"
	"tableflip.dev/planner/pkg/store"
)

func addTemplate(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "template",
		Aliases: []string{"tpl"},
		Short:   "Manage the recurring entries added to each day",
		Long: `Templates hold the entries copied into every planner for a day of the week.
Entries in the Weekdays template are inherited by Monday through Friday.`,
	}

	addTemplateAdd(cmd)
	addTemplateList(cmd)
	addTemplateDelete(cmd)
	addTemplateImport(cmd)
	addTemplateExport(cmd)
	topLevel.AddCommand(cmd)
}

func dayCompletions(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var out []string
	for _, d := range store.Days() {
		if strings.HasPrefix(strings.ToLower(d), strings.ToLower(toComplete)) {
			out = append(out, d)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// canonicalDay accepts day names in any case.
func canonicalDay(day string) string {
	for _, d := range store.Days() {
		if strings.EqualFold(d, day) {
			return d
		}
	}
	return day
}

func addTemplateAdd(parent *cobra.Command) {
	place := &options.PlaceOptions{}

	cmd := &cobra.Command{
		Use:   "add <day> <text>",
		Short: "Add a recurring entry to a day template",
		Example: `
planner template add weekdays --at 9:00 standup
planner template add saturday water the plants
`,
		Args:              cobra.MinimumNArgs(2),
		ValidArgsFunction: dayCompletions,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			svc, _, err := openService()
			if err != nil {
				return output.HandleError(err)
			}
			defer svc.Persistence.Close()

			day := canonicalDay(args[0])
			e, err := svc.TemplateAdd(cmd.Context(), day, strings.Join(args[1:], " "), place.At, place.After)
			if err != nil {
				return output.HandleError(err)
			}
			if output.JSON {
				return output.PrintJSON(e)
			}
			pp := printers.PrettyPrint{ShowID: true}
			pp.Templates(e)
			return nil
		},
	}

	options.AddAtArg(cmd, place)
	options.AddAfterArg(cmd, place, "to the end")
	options.AddOutputArg(cmd, output)
	parent.AddCommand(cmd)
}

func addTemplateList(parent *cobra.Command) {
	ids := &options.IDOptions{}

	cmd := &cobra.Command{
		Use:               "list [day]",
		Short:             "List day templates",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: dayCompletions,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			svc, _, err := openService()
			if err != nil {
				return output.HandleError(err)
			}
			defer svc.Persistence.Close()

			days := store.Days()
			if len(args) == 1 {
				days = []string{canonicalDay(args[0])}
			}
			pp := printers.PrettyPrint{ShowID: ids.ShowID, ShowHidden: ids.All}
			all := make(map[string]any, len(days))
			for _, day := range days {
				events, err := svc.TemplateList(cmd.Context(), day)
				if err != nil {
					return output.HandleError(err)
				}
				if output.JSON {
					all[day] = events
					continue
				}
				pp.Title(day)
				pp.Templates(events...)
			}
			if output.JSON {
				return output.PrintJSON(all)
			}
			return nil
		},
	}

	options.AddShowIDArgs(cmd, ids)
	options.AddAllArg(cmd, ids)
	options.AddOutputArg(cmd, output)
	parent.AddCommand(cmd)
}

func addTemplateDelete(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:               "delete <day> <id>",
		Aliases:           []string{"rm"},
		Short:             "Remove an entry from a day template",
		Long:              `Entries a day inherits from Weekdays are hidden for that day only.`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: dayCompletions,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			svc, _, err := openService()
			if err != nil {
				return output.HandleError(err)
			}
			defer svc.Persistence.Close()

			return output.HandleError(svc.TemplateDelete(cmd.Context(), canonicalDay(args[0]), args[1]))
		},
	}

	options.AddOutputArg(cmd, output)
	parent.AddCommand(cmd)
}

func addTemplateImport(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace day templates from a YAML file",
		Long: `Import reads a YAML file keyed by day and replaces each template it names.
Use - to read standard input.

  Weekdays:
    - value: standup
      at: "09:00"
  Saturday:
    - value: water the plants`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return output.HandleError(err)
				}
				defer f.Close()
				r = f
			}

			svc, _, err := openService()
			if err != nil {
				return output.HandleError(err)
			}
			defer svc.Persistence.Close()

			days, err := svc.TemplateImport(cmd.Context(), r)
			if err != nil {
				return output.HandleError(err)
			}
			if output.JSON {
				return output.PrintJSON(map[string]any{"days": days})
			}
			_, _ = fmt.Fprintf(color.Output, "Imported %s.\n", strings.Join(days, ", "))
			return nil
		},
	}

	options.AddOutputArg(cmd, output)
	parent.AddCommand(cmd)
}

func addTemplateExport(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write every day template as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			svc, _, err := openService()
			if err != nil {
				return err
			}
			defer svc.Persistence.Close()

			var w io.Writer = cmd.OutOrStdout()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Create(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return svc.TemplateExport(cmd.Context(), w)
		},
	}

	parent.AddCommand(cmd)
}
