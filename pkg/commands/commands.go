package commands

import (
	"github.com/spf13/cobra"

	base "github.com/n3wscott/cli-base/pkg/commands/options"

	"tableflip.dev/planner/pkg/commands/options"
)

var (
	output = &options.OutputOptions{}
	logs   = &options.LogOptions{}
)

func New() *cobra.Command {

	cmd := &cobra.Command{
		Use:   "planner",
		Short: base.Wrap80("A day planner that merges your calendar, recurring day templates and your own notes into one ordered list."),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	options.AddLogArgs(cmd, logs)

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addShow(topLevel)
	addAdd(topLevel)
	addEdit(topLevel)
	addMove(topLevel)
	addDelete(topLevel)
	addConfirm(topLevel)
	addRollover(topLevel)
	addReport(topLevel)
	addTemplate(topLevel)
	addServe(topLevel)
	addMCP(topLevel)
	addKey(topLevel)
	addCompletions(topLevel)
	addUpgrade(topLevel)
	addVersion(topLevel)
}
