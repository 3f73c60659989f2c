package options

import (
	"github.com/spf13/cobra"
)

// IDOptions controls which planner items are listed and whether their IDs
// are shown, for commands that take an item ID as input.
type IDOptions struct {
	ShowID bool
	All    bool
}

func AddShowIDArgs(cmd *cobra.Command, o *IDOptions) {
	cmd.Flags().BoolVarP(&o.ShowID, "show-id", "k", false,
		"Show item IDs for use with edit, move and delete.")
}

// AddAllArg adds --all, which also lists hidden items and items pending
// delete.
func AddAllArg(cmd *cobra.Command, o *IDOptions) {
	cmd.Flags().BoolVar(&o.All, "all", false,
		"Include hidden and pending-delete items.")
}
