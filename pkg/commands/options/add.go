package options

import (
	"github.com/spf13/cobra"
)

// PlaceOptions position an item in a list.
type PlaceOptions struct {
	At    string
	After string
}

func AddAtArg(cmd *cobra.Command, o *PlaceOptions) {
	cmd.Flags().StringVar(&o.At, "at", "",
		`Start time, example: --at=9:30. Timed items are kept in time order.`)
}

func AddAfterArg(cmd *cobra.Command, o *PlaceOptions, fallback string) {
	cmd.Flags().StringVar(&o.After, "after", "",
		"Place after the item with this id. Without it the item goes "+fallback+".")
}
