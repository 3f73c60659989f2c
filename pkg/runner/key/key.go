// Package key prints the legend of planner glyphs.
package key

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/planner/pkg/glyph"
)

// Key prints a glyph legend describing item states and sources.
type Key struct {
	Out io.Writer
}

// Do renders the status and source keys.
func (k *Key) Do(ctx context.Context) error {
	if k.Out == nil {
		k.Out = color.Output
	}
	_, _ = fmt.Fprintln(k.Out, "")
	k.Key(ctx, glyph.Printed(glyph.DefaultStatuses()), false)
	_, _ = fmt.Fprintln(k.Out, "")
	k.Key(ctx, glyph.Printed(glyph.DefaultSources()), true)
	_, _ = fmt.Fprintln(k.Out, "")
	return nil
}

// Key renders a glyph table; when source is true, source glyphs are shown.
func (k *Key) Key(_ context.Context, glyfs []glyph.Glyph, source bool) {
	bold := color.New(color.Bold)

	tbl := uitable.New()
	tbl.Separator = "  "
	if source {
		tbl.AddRow(bold.Sprint("Sources"), bold.Sprint("Meaning"))
	} else {
		tbl.AddRow(bold.Sprint(" States"), bold.Sprint("Meaning"))
	}
	for _, v := range glyfs {
		if source == v.Source {
			tbl.AddRow(v.Symbol, v.Meaning)
		}
	}
	tbl.RightAlign(0)

	_, _ = fmt.Fprintln(k.Out, tbl)
}
